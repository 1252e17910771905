package resource

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Codec identifies an output video codec supported by gasket workers.
type Codec string

const (
	H264 Codec = "H264"
	H265 Codec = "H265"
	AV1  Codec = "AV1"
)

// Codecs lists every supported codec in display order.
var Codecs = []Codec{H264, H265, AV1}

// ParseCodec resolves a codec name case-insensitively ("h264", "H265", "av1").
func ParseCodec(s string) (Codec, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(H264):
		return H264, nil
	case string(H265):
		return H265, nil
	case string(AV1):
		return AV1, nil
	default:
		return "", fmt.Errorf("unsupported codec %q", s)
	}
}

// Valid reports whether c is one of the supported codecs.
func (c Codec) Valid() bool {
	switch c {
	case H264, H265, AV1:
		return true
	}
	return false
}

// FFmpegName returns the encoder family name workers pass to ffmpeg.
func (c Codec) FFmpegName() string {
	switch c {
	case H264:
		return "h264"
	case H265:
		return "hevc"
	case AV1:
		return "av1"
	default:
		return ""
	}
}

// UnmarshalJSON accepts any casing and normalizes to the canonical name.
func (c *Codec) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCodec(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
