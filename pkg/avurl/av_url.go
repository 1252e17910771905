package avurl

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/edirooss/gasket-console/pkg/hostutil"
)

type URL struct {
	Scheme   string `json:"scheme"`
	Userinfo string `json:"userinfo"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Path     string `json:"path"`
}

// IsLocal reports whether the URL is a plain path (ffmpeg reads/writes a local file).
func (u *URL) IsLocal() bool { return u.Scheme == "" }

// Parse splits a media URL and validates its host and port.
func Parse(raw string) (*URL, error) {
	u, l := split(raw)

	/* invariant: split/join round-trips; a mismatch means the splitter is broken */
	if join(u, l) != raw {
		return nil, errors.New("unable to parse URL")
	}
	if l.junk != "" {
		return nil, errors.New("invalid URL")
	}
	if u.Host != "" {
		if err := hostutil.ValidateHost(u.Host); err != nil {
			return nil, err
		}
	}
	if l.port && !isPort(u.Port) {
		return nil, fmt.Errorf("bad port: '%s'", u.Port)
	}
	return &u, nil
}

// isPort checks for a decimal port number (0-65535) without leading zeros.
func isPort(s string) bool {
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	port, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return port >= 0 && port <= 65535
}
