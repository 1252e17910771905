package resource

import "slices"

// Stream is one input feeding an ordered list of outputs. A stream owns its outputs.
type Stream struct {
	ID      string   `json:"id"`      //
	Name    string   `json:"name"`    //
	Input   string   `json:"input"`   // source URI or local path
	Output  []Output `json:"output"`  // ordered
	Enabled bool     `json:"enabled"` //
	Status  string   `json:"status"`  // Running | Stopped | Creating | Error | ...
}

// Output is one destination sink of a stream.
//
// Worker is a weak reference: the id of the worker currently executing the
// output, nil before assignment. It never implies ownership.
type Output struct {
	ID        string   `json:"id,omitempty"`         // empty until the backend assigns one
	URI       string   `json:"uri"`                  //
	Codec     Codec    `json:"codec"`                //
	Options   *Options `json:"options,omitempty"`    // nullable
	Status    string   `json:"status,omitempty"`     //
	Worker    *string  `json:"worker,omitempty"`     // nullable
	Logs      []string `json:"logs,omitempty"`       //
	LastError *string  `json:"last_error,omitempty"` // nullable
}

// Options are codec/encoder specific and passed through to the worker untouched.
type Options struct {
	PixelFormat  *string `json:"pixel_format,omitempty"`
	Bitrate      *string `json:"bitrate,omitempty"`
	Framerate    *string `json:"framerate,omitempty"`
	GOPSize      *string `json:"gop_size,omitempty"`
	DebugText    *bool   `json:"debug_text,omitempty"`
	OutputFormat *string `json:"output_format,omitempty"`
}

// WorkerID returns the referenced worker id, or "" when unassigned.
func (o *Output) WorkerID() string {
	if o.Worker == nil {
		return ""
	}
	return *o.Worker
}

// OutputIndex returns the index of the output with the given id, or -1.
func (s *Stream) OutputIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.Output, func(o Output) bool { return o.ID == id })
}

// WorkerIDs returns the distinct worker ids referenced by the stream outputs,
// in first-reference order. Unassigned outputs are ignored.
func (s *Stream) WorkerIDs() []string {
	seen := make(map[string]struct{}, len(s.Output))
	ids := make([]string, 0, len(s.Output))
	for i := range s.Output {
		id := s.Output[i].WorkerID()
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (o Options) Clone() Options {
	return Options{
		PixelFormat:  clonePtr(o.PixelFormat),
		Bitrate:      clonePtr(o.Bitrate),
		Framerate:    clonePtr(o.Framerate),
		GOPSize:      clonePtr(o.GOPSize),
		DebugText:    clonePtr(o.DebugText),
		OutputFormat: clonePtr(o.OutputFormat),
	}
}

func (o Output) Clone() Output {
	out := o
	if o.Options != nil {
		opts := o.Options.Clone()
		out.Options = &opts
	}
	out.Worker = clonePtr(o.Worker)
	out.Logs = slices.Clone(o.Logs)
	out.LastError = clonePtr(o.LastError)
	return out
}

// CloneOutputs deep-copies an output list. A nil input yields an empty, non-nil list
// so that a cleared list still serializes as [].
func CloneOutputs(in []Output) []Output {
	out := make([]Output, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func (s Stream) Clone() Stream {
	out := s
	out.Output = CloneOutputs(s.Output)
	return out
}

// CloneStreams deep-copies a stream list. A nil input yields nil.
func CloneStreams(in []Stream) []Stream {
	if in == nil {
		return nil
	}
	out := make([]Stream, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
