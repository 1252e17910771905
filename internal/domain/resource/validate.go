package resource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edirooss/gasket-console/pkg/avurl"
	"github.com/edirooss/gasket-console/pkg/hostutil"
)

// WorkerSpec is what an operator submits to register a worker.
type WorkerSpec struct {
	Protocol string  `json:"protocol,omitempty"`  // defaults to http
	Host     string  `json:"host"`                //
	PublicIP *string `json:"public_ip,omitempty"` // nullable
}

// StreamSpec is what an operator submits to create a stream; outputs are usually added afterwards.
type StreamSpec struct {
	Name   string       `json:"name"`
	Input  string       `json:"input"`
	Output []OutputSpec `json:"output"`
}

type OutputSpec struct {
	URI     string   `json:"uri"`
	Codec   Codec    `json:"codec"`
	Options *Options `json:"options,omitempty"`
}

// Normalize applies defaults in place.
func (w *WorkerSpec) Normalize() {
	w.Host = strings.TrimSpace(w.Host)
	w.Protocol = strings.ToLower(strings.TrimSpace(w.Protocol))
	if w.Protocol == "" {
		w.Protocol = "http"
	}
}

func (w *WorkerSpec) Validate() error {
	if w.Host == "" {
		return errors.New("host is required")
	}
	if err := hostutil.ValidateHostPort(w.Host); err != nil {
		return fmt.Errorf("invalid host: %w", err)
	}
	switch w.Protocol {
	case "", "http", "https":
	default:
		return fmt.Errorf("unsupported protocol %q", w.Protocol)
	}
	if w.PublicIP != nil {
		if err := hostutil.ValidateHost(*w.PublicIP); err != nil {
			return fmt.Errorf("invalid public_ip: %w", err)
		}
	}
	return nil
}

// Normalize trims user input in place; a nil output list becomes empty.
func (s *StreamSpec) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Input = strings.TrimSpace(s.Input)
	if s.Output == nil {
		s.Output = []OutputSpec{}
	}
	for i := range s.Output {
		s.Output[i].URI = strings.TrimSpace(s.Output[i].URI)
	}
}

func (s *StreamSpec) Validate() error {
	// name: minLength 1, maxLength 100
	if len(s.Name) < 1 {
		return errors.New("name must be at least 1 character")
	}
	if len(s.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}

	if err := ValidateInputURI(s.Input); err != nil {
		return err
	}

	for i := range s.Output {
		if err := s.Output[i].Validate(); err != nil {
			return fmt.Errorf("output[%d]: %w", i, err)
		}
	}
	return nil
}

func (o *OutputSpec) Validate() error {
	if !o.Codec.Valid() {
		return fmt.Errorf("unsupported codec %q", o.Codec)
	}
	return ValidateOutputURI(o.URI)
}

// Validate checks the operator-editable fields of an output (uri, codec).
func (o *Output) Validate() error {
	spec := OutputSpec{URI: o.URI, Codec: o.Codec}
	return spec.Validate()
}

// ValidateInputURI
// Policy: required, at most 2048 characters; a plain path is a local file on the worker.
func ValidateInputURI(raw string) error {
	if raw == "" {
		return errors.New("input is required")
	}
	if len(raw) > 2048 {
		return errors.New("input must be at most 2048 characters")
	}
	if _, err := avurl.Parse(raw); err != nil {
		return fmt.Errorf("invalid input: %s", err)
	}
	return nil
}

// ValidateOutputURI
// Policy: required; network outputs (scheme present) must name a host.
func ValidateOutputURI(raw string) error {
	if raw == "" {
		return errors.New("uri is required")
	}
	if len(raw) > 2048 {
		return errors.New("uri must be at most 2048 characters")
	}
	u, err := avurl.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid uri: %s", err)
	}
	if !u.IsLocal() && u.Scheme != "file" && u.Host == "" {
		return fmt.Errorf("missing host for '%s' output", u.Scheme)
	}
	return nil
}
