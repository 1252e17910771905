package patch

import (
	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/pkg/jsonx"
)

// Document is a sparse partial update of a stream (RFC 7386 merge patch).
//
// It always carries the stream id; every other key is present only when the
// operator touched it during the session. Per RFC 7386 the output list is an
// atomic value: when present it replaces the whole list.
type Document struct {
	ID      string                         `json:"id"`               //
	Input   jsonx.Field[string]            `json:"input,omitzero"`   // optional; string
	Enabled jsonx.Field[bool]              `json:"enabled,omitzero"` // optional; bool
	Output  jsonx.Field[[]resource.Output] `json:"output,omitzero"`  // optional; full replacement list
}

// Changed lists the touched keys besides id, in wire order.
func (d Document) Changed() []string {
	keys := make([]string, 0, 3)
	if d.Input.IsSet() {
		keys = append(keys, "input")
	}
	if d.Enabled.IsSet() {
		keys = append(keys, "enabled")
	}
	if d.Output.IsSet() {
		keys = append(keys, "output")
	}
	return keys
}

// IsEmpty reports a document holding only the id.
func (d Document) IsEmpty() bool { return len(d.Changed()) == 0 }

// Clone deep-copies the document so callers never share the output list.
func (d Document) Clone() Document {
	out := Document{ID: d.ID, Input: d.Input, Enabled: d.Enabled}
	if d.Output.IsSet() {
		out.Output = jsonx.Set(resource.CloneOutputs(d.Output.Get()))
	}
	return out
}

// ApplyTo returns the stream a merge-patch-compliant backend would produce.
// It is used to preview pending changes.
func (d Document) ApplyTo(s resource.Stream) resource.Stream {
	out := s.Clone()
	if d.Input.IsSet() {
		out.Input = d.Input.Get()
	}
	if d.Enabled.IsSet() {
		out.Enabled = d.Enabled.Get()
	}
	if d.Output.IsSet() {
		out.Output = resource.CloneOutputs(d.Output.Get())
	}
	return out
}
