// Package patch accumulates an operator's edits to one stream into a minimal
// partial-update document with an explicit commit/discard boundary.
//
// A Session is a value: every Stage* method returns a new Session and never
// mutates the receiver or the baseline it was begun from.
package patch

import (
	"slices"
	"strconv"
	"strings"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/pkg/jsonx"
	"github.com/google/uuid"
)

// ToggleMode selects how an enabled toggle combines with other pending edits.
type ToggleMode int

const (
	// ToggleMerge adds `enabled` to the pending document (union of changed fields).
	ToggleMerge ToggleMode = iota
	// ToggleReset replaces the pending document with {id, enabled}, dropping
	// input/output edits.
	ToggleReset
)

func (m ToggleMode) String() string {
	switch m {
	case ToggleMerge:
		return "merge"
	case ToggleReset:
		return "reset"
	default:
		return "unknown"
	}
}

// ParseToggleMode maps a config value ("merge" | "reset"); empty means merge.
func ParseToggleMode(s string) (ToggleMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "merge":
		return ToggleMerge, true
	case "reset":
		return ToggleReset, true
	default:
		return ToggleMerge, false
	}
}

type Session struct {
	id       string
	baseline resource.Stream
	doc      Document
	mode     ToggleMode
	closed   bool

	// session-local ids handed to appended outputs; cleared on Commit
	provisional []string
}

const provisionalPrefix = "pending-"

// Begin opens a merge-mode session on a private copy of stream.
func Begin(stream resource.Stream) Session {
	return BeginWithMode(stream, ToggleMerge)
}

// BeginWithMode opens a session. The baseline is captured now and never
// rebound, so snapshot refreshes during the edit cannot rewrite it.
func BeginWithMode(stream resource.Stream, mode ToggleMode) Session {
	return Session{
		id:       uuid.NewString(),
		baseline: stream.Clone(),
		doc:      Document{ID: stream.ID},
		mode:     mode,
	}
}

func (s Session) ID() string                { return s.id }
func (s Session) StreamID() string          { return s.baseline.ID }
func (s Session) Mode() ToggleMode          { return s.mode }
func (s Session) Closed() bool              { return s.closed }
func (s Session) Document() Document        { return s.doc.Clone() }
func (s Session) Dirty() bool               { return !s.doc.IsEmpty() }
func (s Session) Baseline() resource.Stream { return s.baseline.Clone() }

// Preview is the baseline with the pending document applied.
func (s Session) Preview() resource.Stream { return s.doc.ApplyTo(s.baseline) }

// WorkingOutputs is the output list edits apply to: the document's list once
// outputs were touched, else the baseline's.
func (s Session) WorkingOutputs() []resource.Output {
	if s.doc.Output.IsSet() {
		return resource.CloneOutputs(s.doc.Output.Get())
	}
	return resource.CloneOutputs(s.baseline.Output)
}

// Output looks up an entry of the working list, e.g. to prefill an edit form.
func (s Session) Output(id string) (resource.Output, bool) {
	if id == "" {
		return resource.Output{}, false
	}
	outs := s.WorkingOutputs()
	i := slices.IndexFunc(outs, func(o resource.Output) bool { return o.ID == id })
	if i < 0 {
		return resource.Output{}, false
	}
	return outs[i], true
}

// StageInputEdit makes the input editable by copying the baseline input into
// the document. Idempotent.
func (s Session) StageInputEdit() Session {
	if s.closed || s.doc.Input.IsSet() {
		return s
	}
	s.doc = s.doc.Clone()
	s.doc.Input = jsonx.Set(s.baseline.Input)
	return s
}

// SetInput records a new input value (the operator typing into the field).
func (s Session) SetInput(uri string) Session {
	if s.closed {
		return s
	}
	s.doc = s.doc.Clone()
	s.doc.Input = jsonx.Set(strings.TrimSpace(uri))
	return s
}

// RevertInput drops the input key from the document.
func (s Session) RevertInput() Session {
	if s.closed || !s.doc.Input.IsSet() {
		return s
	}
	s.doc = s.doc.Clone()
	s.doc.Input = jsonx.Field[string]{}
	return s
}

// StageOutputUpsert replaces uri, codec and options of the working-list entry
// with the same id, keeping its other fields (worker, status, logs). An output
// without a matching id is appended; one without any id gets a provisional
// "pending-<n>" id so it can be previewed, edited or deleted before commit.
func (s Session) StageOutputUpsert(out resource.Output) Session {
	if s.closed {
		return s
	}
	working := s.WorkingOutputs()

	if i := slices.IndexFunc(working, func(o resource.Output) bool { return out.ID != "" && o.ID == out.ID }); i >= 0 {
		working[i].URI = out.URI
		working[i].Codec = out.Codec
		working[i].Options = nil
		if out.Options != nil {
			opts := out.Options.Clone()
			working[i].Options = &opts
		}
	} else {
		added := out.Clone()
		if added.ID == "" {
			added.ID = nextProvisionalID(working, len(s.provisional))
			s.provisional = append(slices.Clone(s.provisional), added.ID)
		}
		working = append(working, added)
	}

	s.doc = s.doc.Clone()
	s.doc.Output = jsonx.Set(working)
	return s
}

// IsProvisional reports an output id assigned by this session to an output
// the backend has not created yet.
func (s Session) IsProvisional(id string) bool {
	return id != "" && slices.Contains(s.provisional, id)
}

func nextProvisionalID(outs []resource.Output, n int) string {
	for {
		n++
		id := provisionalPrefix + strconv.Itoa(n)
		if !slices.ContainsFunc(outs, func(o resource.Output) bool { return o.ID == id }) {
			return id
		}
	}
}

// StageOutputDelete removes the working-list entry with the given id. Deleting
// an unknown id leaves the session untouched.
func (s Session) StageOutputDelete(id string) Session {
	if s.closed || id == "" {
		return s
	}
	working := s.WorkingOutputs()
	i := slices.IndexFunc(working, func(o resource.Output) bool { return o.ID == id })
	if i < 0 {
		return s
	}

	s.doc = s.doc.Clone()
	s.doc.Output = jsonx.Set(slices.Delete(working, i, i+1))
	return s
}

// StageEnabledToggle records the desired enabled flag according to the session mode.
func (s Session) StageEnabledToggle(enabled bool) Session {
	if s.closed {
		return s
	}
	if s.mode == ToggleReset {
		s.doc = Document{ID: s.doc.ID, Enabled: jsonx.Set(enabled)}
		return s
	}
	s.doc = s.doc.Clone()
	s.doc.Enabled = jsonx.Set(enabled)
	return s
}

// Commit returns the document to transmit and the ended session. The caller
// keeps the open session if transmission fails, so the edit can be retried.
// Provisional output ids are blanked so the backend assigns real ones.
func (s Session) Commit() (Document, Session) {
	doc := s.doc.Clone()
	if doc.Output.IsSet() && len(s.provisional) > 0 {
		outs := doc.Output.Get()
		for i := range outs {
			if s.IsProvisional(outs[i].ID) {
				outs[i].ID = ""
			}
		}
		doc.Output = jsonx.Set(outs)
	}
	return doc, s.end()
}

// Discard ends the session without emitting anything.
func (s Session) Discard() Session {
	return s.end()
}

func (s Session) end() Session {
	s.doc = Document{ID: s.doc.ID}
	s.provisional = nil
	s.closed = true
	return s
}
