package patch

import (
	"errors"
	"fmt"

	"github.com/edirooss/gasket-console/internal/domain/resource"
)

var (
	ErrSessionClosed = errors.New("patch session is closed")
	ErrUnknownAction = errors.New("unknown patch action")
)

// Action is an operator intent raised by the diagram or the edit forms.
type Action interface {
	Kind() string
}

type (
	EditInputRequested     struct{}
	InputChanged           struct{ URI string }
	InputEditCancelled     struct{}
	OutputUpsertRequested  struct{ Output resource.Output }
	OutputDeleteRequested  struct{ ID string }
	EnabledToggleRequested struct{ Enabled bool }
)

func (EditInputRequested) Kind() string     { return "edit_input" }
func (InputChanged) Kind() string           { return "input_changed" }
func (InputEditCancelled) Kind() string     { return "cancel_input" }
func (OutputUpsertRequested) Kind() string  { return "upsert_output" }
func (OutputDeleteRequested) Kind() string  { return "delete_output" }
func (EnabledToggleRequested) Kind() string { return "toggle_enabled" }

// Apply folds one action into the session.
func Apply(s Session, a Action) (Session, error) {
	if s.closed {
		return s, ErrSessionClosed
	}
	switch a := a.(type) {
	case EditInputRequested:
		return s.StageInputEdit(), nil
	case InputChanged:
		return s.SetInput(a.URI), nil
	case InputEditCancelled:
		return s.RevertInput(), nil
	case OutputUpsertRequested:
		return s.StageOutputUpsert(a.Output), nil
	case OutputDeleteRequested:
		return s.StageOutputDelete(a.ID), nil
	case EnabledToggleRequested:
		return s.StageEnabledToggle(a.Enabled), nil
	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}

// ApplyAll folds actions in order, stopping at the first error.
func ApplyAll(s Session, actions ...Action) (Session, error) {
	for i, a := range actions {
		next, err := Apply(s, a)
		if err != nil {
			return s, fmt.Errorf("action %d (%s): %w", i, kindOf(a), err)
		}
		s = next
	}
	return s, nil
}

func kindOf(a Action) string {
	if a == nil {
		return "nil"
	}
	return a.Kind()
}
