package dto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/patch"
	"github.com/edirooss/gasket-console/pkg/jsonx"
)

// ActionReq is one tagged session action:
//
//	{"type": "edit_input"}
//	{"type": "input_changed", "uri": "srt://..."}
//	{"type": "cancel_input"}
//	{"type": "upsert_output", "output": {...}}
//	{"type": "delete_output", "id": "o1"}
//	{"type": "toggle_enabled", "enabled": false}
type ActionReq struct {
	Type    string                       `json:"type"`
	URI     jsonx.Field[string]          `json:"uri"`
	Output  jsonx.Field[resource.Output] `json:"output"`
	ID      jsonx.Field[string]          `json:"id"`
	Enabled jsonx.Field[bool]            `json:"enabled"`
}

// ToAction converts the request into a patch action, checking that exactly the
// fields of its type are present.
func (r ActionReq) ToAction() (patch.Action, error) {
	var (
		a    patch.Action
		want string
	)
	switch r.Type {
	case patch.EditInputRequested{}.Kind():
		a = patch.EditInputRequested{}
	case patch.InputChanged{}.Kind():
		if !r.URI.IsSet() || r.URI.IsNull() {
			return nil, errors.New("uri is required")
		}
		a, want = patch.InputChanged{URI: r.URI.Get()}, "uri"
	case patch.InputEditCancelled{}.Kind():
		a = patch.InputEditCancelled{}
	case patch.OutputUpsertRequested{}.Kind():
		if !r.Output.IsSet() || r.Output.IsNull() {
			return nil, errors.New("output is required")
		}
		a, want = patch.OutputUpsertRequested{Output: r.Output.Get()}, "output"
	case patch.OutputDeleteRequested{}.Kind():
		if !r.ID.IsSet() || r.ID.Get() == "" {
			return nil, errors.New("id is required")
		}
		a, want = patch.OutputDeleteRequested{ID: r.ID.Get()}, "id"
	case patch.EnabledToggleRequested{}.Kind():
		if !r.Enabled.IsSet() || r.Enabled.IsNull() {
			return nil, errors.New("enabled is required")
		}
		a, want = patch.EnabledToggleRequested{Enabled: r.Enabled.Get()}, "enabled"
	case "":
		return nil, errors.New("type is required")
	default:
		return nil, fmt.Errorf("%w: %q", patch.ErrUnknownAction, r.Type)
	}

	for _, f := range r.present() {
		if f != want {
			return nil, fmt.Errorf("field %q not allowed for %s", f, r.Type)
		}
	}
	return a, nil
}

func (r ActionReq) present() []string {
	var out []string
	if r.URI.IsSet() {
		out = append(out, "uri")
	}
	if r.Output.IsSet() {
		out = append(out, "output")
	}
	if r.ID.IsSet() {
		out = append(out, "id")
	}
	if r.Enabled.IsSet() {
		out = append(out, "enabled")
	}
	return out
}

// DecodeActions strictly decodes a single tagged action or an array of them.
func DecodeActions(body []byte) ([]patch.Action, error) {
	var reqs []ActionReq
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := jsonx.ParseStrictJSON(body, &reqs); err != nil {
			return nil, err
		}
		if len(reqs) == 0 {
			return nil, errors.New("no actions")
		}
	} else {
		var one ActionReq
		if err := jsonx.ParseStrictJSON(body, &one); err != nil {
			return nil, err
		}
		reqs = []ActionReq{one}
	}

	actions := make([]patch.Action, 0, len(reqs))
	for i, r := range reqs {
		a, err := r.ToAction()
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}
