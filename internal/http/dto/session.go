package dto

import (
	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/patch"
)

// SessionView is the wire shape of an open edit session.
type SessionView struct {
	ID       string          `json:"id"`
	StreamID string          `json:"stream_id"`
	Mode     string          `json:"mode"`
	Dirty    bool            `json:"dirty"`
	Changed  []string        `json:"changed"`
	Document patch.Document  `json:"document"`
	Preview  resource.Stream `json:"preview"`
}

func NewSessionView(s patch.Session) SessionView {
	doc := s.Document()
	changed := doc.Changed()
	if changed == nil {
		changed = []string{}
	}
	return SessionView{
		ID:       s.ID(),
		StreamID: s.StreamID(),
		Mode:     s.Mode().String(),
		Dirty:    s.Dirty(),
		Changed:  changed,
		Document: doc,
		Preview:  s.Preview(),
	}
}
