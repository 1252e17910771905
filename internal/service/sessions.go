package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/metrics"
	"github.com/edirooss/gasket-console/internal/patch"
	"github.com/edirooss/gasket-console/internal/topology"
	"go.uber.org/zap"
)

// BeginSession opens an edit session on the stream as it is in the current
// snapshot. If a session is already open for the stream it is returned as is.
func (s *ConsoleService) BeginSession(streamID string) (patch.Session, error) {
	unlock, err := s.lockStream(streamID)
	if err != nil {
		return patch.Session{}, err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[streamID]; ok {
		return sess, nil
	}
	stream, ok := s.store.Stream(streamID)
	if !ok {
		return patch.Session{}, fmt.Errorf("stream %s: %w", streamID, ErrStreamNotFound)
	}

	sess := patch.BeginWithMode(stream, s.opts.ToggleMode)
	s.sessions[streamID] = sess
	s.metrics.SetOpenSessions(len(s.sessions))
	return sess, nil
}

// Session returns the open session for the stream.
func (s *ConsoleService) Session(streamID string) (patch.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[streamID]
	if !ok {
		return patch.Session{}, fmt.Errorf("stream %s: %w", streamID, ErrSessionNotFound)
	}
	return sess, nil
}

// Stage folds actions into the open session of the stream, atomically: on
// error the stored session is unchanged.
func (s *ConsoleService) Stage(streamID string, actions ...patch.Action) (patch.Session, error) {
	unlock, err := s.lockStream(streamID)
	if err != nil {
		return patch.Session{}, err
	}
	defer unlock()

	sess, err := s.Session(streamID)
	if err != nil {
		return patch.Session{}, err
	}
	for _, a := range actions {
		if up, ok := a.(patch.OutputUpsertRequested); ok {
			if err := up.Output.Validate(); err != nil {
				return sess, fmt.Errorf("%w: output: %v", ErrInvalid, err)
			}
		}
		if in, ok := a.(patch.InputChanged); ok {
			if err := resource.ValidateInputURI(strings.TrimSpace(in.URI)); err != nil {
				return sess, fmt.Errorf("%w: input: %v", ErrInvalid, err)
			}
		}
	}
	next, err := patch.ApplyAll(sess, actions...)
	if err != nil {
		return sess, err
	}

	s.mu.Lock()
	s.sessions[streamID] = next
	s.mu.Unlock()
	return next, nil
}

// Commit transmits the session document. On success the session ends and the
// merged stream is returned; on failure the session stays open unchanged.
func (s *ConsoleService) Commit(ctx context.Context, streamID string) (resource.Stream, error) {
	unlock, err := s.lockStream(streamID)
	if err != nil {
		s.metrics.IncCommit(metrics.ResultLocked)
		return resource.Stream{}, err
	}
	defer unlock()

	sess, err := s.Session(streamID)
	if err != nil {
		return resource.Stream{}, err
	}

	doc, _ := sess.Commit()
	merged, err := s.backend.PatchStream(ctx, streamID, doc)
	if err != nil {
		s.metrics.IncCommit(kindOf(err))
		return resource.Stream{}, s.fail("update stream", streamID, err, true)
	}

	s.mu.Lock()
	delete(s.sessions, streamID)
	s.metrics.SetOpenSessions(len(s.sessions))
	s.mu.Unlock()

	s.metrics.IncCommit(metrics.ResultOK)
	s.log.Info("stream updated", zap.String("stream_id", streamID), zap.Strings("changed", doc.Changed()))
	s.succeed("Stream updated", streamID)
	s.refresh(ctx)
	return merged, nil
}

// Discard drops the open session without transmitting anything.
func (s *ConsoleService) Discard(streamID string) error {
	unlock, err := s.lockStream(streamID)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[streamID]; !ok {
		return fmt.Errorf("stream %s: %w", streamID, ErrSessionNotFound)
	}
	delete(s.sessions, streamID)
	s.metrics.SetOpenSessions(len(s.sessions))
	return nil
}

// OpenSessions returns the stream ids with an open session.
func (s *ConsoleService) OpenSessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Topology builds the diagram of the stream against the current snapshot.
func (s *ConsoleService) Topology(streamID string) (topology.Graph, error) {
	snap := s.store.Current()
	stream, ok := snap.Stream(streamID)
	if !ok {
		return topology.Graph{}, fmt.Errorf("stream %s: %w", streamID, ErrStreamNotFound)
	}
	return topology.Build(stream, snap.Workers), nil
}

// PreviewTopology builds the diagram of the stream with the open session's
// pending edits applied. Without a session it equals Topology.
func (s *ConsoleService) PreviewTopology(streamID string) (topology.Graph, error) {
	sess, err := s.Session(streamID)
	if err != nil {
		return s.Topology(streamID)
	}
	return topology.Build(sess.Preview(), s.store.Current().Workers), nil
}

// lockStream takes the gate of a stream the console knows about, from the
// snapshot or an open session. Unknown ids get a no-op unlock so they never
// leave an entry behind; the operation then fails with not found anyway.
func (s *ConsoleService) lockStream(id string) (func(), error) {
	if !s.knows(id) {
		return func() {}, nil
	}
	return s.gates.tryLock(id)
}

func (s *ConsoleService) knows(id string) bool {
	if _, ok := s.store.Stream(id); ok {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}
