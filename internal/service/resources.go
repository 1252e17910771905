package service

import (
	"context"
	"fmt"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/lbclient"
	"go.uber.org/zap"
)

// AddWorker validates and registers a worker with the load balancer.
func (s *ConsoleService) AddWorker(ctx context.Context, spec resource.WorkerSpec) (resource.Worker, error) {
	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return resource.Worker{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	w, err := s.backend.CreateWorker(ctx, spec)
	if err != nil {
		return resource.Worker{}, s.fail("add worker", "", err, true)
	}

	s.log.Info("worker added", zap.String("worker_id", w.ID), zap.String("host", w.Host))
	s.succeed("Worker "+w.Host+" added", "")
	s.refresh(ctx)
	return w, nil
}

// UpdateWorker applies a merge patch to a worker.
func (s *ConsoleService) UpdateWorker(ctx context.Context, id string, p lbclient.WorkerPatch) (resource.Worker, error) {
	if err := p.Validate(); err != nil {
		return resource.Worker{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	w, err := s.backend.PatchWorker(ctx, id, p)
	if err != nil {
		return resource.Worker{}, s.fail("update worker", "", err, true)
	}

	s.log.Info("worker updated", zap.String("worker_id", id))
	s.succeed("Worker "+w.Host+" updated", "")
	s.refresh(ctx)
	return w, nil
}

// RemoveWorker deregisters a worker. Streams routed to it keep their outputs;
// the diagram renders those outputs unrouted until the balancer reassigns them.
func (s *ConsoleService) RemoveWorker(ctx context.Context, id string) error {
	if err := s.backend.DeleteWorker(ctx, id); err != nil {
		return s.fail("remove worker", "", err, true)
	}

	affected := s.store.Current().StreamsOn(id)
	s.log.Info("worker removed", zap.String("worker_id", id), zap.Strings("affected_streams", affected))
	s.succeed("Worker removed", "")
	s.refresh(ctx)
	return nil
}

// AddStream validates and creates a stream.
func (s *ConsoleService) AddStream(ctx context.Context, spec resource.StreamSpec) (resource.Stream, error) {
	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return resource.Stream{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	st, err := s.backend.CreateStream(ctx, spec)
	if err != nil {
		return resource.Stream{}, s.fail("add stream", "", err, true)
	}

	s.log.Info("stream added", zap.String("stream_id", st.ID), zap.String("name", st.Name))
	s.succeed("Stream "+st.Name+" added", st.ID)
	s.refresh(ctx)
	return st, nil
}

// RemoveStream deletes a stream and drops any open session on it.
func (s *ConsoleService) RemoveStream(ctx context.Context, id string) error {
	unlock, err := s.lockStream(id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.backend.DeleteStream(ctx, id); err != nil {
		return s.fail("remove stream", id, err, true)
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.metrics.SetOpenSessions(len(s.sessions))
	s.mu.Unlock()

	s.log.Info("stream removed", zap.String("stream_id", id))
	s.succeed("Stream removed", id)
	s.refresh(ctx)
	s.gates.forget(id)
	return nil
}
