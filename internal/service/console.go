package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/lbclient"
	"github.com/edirooss/gasket-console/internal/metrics"
	"github.com/edirooss/gasket-console/internal/notify"
	"github.com/edirooss/gasket-console/internal/patch"
	"github.com/edirooss/gasket-console/internal/store"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// ConsoleService
// -----------------------------------------------------------------------------
//
// Runtime model
//   • Single process, many concurrent requests.
//   • Reads (snapshot, topology) are lock-free against the store.
//   • Session mutations for the SAME stream are serialized via a per-ID gate;
//     a second mutation while a commit is in flight fails fast with ErrLocked.
//
// Contract
//   • The load balancer is the source of truth; nothing is persisted here.
//   • Every backend failure is classified (transport | rejection), logged,
//     counted, and pushed to the notice feed before it is returned.
//   • A failed commit keeps the session open with its document intact.
//   • A successful mutation forces a refresh so the snapshot reflects it.

var (
	ErrStreamNotFound  = errors.New("stream not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalid         = errors.New("invalid request")
)

// Backend is the load balancer API the service drives.
type Backend interface {
	ListStreams(ctx context.Context) ([]resource.Stream, error)
	ListWorkers(ctx context.Context) ([]resource.Worker, error)
	CreateWorker(ctx context.Context, in lbclient.WorkerCreate) (resource.Worker, error)
	PatchWorker(ctx context.Context, id string, p lbclient.WorkerPatch) (resource.Worker, error)
	DeleteWorker(ctx context.Context, id string) error
	CreateStream(ctx context.Context, in lbclient.StreamCreate) (resource.Stream, error)
	PatchStream(ctx context.Context, id string, doc patch.Document) (resource.Stream, error)
	DeleteStream(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) (lbclient.Health, error)
}

// Refresher forces a snapshot refresh (the sync loop).
type Refresher interface {
	Refresh(ctx context.Context) (*store.Snapshot, error)
}

type Options struct {
	// ToggleMode applies to every session begun by the service.
	ToggleMode patch.ToggleMode
	// RefreshTimeout bounds the post-mutation refresh; default 3s.
	RefreshTimeout time.Duration
}

type ConsoleService struct {
	log     *zap.Logger
	backend Backend
	store   *store.Store
	loop    Refresher
	notices *notify.Feed
	metrics *metrics.Metrics
	opts    Options

	gates gates

	mu       sync.Mutex
	sessions map[string]patch.Session // open sessions by stream id

	pollFailing atomic.Bool
}

func NewConsoleService(
	log *zap.Logger,
	backend Backend,
	st *store.Store,
	loop Refresher,
	notices *notify.Feed,
	m *metrics.Metrics,
	opts Options,
) *ConsoleService {
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 3 * time.Second
	}
	return &ConsoleService{
		log:      log.Named("console_service"),
		backend:  backend,
		store:    st,
		loop:     loop,
		notices:  notices,
		metrics:  m,
		opts:     opts,
		sessions: make(map[string]patch.Session),
	}
}

// SetRefresher attaches the sync loop after construction (the loop reports
// into the service, so one of them has to be wired late).
func (s *ConsoleService) SetRefresher(r Refresher) { s.loop = r }

func (s *ConsoleService) Store() *store.Store    { return s.store }
func (s *ConsoleService) Notices() *notify.Feed  { return s.notices }
func (s *ConsoleService) Mode() patch.ToggleMode { return s.opts.ToggleMode }

// Health returns the load balancer's root document.
func (s *ConsoleService) Health(ctx context.Context) (lbclient.Health, error) {
	h, err := s.backend.HealthCheck(ctx)
	if err != nil {
		return lbclient.Health{}, s.fail("health check", "", err, false)
	}
	return h, nil
}

// ReportPoll implements syncloop.Reporter. Notices are raised on transitions
// only (failing, recovered) so a dead backend does not flood the feed.
func (s *ConsoleService) ReportPoll(snap *store.Snapshot, took time.Duration, err error) {
	s.metrics.ObservePoll(took, err)

	if err != nil {
		s.metrics.IncBackendError(kindOf(err))
		if !s.pollFailing.Swap(true) {
			s.notices.Push(notify.Notice{
				Level:   notify.LevelWarning,
				Kind:    notify.KindTransport,
				Message: "Cannot reach load balancer: " + lbclient.Message(err),
			})
		}
		return
	}
	if snap != nil {
		s.metrics.SetSnapshot(snap.Seq, len(snap.Streams), len(snap.Workers))
		s.gates.prune(func(id string) bool {
			if _, ok := snap.Stream(id); ok {
				return true
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			_, ok := s.sessions[id]
			return ok
		})
	}
	if s.pollFailing.Swap(false) {
		s.notices.Push(notify.Notice{Level: notify.LevelInfo, Kind: notify.KindOK, Message: "Load balancer reachable again"})
	}
}

// refresh forces a poll after a successful mutation. Failures are logged only:
// the mutation itself already succeeded.
func (s *ConsoleService) refresh(ctx context.Context) {
	if s.loop == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.RefreshTimeout)
	defer cancel()
	if _, err := s.loop.Refresh(ctx); err != nil {
		s.log.Warn("refresh after mutation failed", zap.Error(err))
	}
}

// fail classifies a backend error, counts and logs it, optionally pushes a
// notice, and returns it wrapped with op.
func (s *ConsoleService) fail(op, streamID string, err error, notice bool) error {
	kind := kindOf(err)
	s.metrics.IncBackendError(kind)
	s.log.Warn(op+" failed", zap.String("kind", kind), zap.String("stream_id", streamID), zap.Error(err))

	if notice {
		n := notify.Notice{StreamID: streamID}
		switch {
		case lbclient.IsRejection(err):
			n.Level, n.Kind = notify.LevelError, notify.KindRejection
			n.Message = fmt.Sprintf("Failed to %s: %s", op, lbclient.Message(err))
		default:
			n.Level, n.Kind = notify.LevelWarning, notify.KindTransport
			n.Message = fmt.Sprintf("Failed to %s, try again: %s", op, lbclient.Message(err))
		}
		s.notices.Push(n)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *ConsoleService) succeed(msg, streamID string) {
	s.notices.Push(notify.Notice{Level: notify.LevelSuccess, Kind: notify.KindOK, Message: msg, StreamID: streamID})
}

func kindOf(err error) string {
	switch {
	case lbclient.IsRejection(err):
		return metrics.KindRejection
	case lbclient.IsTransport(err):
		return metrics.KindTransport
	default:
		return metrics.KindOther
	}
}
