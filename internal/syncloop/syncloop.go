// Package syncloop periodically pulls workers and streams from the load
// balancer and installs them into the store.
//
// Runtime model
//   - One ticker goroutine; every tick starts a poll in its own goroutine.
//   - Polls run on a context detached from the loop, bounded by a timeout:
//     stopping the loop cancels the timer, never an in-flight call.
//   - Concurrent polls (tick + manual Refresh) are coalesced into one.
//   - A poll installs only if both fetches succeed; a failure leaves the
//     previous snapshot in place, is reported, and the next tick retries.
//     There is no backoff.
//   - Results arriving after Stop are discarded.
package syncloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	ErrRunning = errors.New("sync loop already running")
	ErrStopped = errors.New("sync loop stopped")
)

// Fetcher is the part of the load balancer client the loop needs.
type Fetcher interface {
	ListStreams(ctx context.Context) ([]resource.Stream, error)
	ListWorkers(ctx context.Context) ([]resource.Worker, error)
}

// Reporter learns about every finished poll. snap is nil when err is set or
// the result was discarded.
type Reporter interface {
	ReportPoll(snap *store.Snapshot, took time.Duration, err error)
}

type Options struct {
	// Interval between polls; default 1s.
	Interval time.Duration
	// Timeout bounds one poll (both fetches); default 5s.
	Timeout time.Duration
	// Reporter is optional.
	Reporter Reporter
}

func (o *Options) setDefaults() {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
}

type Loop struct {
	log    *zap.Logger
	client Fetcher
	store  *store.Store
	opts   Options

	sg      singleflight.Group
	stopped atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(log *zap.Logger, client Fetcher, st *store.Store, opts Options) *Loop {
	opts.setDefaults()
	return &Loop{
		log:    log.Named("sync_loop"),
		client: client,
		store:  st,
		opts:   opts,
	}
}

// Start polls once immediately, then every Interval, until ctx is done or Stop
// is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.stopped.Store(false)

	go l.run(ctx, l.done)

	l.log.Info("sync loop started", zap.Duration("interval", l.opts.Interval), zap.Duration("timeout", l.opts.Timeout))
	return nil
}

// Stop cancels the timer and waits for the ticker goroutine to exit. Polls
// already in flight complete in the background and are discarded. Safe to
// call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.stopped.Store(true)
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	l.log.Info("sync loop stopped")
}

// Running reports whether the ticker is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	go l.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	if _, err := l.poll(ctx); err != nil && !errors.Is(err, ErrStopped) {
		l.log.Warn("poll failed", zap.Error(err))
	}
}

// Refresh forces a poll now and waits for its result, or for ctx. A poll
// already in flight is joined rather than duplicated.
func (l *Loop) Refresh(ctx context.Context) (*store.Snapshot, error) {
	ch := l.sg.DoChan("poll", func() (any, error) { return l.fetchAndInstall(ctx) })
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*store.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loop) poll(ctx context.Context) (*store.Snapshot, error) {
	v, err, _ := l.sg.Do("poll", func() (any, error) { return l.fetchAndInstall(ctx) })
	if err != nil {
		return nil, err
	}
	return v.(*store.Snapshot), nil
}

func (l *Loop) fetchAndInstall(parent context.Context) (*store.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), l.opts.Timeout)
	defer cancel()

	start := time.Now()
	var (
		streams []resource.Stream
		workers []resource.Worker
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		streams, err = l.client.ListStreams(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		workers, err = l.client.ListWorkers(gctx)
		return err
	})
	err := g.Wait()
	took := time.Since(start)

	if err != nil {
		err = fmt.Errorf("poll: %w", err)
		l.report(nil, took, err)
		return nil, err
	}
	if l.stopped.Load() {
		l.log.Debug("discarding poll result after stop", zap.Duration("took", took))
		return nil, ErrStopped
	}

	snap := l.store.Install(streams, workers)
	l.report(snap, took, nil)
	return snap, nil
}

func (l *Loop) report(snap *store.Snapshot, took time.Duration, err error) {
	if l.opts.Reporter != nil {
		l.opts.Reporter.ReportPoll(snap, took, err)
	}
}
