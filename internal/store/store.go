// Package store holds the most recent snapshot of workers and streams fetched
// from the load balancer.
//
// Runtime model
//   - One writer (the sync loop), many readers (handlers, sessions, topology).
//   - A snapshot is immutable once installed; Install swaps the whole pair
//     atomically, so readers never observe streams from one poll and workers
//     from another.
//   - Listeners fire synchronously on the installing goroutine, in
//     registration order, after the swap.
package store

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"go.uber.org/zap"
)

// Snapshot is one consistent view of the backend. Treat it as read-only.
type Snapshot struct {
	Streams     []resource.Stream `json:"streams"`
	Workers     []resource.Worker `json:"workers"`
	Seq         uint64            `json:"seq"`
	InstalledAt time.Time         `json:"installed_at"`
}

// Listener is notified after every install.
type Listener func(*Snapshot)

type listenerEntry struct {
	id uint64
	fn Listener
}

type Store struct {
	log *zap.Logger
	cur atomic.Pointer[Snapshot]

	mu        sync.Mutex // guards listeners + nextID; serializes Install
	listeners []listenerEntry
	nextID    uint64

	now func() time.Time
}

// New returns a store holding an empty snapshot (Seq 0).
func New(log *zap.Logger) *Store {
	s := &Store{log: log.Named("store"), now: time.Now}
	s.cur.Store(&Snapshot{Streams: []resource.Stream{}, Workers: []resource.Worker{}})
	return s
}

// Install replaces the snapshot with private copies of streams and workers and
// notifies listeners. It returns the installed snapshot.
func (s *Store) Install(streams []resource.Stream, workers []resource.Worker) *Snapshot {
	snap := &Snapshot{
		Streams:     resource.CloneStreams(streams),
		Workers:     resource.CloneWorkers(workers),
		InstalledAt: s.now(),
	}
	if snap.Streams == nil {
		snap.Streams = []resource.Stream{}
	}
	if snap.Workers == nil {
		snap.Workers = []resource.Worker{}
	}

	s.mu.Lock()
	snap.Seq = s.cur.Load().Seq + 1
	s.cur.Store(snap)
	ls := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.log.Debug("snapshot installed",
		zap.Uint64("seq", snap.Seq),
		zap.Int("streams", len(snap.Streams)),
		zap.Int("workers", len(snap.Workers)),
	)

	for _, l := range ls {
		l.fn(snap)
	}
	return snap
}

// Current returns the installed snapshot. Never nil.
func (s *Store) Current() *Snapshot { return s.cur.Load() }

// Stream returns a copy of the stream with the given id in the current snapshot.
func (s *Store) Stream(id string) (resource.Stream, bool) { return s.cur.Load().Stream(id) }

// Worker returns a copy of the worker with the given id in the current snapshot.
func (s *Store) Worker(id string) (resource.Worker, bool) { return s.cur.Load().Worker(id) }

func (snap *Snapshot) Stream(id string) (resource.Stream, bool) {
	i := slices.IndexFunc(snap.Streams, func(st resource.Stream) bool { return st.ID == id })
	if i < 0 {
		return resource.Stream{}, false
	}
	return snap.Streams[i].Clone(), true
}

func (snap *Snapshot) Worker(id string) (resource.Worker, bool) {
	i := slices.IndexFunc(snap.Workers, func(w resource.Worker) bool { return w.ID == id })
	if i < 0 {
		return resource.Worker{}, false
	}
	return snap.Workers[i].Clone(), true
}

// Subscribe registers l and returns a func that removes it. Listener panics are
// not recovered.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.listeners = slices.DeleteFunc(s.listeners, func(e listenerEntry) bool { return e.id == id })
			s.mu.Unlock()
		})
	}
}

// Watch delivers installed snapshots until ctx is done. The channel holds at
// most one pending snapshot; a slow reader only ever sees the latest one.
// The current snapshot is delivered first.
func (s *Store) Watch(ctx context.Context) <-chan *Snapshot {
	ch := make(chan *Snapshot, 1)
	push := func(snap *Snapshot) {
		for {
			select {
			case ch <- snap:
				return
			default:
			}
			// drop the stale pending snapshot, then retry
			select {
			case <-ch:
			default:
			}
		}
	}

	var mu sync.Mutex
	closed := false
	unsubscribe := s.Subscribe(func(snap *Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			push(snap)
		}
	})

	mu.Lock()
	push(s.Current())
	mu.Unlock()

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}
