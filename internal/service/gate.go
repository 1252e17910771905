package service

import (
	"errors"
	"fmt"
	"sync"
)

// ErrLocked signals a concurrent mutation is already in flight for this stream.
var ErrLocked = errors.New("stream locked")

// gate is a tiny 1-token semaphore with TryLock semantics (non-blocking fast-fail).
type gate struct{ ch chan struct{} }

func newGate() *gate {
	g := &gate{ch: make(chan struct{}, 1)}
	g.ch <- struct{}{} // token present => unlocked
	return g
}

func (g *gate) TryLock() bool {
	select {
	case <-g.ch:
		return true
	default:
		return false
	}
}

func (g *gate) Unlock() {
	select {
	case g.ch <- struct{}{}:
	default:
		panic("unlock of unlocked gate")
	}
}

// gates serializes mutations per stream id. Entries are created on first lock
// and dropped once the stream is gone.
type gates struct{ m sync.Map } // map[string]*gate

// tryLock attempts to acquire the gate for id without blocking.
func (gs *gates) tryLock(id string) (func(), error) {
	v, _ := gs.m.LoadOrStore(id, newGate())
	g := v.(*gate)
	if !g.TryLock() {
		return func() {}, fmt.Errorf("stream %s: %w", id, ErrLocked)
	}
	return g.Unlock, nil
}

// forget drops the gate for id.
func (gs *gates) forget(id string) { gs.m.Delete(id) }

// prune drops every unlocked gate whose id keep rejects. A gate held by an
// in-flight mutation is left alone.
func (gs *gates) prune(keep func(id string) bool) {
	gs.m.Range(func(k, v any) bool {
		id := k.(string)
		if keep(id) {
			return true
		}
		if g := v.(*gate); g.TryLock() {
			gs.m.CompareAndDelete(id, g)
			g.Unlock()
		}
		return true
	})
}

// len counts live gates.
func (gs *gates) len() int {
	n := 0
	gs.m.Range(func(_, _ any) bool { n++; return true })
	return n
}
