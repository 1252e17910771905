// Package notify keeps the operator-facing notice feed: the point where a
// failed poll or commit becomes "reported to the user".
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Kind classifies the cause of a notice.
type Kind string

const (
	KindOK        Kind = "ok"
	KindTransport Kind = "transport"
	KindRejection Kind = "rejection"
)

type Notice struct {
	Seq      uint64    `json:"seq"`
	At       time.Time `json:"at"`
	Level    Level     `json:"level"`
	Kind     Kind      `json:"kind"`
	Message  string    `json:"message"`
	StreamID string    `json:"stream_id,omitempty"`
}

const capN = 500

// Feed is a thread-safe circular buffer of notices with O(1) append and O(N) read.
type Feed struct {
	log *zap.Logger

	entries [capN]Notice // fixed-size circular buffer
	head    int          // next write position
	size    int          // current number of entries
	seq     uint64       // last assigned sequence number
	mu      sync.RWMutex

	now func() time.Time
}

func NewFeed(log *zap.Logger) *Feed {
	return &Feed{log: log.Named("notices"), now: time.Now}
}

// Push stores n (overwriting the oldest when full), assigns Seq and At, and
// returns the stored notice.
func (f *Feed) Push(n Notice) Notice {
	f.mu.Lock()
	f.seq++
	n.Seq = f.seq
	if n.At.IsZero() {
		n.At = f.now()
	}
	f.entries[f.head] = n
	f.head = (f.head + 1) % capN
	if f.size < capN {
		f.size++
	}
	f.mu.Unlock()

	fields := []zap.Field{zap.Uint64("seq", n.Seq), zap.String("kind", string(n.Kind))}
	if n.StreamID != "" {
		fields = append(fields, zap.String("stream_id", n.StreamID))
	}
	switch n.Level {
	case LevelError:
		f.log.Error(n.Message, fields...)
	case LevelWarning:
		f.log.Warn(n.Message, fields...)
	default:
		f.log.Info(n.Message, fields...)
	}
	return n
}

// Recent returns the last n notices, newest first. n <= 0 or n > 500 means all.
func (f *Feed) Recent(n int) []Notice {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.size == 0 {
		return nil
	}
	if n <= 0 || n > capN {
		n = capN
	}
	n = min(n, f.size)

	out := make([]Notice, n)
	newest := (f.head - 1 + capN) % capN
	for i := 0; i < n; i++ {
		out[i] = f.entries[(newest-i+capN)%capN]
	}
	return out
}

// Since returns the retained notices with Seq > seq, oldest first.
func (f *Feed) Since(seq uint64) []Notice {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.size == 0 || seq >= f.seq {
		return nil
	}
	n := min(int(f.seq-seq), f.size)
	out := make([]Notice, n)
	oldest := (f.head - n + capN) % capN
	for i := 0; i < n; i++ {
		out[i] = f.entries[(oldest+i)%capN]
	}
	return out
}

// LastSeq is the sequence number of the newest notice (0 when empty).
func (f *Feed) LastSeq() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.seq
}
