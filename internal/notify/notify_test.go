package notify

import (
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestPushAssignsSequence(t *testing.T) {
	f := NewFeed(zaptest.NewLogger(t))
	a := f.Push(Notice{Level: LevelInfo, Kind: KindOK, Message: "a"})
	b := f.Push(Notice{Level: LevelError, Kind: KindTransport, Message: "b"})
	if a.Seq != 1 || b.Seq != 2 || a.At.IsZero() {
		t.Fatalf("unexpected notices %+v %+v", a, b)
	}
	if f.LastSeq() != 2 {
		t.Fatalf("expected last seq 2, got %d", f.LastSeq())
	}
}

func TestRecentNewestFirst(t *testing.T) {
	f := NewFeed(zaptest.NewLogger(t))
	if got := f.Recent(10); got != nil {
		t.Fatalf("expected nil on empty feed, got %v", got)
	}
	for i := 1; i <= 3; i++ {
		f.Push(Notice{Level: LevelInfo, Message: fmt.Sprint(i)})
	}
	got := f.Recent(2)
	if len(got) != 2 || got[0].Message != "3" || got[1].Message != "2" {
		t.Fatalf("unexpected recent %+v", got)
	}
	if all := f.Recent(0); len(all) != 3 {
		t.Fatalf("expected 3, got %d", len(all))
	}
}

func TestRingOverwritesOldest(t *testing.T) {
	f := NewFeed(zaptest.NewLogger(t))
	for i := 1; i <= capN+10; i++ {
		f.Push(Notice{Level: LevelInfo, Message: fmt.Sprint(i)})
	}
	all := f.Recent(0)
	if len(all) != capN {
		t.Fatalf("expected %d entries, got %d", capN, len(all))
	}
	if all[0].Message != fmt.Sprint(capN+10) || all[capN-1].Message != "11" {
		t.Fatalf("unexpected window: newest %q oldest %q", all[0].Message, all[capN-1].Message)
	}
}

func TestSince(t *testing.T) {
	f := NewFeed(zaptest.NewLogger(t))
	for i := 1; i <= 5; i++ {
		f.Push(Notice{Level: LevelInfo, Message: fmt.Sprint(i)})
	}
	got := f.Since(3)
	if len(got) != 2 || got[0].Seq != 4 || got[1].Seq != 5 {
		t.Fatalf("unexpected since %+v", got)
	}
	if got := f.Since(5); got != nil {
		t.Fatalf("expected nothing newer, got %+v", got)
	}

	for i := 0; i < capN; i++ {
		f.Push(Notice{Level: LevelInfo})
	}
	if got := f.Since(0); len(got) != capN || got[0].Seq != 6 {
		t.Fatalf("expected retained window starting at 6, got len %d", len(got))
	}
}
