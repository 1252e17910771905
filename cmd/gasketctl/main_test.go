package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/lbclient"
	"github.com/edirooss/gasket-console/internal/lbclient/lbtest"
	"github.com/edirooss/gasket-console/internal/topology"
	"go.uber.org/zap/zaptest"
)

func strp(s string) *string { return &s }

func newLB(t *testing.T) (*lbtest.Server, *lbclient.Client) {
	t.Helper()
	lb := lbtest.NewServer(
		[]resource.Stream{
			{ID: "s1", Name: "a", Input: "in.mp4", Output: []resource.Output{{ID: "o1", URI: "rtmp://a", Codec: resource.H264, Worker: strp("w1")}}},
			{ID: "s2", Name: "b", Input: "in.mp4", Output: []resource.Output{}},
		},
		[]resource.Worker{{ID: "w1", Protocol: "http", Host: "10.0.0.4:8080", Status: resource.WorkerUp}},
	)
	t.Cleanup(lb.Close)
	c, err := lbclient.New(lb.URL, lbclient.Options{})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return lb, c
}

func TestSplitIDs(t *testing.T) {
	got := splitIDs(" a, ,b,c ")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected ids %v", got)
	}
	if got := splitIDs(""); len(got) != 0 {
		t.Fatalf("expected none, got %v", got)
	}
}

func TestRunDeletesAllStreams(t *testing.T) {
	lb, c := newLB(t)
	err := run(context.Background(), zaptest.NewLogger(t), c, options{kind: "stream", all: true}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(lb.Streams()); n != 0 {
		t.Fatalf("expected all streams deleted, %d left", n)
	}
}

func TestRunDryRunDeletesNothing(t *testing.T) {
	lb, c := newLB(t)
	err := run(context.Background(), zaptest.NewLogger(t), c, options{kind: "worker", ids: []string{"w1"}, dryRun: true}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, call := range lb.Calls() {
		if call == http.MethodDelete+" /worker/w1" {
			t.Fatal("dry run must not delete")
		}
	}
}

func TestRunSkipsMissingIDs(t *testing.T) {
	lb, c := newLB(t)
	err := run(context.Background(), zaptest.NewLogger(t), c, options{kind: "stream", ids: []string{"nope", "s2"}}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(lb.Streams()); n != 1 {
		t.Fatalf("expected one stream left, got %d", n)
	}
}

func TestRunStopsOnRejection(t *testing.T) {
	lb, c := newLB(t)
	lb.RejectNext(http.MethodDelete, "/stream/s1", http.StatusInternalServerError)
	err := run(context.Background(), zaptest.NewLogger(t), c, options{kind: "stream", ids: []string{"s1", "s2"}}, &bytes.Buffer{})
	if !lbclient.IsRejection(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if n := len(lb.Streams()); n != 2 {
		t.Fatalf("expected nothing deleted, got %d left", n)
	}
}

func TestRunPrintsTopology(t *testing.T) {
	_, c := newLB(t)
	var out bytes.Buffer
	if err := run(context.Background(), zaptest.NewLogger(t), c, options{topology: "s1"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var g topology.Graph
	if err := json.Unmarshal(out.Bytes(), &g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Fatalf("expected 3 nodes and 2 edges, got %d and %d", len(g.Nodes), len(g.Edges))
	}
}
