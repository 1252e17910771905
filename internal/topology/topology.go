// Package topology projects a stream and the worker snapshot into a three-lane
// diagram: input → workers → outputs.
package topology

import (
	"github.com/edirooss/gasket-console/internal/domain/resource"
)

type NodeKind string

const (
	InputNode  NodeKind = "input"
	WorkerNode NodeKind = "worker"
	OutputNode NodeKind = "output"
)

// Lanes (columns) of the diagram.
const (
	InputLane  = 0
	WorkerLane = 1
	OutputLane = 2
)

// labelMax is the number of runes kept in a node label before "..." is appended.
const labelMax = 25

// Layout converts lane/row coordinates into diagram-surface pixels.
type Layout struct {
	NodeWidth  float64 `json:"node_width"`
	NodeHeight float64 `json:"node_height"`
}

// DefaultLayout matches the node size the console front-end renders.
var DefaultLayout = Layout{NodeWidth: 300, NodeHeight: 100}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Node struct {
	ID       string          `json:"id"`
	Kind     NodeKind        `json:"type"`
	Lane     int             `json:"lane"`
	Row      float64         `json:"row"`
	Position Position        `json:"position"`
	Label    string          `json:"label"`
	Health   resource.Health `json:"health"`

	// Exactly one of the refs is set, matching Kind.
	Stream *resource.Stream `json:"stream,omitempty"`
	Worker *resource.Worker `json:"worker,omitempty"`
	Output *resource.Output `json:"output,omitempty"`
}

type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Animated bool   `json:"animated"`
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build is BuildWithLayout using DefaultLayout.
func Build(stream resource.Stream, workers []resource.Worker) Graph {
	return BuildWithLayout(stream, workers, DefaultLayout)
}

// BuildWithLayout derives the diagram for one stream. It is pure: equal inputs
// always produce equal graphs, in insertion order.
//
// Rules:
//   - The input node sits at lane 0, vertically centred in a block of
//     L = max(distinct referenced workers, outputs) rows.
//   - Output i sits at lane 2, row i.
//   - A resolved worker gets one node (deduplicated by id) at lane 1; the worker
//     column is centred in the same L-row block.
//   - Edges input→worker are deduplicated; worker→output edges are always emitted.
//   - An unassigned output, or one whose worker is missing from the snapshot, is
//     rendered without a worker hop and without edges.
func BuildWithLayout(stream resource.Stream, workers []resource.Worker, layout Layout) Graph {
	byID := make(map[string]*resource.Worker, len(workers))
	for i := range workers {
		byID[workers[i].ID] = &workers[i]
	}

	referenced := len(stream.WorkerIDs())
	lanes := max(referenced, len(stream.Output))

	g := Graph{
		Nodes: make([]Node, 0, 1+referenced+len(stream.Output)),
		Edges: make([]Edge, 0, referenced+len(stream.Output)),
	}

	input := stream.Clone()
	input.Output = nil // the input node describes the source; outputs have their own nodes
	g.Nodes = append(g.Nodes, place(Node{
		ID:     stream.ID,
		Kind:   InputNode,
		Lane:   InputLane,
		Row:    float64(lanes)/2 - 0.5,
		Label:  chop(stream.Input),
		Health: stream.Health(),
		Stream: &input,
	}, layout))

	workerNodes := make(map[string]struct{}, referenced)
	workerEdges := make(map[string]struct{}, referenced)
	workerOffset := float64(lanes-referenced) / 2

	for i := range stream.Output {
		out := stream.Output[i].Clone()
		outNode := place(Node{
			ID:     out.ID,
			Kind:   OutputNode,
			Lane:   OutputLane,
			Row:    float64(i),
			Label:  chop(out.URI),
			Health: resource.HealthOf(out.Status),
			Output: &out,
		}, layout)

		wid := out.WorkerID()
		w, ok := byID[wid]
		if wid == "" || !ok {
			// unassigned or dangling reference: the output still renders, unrouted
			g.Nodes = append(g.Nodes, outNode)
			continue
		}

		if _, exists := workerNodes[wid]; !exists {
			wc := w.Clone()
			g.Nodes = append(g.Nodes, place(Node{
				ID:     wid,
				Kind:   WorkerNode,
				Lane:   WorkerLane,
				Row:    float64(len(workerNodes)) + workerOffset,
				Label:  chop(w.Host),
				Health: resource.HealthOf(string(w.Status)),
				Worker: &wc,
			}, layout))
			workerNodes[wid] = struct{}{}
		}

		g.Nodes = append(g.Nodes, outNode)

		if _, exists := workerEdges[wid]; !exists {
			g.Edges = append(g.Edges, edge(stream.ID, wid))
			workerEdges[wid] = struct{}{}
		}
		g.Edges = append(g.Edges, edge(wid, out.ID))
	}

	return g
}

func place(n Node, l Layout) Node {
	n.Position = Position{X: float64(n.Lane) * l.NodeWidth, Y: n.Row * l.NodeHeight}
	return n
}

func edge(source, target string) Edge {
	return Edge{ID: "e" + source + "-" + target, Source: source, Target: target, Animated: true}
}

// chop truncates s to labelMax runes, appending "..." when cut.
func chop(s string) string {
	r := []rune(s)
	if len(r) <= labelMax {
		return s
	}
	return string(r[:labelMax]) + "..."
}
