package topology

// Stats summarizes a graph for list views and logs.
type Stats struct {
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
	Workers  int `json:"workers"`
	Outputs  int `json:"outputs"`
	Unrouted int `json:"unrouted"` // outputs with no worker→output edge
}

func (g Graph) Stats() Stats {
	st := Stats{Nodes: len(g.Nodes), Edges: len(g.Edges)}
	routed := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		routed[e.Target] = struct{}{}
	}
	for _, n := range g.Nodes {
		switch n.Kind {
		case WorkerNode:
			st.Workers++
		case OutputNode:
			st.Outputs++
			if _, ok := routed[n.ID]; !ok {
				st.Unrouted++
			}
		}
	}
	return st
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
