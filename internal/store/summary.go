package store

// Summary is the dashboard roll-up of a snapshot.
type Summary struct {
	Seq      uint64         `json:"seq"`
	Streams  int            `json:"streams"`
	Enabled  int            `json:"enabled"`
	Outputs  int            `json:"outputs"`
	Unrouted int            `json:"unrouted"` // outputs without a worker
	Workers  int            `json:"workers"`
	ByHealth map[string]int `json:"by_health"` // stream health -> count
	ByStatus map[string]int `json:"by_status"` // worker status -> count
}

func (s *Store) Summary() Summary {
	return Summarize(s.Current())
}

// Summarize rolls up snap. A nil snapshot yields a zero summary.
func Summarize(snap *Snapshot) Summary {
	sum := Summary{ByHealth: map[string]int{}, ByStatus: map[string]int{}}
	if snap == nil {
		return sum
	}
	sum.Seq = snap.Seq
	sum.Streams = len(snap.Streams)
	sum.Workers = len(snap.Workers)

	for i := range snap.Streams {
		st := &snap.Streams[i]
		if st.Enabled {
			sum.Enabled++
		}
		sum.ByHealth[string(st.Health())]++
		sum.Outputs += len(st.Output)
		for j := range st.Output {
			if st.Output[j].WorkerID() == "" {
				sum.Unrouted++
			}
		}
	}
	for i := range snap.Workers {
		status := string(snap.Workers[i].Status)
		if status == "" {
			status = "unknown"
		}
		sum.ByStatus[status]++
	}
	return sum
}

// StreamsOn returns the ids of the streams with at least one output routed to workerID.
func (snap *Snapshot) StreamsOn(workerID string) []string {
	var ids []string
	for i := range snap.Streams {
		for j := range snap.Streams[i].Output {
			if snap.Streams[i].Output[j].WorkerID() == workerID {
				ids = append(ids, snap.Streams[i].ID)
				break
			}
		}
	}
	return ids
}
