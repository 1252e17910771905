// Package lbtest runs an in-memory gasket-lb for tests.
package lbtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/lbclient"
	"github.com/edirooss/gasket-console/internal/patch"
	"github.com/google/uuid"
)

type Server struct {
	*httptest.Server

	mu      sync.Mutex
	streams []resource.Stream
	workers []resource.Worker
	reject  map[string]int // "METHOD /path" -> status to answer once
	calls   []string
	patches []string // raw PATCH /stream bodies
}

// NewServer starts a fake load balancer seeded with streams and workers.
// It is closed by the caller.
func NewServer(streams []resource.Stream, workers []resource.Worker) *Server {
	s := &Server{
		streams: resource.CloneStreams(streams),
		workers: resource.CloneWorkers(workers),
		reject:  map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// RejectNext makes the next call matching method and path answer status.
func (s *Server) RejectNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject[method+" "+path] = status
}

// Calls returns "METHOD /path" for every request served so far.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Patches returns the raw bodies of PATCH /stream/{id} requests.
func (s *Server) Patches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.patches)
}

func (s *Server) Streams() []resource.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return resource.CloneStreams(s.streams)
}

func (s *Server) SetStreams(streams []resource.Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams = resource.CloneStreams(streams)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	s.calls = append(s.calls, key)
	if status, ok := s.reject[key]; ok {
		delete(s.reject, key)
		http.Error(w, fmt.Sprintf("rejected by test: %d", status), status)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		writeJSON(w, lbclient.Health{Server: "gasket-lb test", Streams: len(s.streams), Workers: len(s.workers), StateFile: "state.json"})
	case parts[0] == "stream":
		s.serveStream(w, r, parts[1:])
	case parts[0] == "worker":
		s.serveWorker(w, r, parts[1:])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) serveStream(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, s.streams)
		case http.MethodPost:
			var in resource.StreamSpec
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			st := resource.Stream{ID: uuid.NewString(), Name: in.Name, Input: in.Input, Enabled: true, Status: "Creating", Output: []resource.Output{}}
			for _, o := range in.Output {
				st.Output = append(st.Output, resource.Output{ID: uuid.NewString(), URI: o.URI, Codec: o.Codec, Options: o.Options, Status: "Creating", Logs: []string{}})
			}
			s.streams = append(s.streams, st)
			writeJSON(w, st)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id := rest[0]
	i := slices.IndexFunc(s.streams, func(st resource.Stream) bool { return st.ID == id })
	if i < 0 {
		http.Error(w, fmt.Sprintf("Stream with id %s not found", id), http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.streams[i])
	case http.MethodDelete:
		s.streams = slices.Delete(s.streams, i, i+1)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPatch:
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.patches = append(s.patches, string(raw))
		var doc patch.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			http.Error(w, "Error parsing stream json\nReason: "+err.Error(), http.StatusBadRequest)
			return
		}
		merged := doc.ApplyTo(s.streams[i])
		merged.ID = id
		for j := range merged.Output {
			if merged.Output[j].ID == "" {
				merged.Output[j].ID = uuid.NewString()
			}
			if merged.Output[j].Status == "" {
				merged.Output[j].Status = "Creating"
			}
			if merged.Output[j].Logs == nil {
				merged.Output[j].Logs = []string{}
			}
		}
		s.streams[i] = merged
		writeJSON(w, merged)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) serveWorker(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, s.workers)
		case http.MethodPost:
			var in resource.WorkerSpec
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			if j := slices.IndexFunc(s.workers, func(x resource.Worker) bool { return x.Host == in.Host }); j >= 0 {
				http.Error(w, fmt.Sprintf("Worker with host %s already exists with id: %s", in.Host, s.workers[j].ID), http.StatusConflict)
				return
			}
			proto := in.Protocol
			if proto == "" {
				proto = "http"
			}
			wk := resource.Worker{ID: uuid.NewString(), Protocol: proto, Host: in.Host, PublicIP: in.PublicIP, Codecs: []resource.Codec{}, Status: resource.WorkerConfiguring, Stats: resource.WorkerStats{Utilization: 100}}
			s.workers = append(s.workers, wk)
			writeJSON(w, wk)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id := rest[0]
	i := slices.IndexFunc(s.workers, func(x resource.Worker) bool { return x.ID == id })
	if i < 0 {
		http.Error(w, fmt.Sprintf("Worker with id %s not found", id), http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.workers[i])
	case http.MethodDelete:
		s.workers = slices.Delete(s.workers, i, i+1)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPatch:
		var p lbclient.WorkerPatch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		wk := s.workers[i]
		if p.Protocol.IsSet() {
			wk.Protocol = p.Protocol.Get()
		}
		if p.Host.IsSet() {
			wk.Host = p.Host.Get()
		}
		if p.PublicIP.IsSet() {
			wk.PublicIP = p.PublicIP.Value()
		}
		s.workers[i] = wk
		writeJSON(w, wk)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
