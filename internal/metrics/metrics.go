// Package metrics holds the Prometheus instrumentation of the console.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values of the commit and backend error counters.
const (
	ResultOK     = "ok"
	ResultLocked = "locked"

	KindRejection = "rejection"
	KindTransport = "transport"
	KindOther     = "other"
)

// Metrics holds counters and gauges on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	polls         *prometheus.CounterVec // result=ok|error
	pollDuration  prometheus.Histogram
	snapshotSeq   prometheus.Gauge
	streams       prometheus.Gauge
	workers       prometheus.Gauge
	commits       *prometheus.CounterVec // result=ok|locked|rejection|transport|other
	openSessions  prometheus.Gauge
	requests      *prometheus.CounterVec // method, status class
	backendErrors *prometheus.CounterVec // kind=rejection|transport|other
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasket_console_polls_total",
			Help: "Sync loop polls by result",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gasket_console_poll_duration_seconds",
			Help:    "Wall time of one sync loop poll",
			Buckets: prometheus.DefBuckets,
		}),
		snapshotSeq: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gasket_console_snapshot_seq",
			Help: "Sequence number of the installed snapshot",
		}),
		streams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gasket_console_streams",
			Help: "Streams in the installed snapshot",
		}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gasket_console_workers",
			Help: "Workers in the installed snapshot",
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasket_console_commits_total",
			Help: "Patch session commits by result",
		}, []string{"result"}),
		openSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gasket_console_open_sessions",
			Help: "Open patch sessions",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasket_console_http_requests_total",
			Help: "HTTP requests served by method and status class",
		}, []string{"method", "code"}),
		backendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasket_console_backend_errors_total",
			Help: "Load balancer call failures by kind",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		m.polls,
		m.pollDuration,
		m.snapshotSeq,
		m.streams,
		m.workers,
		m.commits,
		m.openSessions,
		m.requests,
		m.backendErrors,
		collectors.NewGoCollector(),
	)
	return m
}

// ObservePoll records one sync loop poll.
func (m *Metrics) ObservePoll(took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.polls.WithLabelValues(result).Inc()
	m.pollDuration.Observe(took.Seconds())
}

// SetSnapshot records the installed snapshot's shape.
func (m *Metrics) SetSnapshot(seq uint64, streams, workers int) {
	m.snapshotSeq.Set(float64(seq))
	m.streams.Set(float64(streams))
	m.workers.Set(float64(workers))
}

// IncCommit counts one commit attempt; result is ResultOK, ResultLocked or one
// of the Kind* values.
func (m *Metrics) IncCommit(result string) {
	m.commits.WithLabelValues(result).Inc()
}

func (m *Metrics) SetOpenSessions(n int) {
	m.openSessions.Set(float64(n))
}

func (m *Metrics) IncBackendError(kind string) {
	m.backendErrors.WithLabelValues(kind).Inc()
}

// IncRequest counts one served request; code is bucketed to its class (2xx, 4xx, ...).
func (m *Metrics) IncRequest(method string, code int) {
	class := "other"
	if code >= 100 && code < 600 {
		class = string(rune('0'+code/100)) + "xx"
	}
	m.requests.WithLabelValues(method, class).Inc()
}

// Registry exposes the private registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
