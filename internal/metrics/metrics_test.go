package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObservePoll(20*time.Millisecond, nil)
	m.ObservePoll(time.Millisecond, errors.New("boom"))
	m.SetSnapshot(7, 2, 3)
	m.IncCommit("ok")
	m.IncRequest("GET", 404)
	m.IncBackendError("transport")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`gasket_console_polls_total{result="ok"} 1`,
		`gasket_console_polls_total{result="error"} 1`,
		`gasket_console_snapshot_seq 7`,
		`gasket_console_commits_total{result="ok"} 1`,
		`gasket_console_http_requests_total{code="4xx",method="GET"} 1`,
		`gasket_console_backend_errors_total{kind="transport"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %q in exposition:\n%s", want, body)
		}
	}
}
