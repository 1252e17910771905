package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/lbclient"
	"github.com/edirooss/gasket-console/internal/lbclient/lbtest"
	"github.com/edirooss/gasket-console/internal/metrics"
	"github.com/edirooss/gasket-console/internal/notify"
	"github.com/edirooss/gasket-console/internal/patch"
	"github.com/edirooss/gasket-console/internal/service"
	"github.com/edirooss/gasket-console/internal/store"
	"github.com/edirooss/gasket-console/internal/syncloop"
	"github.com/edirooss/gasket-console/internal/topology"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func strp(s string) *string { return &s }

type fixture struct {
	router *gin.Engine
	lb     *lbtest.Server
	svc    *service.ConsoleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	lb := lbtest.NewServer(
		[]resource.Stream{{
			ID: "s1", Name: "demo", Input: "in.mp4", Enabled: true, Status: "Running",
			Output: []resource.Output{{ID: "o1", URI: "rtmp://a", Codec: resource.H264, Worker: strp("w1"), Status: "Running"}},
		}},
		[]resource.Worker{{ID: "w1", Protocol: "http", Host: "10.0.0.4:8080", Status: resource.WorkerUp}},
	)
	t.Cleanup(lb.Close)

	client, err := lbclient.New(lb.URL, lbclient.Options{Logger: log})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	st := store.New(log)
	svc := service.NewConsoleService(log, client, st, nil, notify.NewFeed(log), metrics.New(), service.Options{ToggleMode: patch.ToggleMerge})
	loop := syncloop.New(log, client, st, syncloop.Options{Reporter: svc})
	svc.SetRefresher(loop)
	if _, err := loop.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}

	r := gin.New()
	NewConsoleHandler(log, svc).Register(r)
	return &fixture{router: r, lb: lb, svc: svc}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Message
}

func TestPing(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/ping", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestHealthRelaysBackend(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var h lbclient.Health
	json.Unmarshal(w.Body.Bytes(), &h)
	if h.Streams != 1 || h.Workers != 1 {
		t.Fatalf("unexpected health %+v", h)
	}
}

func TestHealthBackendDown(t *testing.T) {
	f := newFixture(t)
	f.lb.Close()
	if w := f.do(http.MethodGet, "/api/health", ""); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestListStreams(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/streams", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Total-Count"); got != "1" {
		t.Fatalf("expected X-Total-Count 1, got %q", got)
	}
}

func TestGetStream(t *testing.T) {
	f := newFixture(t)
	if w := f.do(http.MethodGet, "/api/streams/s1", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/streams/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/streams/bad.id", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid id, got %d", w.Code)
	}
}

func TestSnapshotAndSummary(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/snapshot", "")
	var snap store.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Seq != 1 || len(snap.Streams) != 1 || len(snap.Workers) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	w = f.do(http.MethodGet, "/api/summary", "")
	var sum store.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Streams != 1 || sum.Outputs != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestCreateAndDeleteStream(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPost, "/api/streams", `{"name":"cam","input":"srt://10.0.0.9:9000","output":[]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var st resource.Stream
	json.Unmarshal(w.Body.Bytes(), &st)
	if loc := w.Header().Get("Location"); loc != "/api/streams/"+st.ID {
		t.Fatalf("unexpected Location %q", loc)
	}
	if _, ok := f.svc.Store().Stream(st.ID); !ok {
		t.Fatal("expected the new stream in the snapshot after refresh")
	}

	if w := f.do(http.MethodDelete, "/api/streams/"+st.ID, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := f.do(http.MethodDelete, "/api/streams/"+st.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestCreateStreamBadBody(t *testing.T) {
	f := newFixture(t)
	if w := f.do(http.MethodPost, "/api/streams", `{"name":"cam","bogus":1}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", w.Code)
	}
	if w := f.do(http.MethodPost, "/api/streams", `{"name":"","input":"in.mp4"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", w.Code)
	}
}

func TestSessionCommitFlow(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/streams/s1/session", "")
	if w.Code != http.StatusOK {
		t.Fatalf("begin: expected 200, got %d", w.Code)
	}

	w = f.do(http.MethodPost, "/api/streams/s1/session/actions",
		`{"type":"upsert_output","output":{"id":"o1","uri":"rtmp://a","codec":"H265"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("stage: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var view struct {
		Dirty   bool            `json:"dirty"`
		Changed []string        `json:"changed"`
		Preview resource.Stream `json:"preview"`
	}
	json.Unmarshal(w.Body.Bytes(), &view)
	if !view.Dirty || len(view.Changed) != 1 || view.Changed[0] != "output" {
		t.Fatalf("unexpected session view %s", w.Body.String())
	}
	if view.Preview.Output[0].Codec != resource.H265 {
		t.Fatalf("expected preview codec H265, got %s", view.Preview.Output[0].Codec)
	}

	w = f.do(http.MethodPost, "/api/streams/s1/session/commit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("commit: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := f.lb.Patches()[0]; !strings.Contains(body, `"codec":"H265"`) || strings.Contains(body, `"input"`) {
		t.Fatalf("unexpected patch body %s", body)
	}
	if w := f.do(http.MethodGet, "/api/streams/s1/session", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected session gone after commit, got %d", w.Code)
	}
}

func TestStageBatchOfActions(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/streams/s1/session", "")

	w := f.do(http.MethodPost, "/api/streams/s1/session/actions",
		`[{"type":"edit_input"},{"type":"input_changed","uri":"srt://10.0.0.9:9000"},{"type":"toggle_enabled","enabled":false}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	sess, _ := f.svc.Session("s1")
	doc := sess.Document()
	if doc.Input.Get() != "srt://10.0.0.9:9000" || !doc.Enabled.IsSet() || doc.Enabled.Get() {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestStageRejectsBadActions(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/streams/s1/session", "")

	cases := map[string]string{
		"unknown type":    `{"type":"explode"}`,
		"missing type":    `{"id":"o1"}`,
		"missing field":   `{"type":"toggle_enabled"}`,
		"foreign field":   `{"type":"cancel_input","uri":"x"}`,
		"unknown key":     `{"type":"cancel_input","bogus":true}`,
		"invalid codec":   `{"type":"upsert_output","output":{"uri":"rtmp://a","codec":"VP9"}}`,
		"empty batch":     `[]`,
		"invalid input":   `{"type":"input_changed","uri":""}`,
		"trailing values": `{"type":"cancel_input"}{}`,
	}
	for name, body := range cases {
		if w := f.do(http.MethodPost, "/api/streams/s1/session/actions", body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", name, w.Code, w.Body.String())
		}
	}
	sess, _ := f.svc.Session("s1")
	if sess.Dirty() {
		t.Fatal("expected rejected actions to leave the session clean")
	}
}

func TestStageWithoutSession(t *testing.T) {
	f := newFixture(t)
	if w := f.do(http.MethodPost, "/api/streams/s1/session/actions", `{"type":"edit_input"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCommitRejectionKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/streams/s1/session", "")
	f.do(http.MethodPost, "/api/streams/s1/session/actions", `{"type":"toggle_enabled","enabled":false}`)

	f.lb.RejectNext(http.MethodPatch, "/stream/s1", http.StatusUnprocessableEntity)
	w := f.do(http.MethodPost, "/api/streams/s1/session/commit", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if got := message(t, w); got != "rejected by test: 422" {
		t.Fatalf("expected backend message, got %q", got)
	}

	sess, err := f.svc.Session("s1")
	if err != nil || !sess.Dirty() {
		t.Fatalf("expected dirty session kept, got %v", err)
	}
	if w := f.do(http.MethodPost, "/api/streams/s1/session/commit", ""); w.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d", w.Code)
	}
}

func TestCommitTransportFailure(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/streams/s1/session", "")
	f.lb.Close()
	if w := f.do(http.MethodPost, "/api/streams/s1/session/commit", ""); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if _, err := f.svc.Session("s1"); err != nil {
		t.Fatalf("expected session kept, got %v", err)
	}
}

func TestDiscardSession(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/streams/s1/session", "")
	if w := f.do(http.MethodDelete, "/api/streams/s1/session", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := f.do(http.MethodDelete, "/api/streams/s1/session", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if n := len(f.lb.Patches()); n != 0 {
		t.Fatalf("expected nothing transmitted, got %d patches", n)
	}
}

func TestTopologyPreview(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/streams/s1/session", "")
	f.do(http.MethodPost, "/api/streams/s1/session/actions", `{"type":"upsert_output","output":{"uri":"srt://10.0.0.7:9000","codec":"H264"}}`)

	var live, preview topology.Graph
	json.Unmarshal(f.do(http.MethodGet, "/api/streams/s1/topology", "").Body.Bytes(), &live)
	json.Unmarshal(f.do(http.MethodGet, "/api/streams/s1/topology?preview=true", "").Body.Bytes(), &preview)

	if len(live.Nodes) != 3 {
		t.Fatalf("expected 3 live nodes, got %d", len(live.Nodes))
	}
	if len(preview.Nodes) != 4 {
		t.Fatalf("expected 4 preview nodes, got %d", len(preview.Nodes))
	}
	if w := f.do(http.MethodGet, "/api/streams/nope/topology", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestWorkers(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/workers", `{"host":"10.0.0.5:8080"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var wk resource.Worker
	json.Unmarshal(w.Body.Bytes(), &wk)

	w = f.do(http.MethodPost, "/api/workers", `{"host":"10.0.0.5:8080"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duplicate host, got %d", w.Code)
	}
	if got := message(t, w); !strings.Contains(got, "already exists") {
		t.Fatalf("expected backend message, got %q", got)
	}

	if w := f.do(http.MethodPost, "/api/workers", `{"host":"bad host"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid host, got %d", w.Code)
	}

	w = f.do(http.MethodPatch, "/api/workers/"+wk.ID, `{"public_ip":"203.0.113.7"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := f.do(http.MethodPatch, "/api/workers/"+wk.ID, `{"host":null}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for null host, got %d", w.Code)
	}

	w = f.do(http.MethodGet, "/api/workers", "")
	if got := w.Header().Get("X-Total-Count"); got != "2" {
		t.Fatalf("expected 2 workers, got %q", got)
	}

	if w := f.do(http.MethodDelete, "/api/workers/"+wk.ID, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestNotices(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/workers", `{"host":"10.0.0.5:8080"}`)
	f.do(http.MethodPost, "/api/workers", `{"host":"10.0.0.5:8080"}`)

	w := f.do(http.MethodGet, "/api/notices", "")
	var recent []notify.Notice
	json.Unmarshal(w.Body.Bytes(), &recent)
	if len(recent) != 2 || recent[0].Level != notify.LevelError || recent[1].Level != notify.LevelSuccess {
		t.Fatalf("unexpected notices %+v", recent)
	}
	if got := w.Header().Get("X-Last-Seq"); got != "2" {
		t.Fatalf("expected X-Last-Seq 2, got %q", got)
	}

	w = f.do(http.MethodGet, "/api/notices?since=1", "")
	var since []notify.Notice
	json.Unmarshal(w.Body.Bytes(), &since)
	if len(since) != 1 || since[0].Seq != 2 {
		t.Fatalf("unexpected notices since 1: %+v", since)
	}

	if w := f.do(http.MethodGet, "/api/notices?since=x", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestParseURL(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPost, "/api/url/parse", `{"url":"srt://10.0.0.9:9000","role":"output"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"port":"9000"`) {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
	if w := f.do(http.MethodPost, "/api/url/parse", `{"url":"srt://10.0.0.9:99999"}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if w := f.do(http.MethodPost, "/api/url/parse", `{"url":"a","role":"both"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestEventsStreamsSnapshots(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event stream, got %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var sawEvent bool
	for sc.Scan() {
		line := sc.Text()
		if line == "event:snapshot" {
			sawEvent = true
			continue
		}
		if sawEvent && strings.HasPrefix(line, "data:") {
			if !strings.Contains(line, `"seq":1`) {
				t.Fatalf("expected the current snapshot first, got %s", line)
			}
			return
		}
	}
	t.Fatalf("no snapshot event received: %v", sc.Err())
}
