package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/edirooss/gasket-console/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireValidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x/:id", RequireValidID(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for id, want := range map[string]int{
		"s1":                    http.StatusOK,
		"0b5e-44_aa":            http.StatusOK,
		"a.b":                   http.StatusBadRequest,
		"%20":                   http.StatusBadRequest,
		strings.Repeat("a", 65): http.StatusBadRequest,
	} {
		if w := serve(r, http.MethodGet, "/x/"+id, nil); w.Code != want {
			t.Fatalf("id %q: expected %d, got %d", id, want, w.Code)
		}
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = GetRequestID(c) })

	w := serve(r, http.MethodGet, "/", nil)
	if got := w.Header().Get("X-Request-ID"); got == "" || got != seen {
		t.Fatalf("expected generated id echoed, got %q vs %q", got, seen)
	}

	w = serve(r, http.MethodGet, "/", http.Header{"X-Request-Id": {"abc"}})
	if got := w.Header().Get("X-Request-ID"); got != "abc" {
		t.Fatalf("expected %q, got %q", "abc", got)
	}
}

func TestLimitConcurrentRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	entered := make(chan struct{})
	release := make(chan struct{})
	r.GET("/", LimitConcurrentRequests(1), func(c *gin.Context) {
		entered <- struct{}{}
		<-release
		c.Status(http.StatusOK)
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var first int
	go func() {
		defer wg.Done()
		first = serve(r, http.MethodGet, "/", nil).Code
	}()
	<-entered

	if w := serve(r, http.MethodGet, "/", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	close(release)
	wg.Wait()
	if first != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", first)
	}
}

func TestMetricsCountsByClass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	serve(r, http.MethodGet, "/ok", nil)
	serve(r, http.MethodGet, "/ok", nil)
	serve(r, http.MethodGet, "/bad", nil)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	for _, want := range []string{
		`gasket_console_http_requests_total{code="2xx",method="GET"} 2`,
		`gasket_console_http_requests_total{code="4xx",method="GET"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in exposition", want)
		}
	}
}

func TestMaxBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MaxBody(4))
	r.POST("/", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestAccessLogPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zaptest.NewLogger(t)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	if w := serve(r, http.MethodGet, "/", nil); w.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", w.Code)
	}
}
