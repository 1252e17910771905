// Package lbclient talks to the gasket-lb REST API.
//
// Every failure is classified: *TransportError when no response arrived,
// *RejectionError when the server answered non-2xx.
package lbclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxBodyBytes       = 8 << 20
)

type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration // used when HTTPClient is nil
	Logger     *zap.Logger
}

type Client struct {
	base       *url.URL
	httpClient *http.Client
	log        *zap.Logger
}

// New builds a client for the load balancer at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", baseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{base: u, httpClient: hc, log: log.Named("lbclient")}, nil
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/")
	for _, s := range segments {
		u.Path += "/" + url.PathEscape(s)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// do sends one request. in (if non-nil) is JSON-encoded; out (if non-nil)
// receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, op, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	c.log.Debug("lb call",
		zap.String("op", op),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RejectionError{Op: op, Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Health is the load balancer's root document.
type Health struct {
	Server    string `json:"server"`
	Streams   int    `json:"streams"`
	Workers   int    `json:"workers"`
	StateFile string `json:"state_file"`
}

func (c *Client) HealthCheck(ctx context.Context) (Health, error) {
	var h Health
	if err := c.do(ctx, "health check", http.MethodGet, c.endpoint(), nil, &h); err != nil {
		return Health{}, err
	}
	return h, nil
}
