package lbclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/patch"
	"github.com/edirooss/gasket-console/pkg/hostutil"
	"github.com/edirooss/gasket-console/pkg/jsonx"
)

// WorkerCreate is the POST /worker body. Protocol defaults to http server side.
type WorkerCreate = resource.WorkerSpec

// StreamCreate is the POST /stream body.
type StreamCreate = resource.StreamSpec

// WorkerPatch is a merge patch for a worker; only set keys are sent and a
// null PublicIP clears it.
type WorkerPatch struct {
	Protocol jsonx.Field[string] `json:"protocol,omitzero"`
	Host     jsonx.Field[string] `json:"host,omitzero"`
	PublicIP jsonx.Field[string] `json:"public_ip,omitzero"`
}

// Validate rejects null for non-nullable keys and malformed values.
func (p WorkerPatch) Validate() error {
	if !p.Protocol.IsSet() && !p.Host.IsSet() && !p.PublicIP.IsSet() {
		return errors.New("empty patch")
	}
	if p.Protocol.IsSet() {
		if p.Protocol.IsNull() {
			return errors.New("protocol cannot be null")
		}
		if v := p.Protocol.Get(); v != "http" && v != "https" {
			return fmt.Errorf("unsupported protocol %q", v)
		}
	}
	if p.Host.IsSet() {
		if p.Host.IsNull() {
			return errors.New("host cannot be null")
		}
		if err := hostutil.ValidateHostPort(p.Host.Get()); err != nil {
			return fmt.Errorf("invalid host: %w", err)
		}
	}
	if p.PublicIP.IsSet() && !p.PublicIP.IsNull() {
		if err := hostutil.ValidateHost(p.PublicIP.Get()); err != nil {
			return fmt.Errorf("invalid public_ip: %w", err)
		}
	}
	return nil
}

func (c *Client) ListWorkers(ctx context.Context) ([]resource.Worker, error) {
	var ws []resource.Worker
	if err := c.do(ctx, "list workers", http.MethodGet, c.endpoint("worker"), nil, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (c *Client) GetWorker(ctx context.Context, id string) (resource.Worker, error) {
	var w resource.Worker
	if err := c.do(ctx, "get worker", http.MethodGet, c.endpoint("worker", id), nil, &w); err != nil {
		return resource.Worker{}, err
	}
	return w, nil
}

func (c *Client) CreateWorker(ctx context.Context, in WorkerCreate) (resource.Worker, error) {
	var w resource.Worker
	if err := c.do(ctx, "create worker", http.MethodPost, c.endpoint("worker"), in, &w); err != nil {
		return resource.Worker{}, err
	}
	return w, nil
}

func (c *Client) PatchWorker(ctx context.Context, id string, p WorkerPatch) (resource.Worker, error) {
	var w resource.Worker
	if err := c.do(ctx, "patch worker", http.MethodPatch, c.endpoint("worker", id), p, &w); err != nil {
		return resource.Worker{}, err
	}
	return w, nil
}

func (c *Client) DeleteWorker(ctx context.Context, id string) error {
	return c.do(ctx, "delete worker", http.MethodDelete, c.endpoint("worker", id), nil, nil)
}

func (c *Client) ListStreams(ctx context.Context) ([]resource.Stream, error) {
	var ss []resource.Stream
	if err := c.do(ctx, "list streams", http.MethodGet, c.endpoint("stream"), nil, &ss); err != nil {
		return nil, err
	}
	return ss, nil
}

func (c *Client) GetStream(ctx context.Context, id string) (resource.Stream, error) {
	var s resource.Stream
	if err := c.do(ctx, "get stream", http.MethodGet, c.endpoint("stream", id), nil, &s); err != nil {
		return resource.Stream{}, err
	}
	return s, nil
}

func (c *Client) CreateStream(ctx context.Context, in StreamCreate) (resource.Stream, error) {
	var s resource.Stream
	if err := c.do(ctx, "create stream", http.MethodPost, c.endpoint("stream"), in, &s); err != nil {
		return resource.Stream{}, err
	}
	return s, nil
}

// PatchStream sends a merge patch document and returns the merged stream.
func (c *Client) PatchStream(ctx context.Context, id string, doc patch.Document) (resource.Stream, error) {
	var s resource.Stream
	if err := c.do(ctx, "patch stream", http.MethodPatch, c.endpoint("stream", id), doc, &s); err != nil {
		return resource.Stream{}, err
	}
	return s, nil
}

func (c *Client) DeleteStream(ctx context.Context, id string) error {
	return c.do(ctx, "delete stream", http.MethodDelete, c.endpoint("stream", id), nil, nil)
}
