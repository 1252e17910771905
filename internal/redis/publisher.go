package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edirooss/gasket-console/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrNoSnapshot = errors.New("no snapshot published")

const (
	defaultChannel = "gasket:console:snapshots"
	latestSuffix   = ":latest"
)

type PublisherOptions struct {
	// Channel is the pub/sub channel; the latest payload is also stored at
	// Channel+":latest" for late joiners.
	Channel string
	// TTL of the latest key; default 30s so a dead console stops advertising.
	TTL time.Duration
	// Timeout bounds one publish; default 1s.
	Timeout time.Duration
}

func (o *PublisherOptions) setDefaults() {
	if o.Channel == "" {
		o.Channel = defaultChannel
	}
	if o.TTL <= 0 {
		o.TTL = 30 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Second
	}
}

// Publisher fans installed snapshots out to other processes.
type Publisher struct {
	client *Client
	log    *zap.Logger
	opts   PublisherOptions
}

func NewPublisher(log *zap.Logger, client *Client, opts PublisherOptions) *Publisher {
	opts.setDefaults()
	return &Publisher{
		client: client,
		log:    log.Named("snapshot_publisher"),
		opts:   opts,
	}
}

func (p *Publisher) Channel() string   { return p.opts.Channel }
func (p *Publisher) LatestKey() string { return p.opts.Channel + latestSuffix }

// Publish stores snap as the latest payload and announces it on the channel,
// in one transaction.
func (p *Publisher) Publish(ctx context.Context, snap *store.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.LatestKey(), payload, p.opts.TTL)
	pipe.Publish(ctx, p.opts.Channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Latest returns the most recently published snapshot.
// Returns ErrNoSnapshot if none is stored (or it expired).
func (p *Publisher) Latest(ctx context.Context) (*store.Snapshot, error) {
	raw, err := p.client.Get(ctx, p.LatestKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("get: %w", err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &snap, nil
}

// Run publishes every snapshot installed into st until ctx is done. A slow
// Redis only ever sees the newest snapshot; failures are logged and skipped.
func (p *Publisher) Run(ctx context.Context, st *store.Store) {
	p.log.Info("publishing snapshots", zap.String("channel", p.opts.Channel))
	for snap := range st.Watch(ctx) {
		if snap.Seq == 0 {
			continue // nothing fetched yet
		}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.Timeout)
		err := p.Publish(pctx, snap)
		cancel()
		if err != nil {
			p.log.Warn("publish failed", zap.Uint64("seq", snap.Seq), zap.Error(err))
			continue
		}
		p.log.Debug("snapshot published", zap.Uint64("seq", snap.Seq))
	}
}
