package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/edirooss/gasket-console/internal/domain/resource"
	"github.com/edirooss/gasket-console/internal/lbclient"
	"github.com/edirooss/gasket-console/internal/topology"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	api      string
	kind     string
	ids      []string
	all      bool
	dryRun   bool
	topology string
	debug    bool
}

func main() {
	// CLI flags
	var opts options
	var ids string
	flag.StringVar(&opts.api, "api", "http://127.0.0.1:3000", "gasket-lb base URL")
	flag.StringVar(&opts.kind, "kind", "stream", "resource kind to delete: stream|worker")
	flag.StringVar(&ids, "ids", "", "comma-separated ids to delete")
	flag.BoolVar(&opts.all, "all", false, "delete every resource of -kind")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "log what would be deleted without deleting")
	flag.StringVar(&opts.topology, "topology", "", "print the topology of the stream with this id as JSON and exit")
	flag.BoolVar(&opts.debug, "debug", false, "dump error chains")
	flag.Parse()
	opts.ids = splitIDs(ids)

	if opts.topology == "" && (opts.all == (len(opts.ids) > 0) || (opts.kind != "stream" && opts.kind != "worker")) {
		fmt.Println("Usage: ./gasketctl -api=<url> -kind=stream|worker (-ids=a,b,c | -all) [-dry-run]")
		fmt.Println("       ./gasketctl -api=<url> -topology=<stream_id>")
		os.Exit(1)
	}

	log := buildLogger()
	log = log.Named("main")

	client, err := lbclient.New(opts.api, lbclient.Options{Logger: log})
	if err == nil {
		err = run(context.Background(), log, client, opts, os.Stdout)
	}
	if err != nil {
		if opts.debug {
			printErrChainDebug(os.Stderr, err)
		} else {
			printErrChain(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// lbAPI is the part of lbclient.Client the CLI drives.
type lbAPI interface {
	ListStreams(ctx context.Context) ([]resource.Stream, error)
	ListWorkers(ctx context.Context) ([]resource.Worker, error)
	GetStream(ctx context.Context, id string) (resource.Stream, error)
	DeleteStream(ctx context.Context, id string) error
	DeleteWorker(ctx context.Context, id string) error
}

func run(ctx context.Context, log *zap.Logger, c lbAPI, opts options, out io.Writer) error {
	if opts.topology != "" {
		return printTopology(ctx, c, opts.topology, out)
	}

	ids := opts.ids
	if opts.all {
		var err error
		if ids, err = listIDs(ctx, c, opts.kind); err != nil {
			return err
		}
	}

	// worker id -> routed outputs, for the progress log
	routed := map[string]int{}
	if opts.kind == "worker" {
		streams, err := c.ListStreams(ctx)
		if err != nil {
			return fmt.Errorf("list streams: %w", err)
		}
		for _, st := range streams {
			for _, o := range st.Output {
				if w := o.WorkerID(); w != "" {
					routed[w]++
				}
			}
		}
	}

	total := len(ids)
	for idx, id := range ids {
		iterStart := time.Now()
		fields := []zap.Field{
			zap.String("kind", opts.kind),
			zap.String("id", id),
			zap.Int("deleted", idx+1),
			zap.Int("total", total),
		}
		if opts.kind == "worker" {
			fields = append(fields, zap.Int("routed_outputs", routed[id]))
		}

		if opts.dryRun {
			log.Info("would delete", fields...)
			continue
		}

		var err error
		if opts.kind == "worker" {
			err = c.DeleteWorker(ctx, id)
		} else {
			err = c.DeleteStream(ctx, id)
		}
		if err != nil {
			if lbclient.IsNotFound(err) {
				log.Warn("already gone", fields...)
				continue
			}
			return fmt.Errorf("delete %s %s: %w", opts.kind, id, err)
		}

		log.Info(opts.kind+" deleted", append(fields, zap.Duration("took", time.Since(iterStart)))...)
	}
	return nil
}

func listIDs(ctx context.Context, c lbAPI, kind string) ([]string, error) {
	var ids []string
	switch kind {
	case "worker":
		ws, err := c.ListWorkers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list workers: %w", err)
		}
		for _, w := range ws {
			ids = append(ids, w.ID)
		}
	case "stream":
		ss, err := c.ListStreams(ctx)
		if err != nil {
			return nil, fmt.Errorf("list streams: %w", err)
		}
		for _, s := range ss {
			ids = append(ids, s.ID)
		}
	default:
		return nil, errors.New("unknown kind " + kind)
	}
	return ids, nil
}

func printTopology(ctx context.Context, c lbAPI, streamID string, out io.Writer) error {
	st, err := c.GetStream(ctx, streamID)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}
	workers, err := c.ListWorkers(ctx)
	if err != nil {
		return fmt.Errorf("list workers: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(topology.Build(st, workers))
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}
