package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edirooss/gasket-console/internal/config"
	"github.com/edirooss/gasket-console/internal/http/handler"
	mw "github.com/edirooss/gasket-console/internal/http/middleware"
	"github.com/edirooss/gasket-console/internal/lbclient"
	"github.com/edirooss/gasket-console/internal/metrics"
	"github.com/edirooss/gasket-console/internal/notify"
	"github.com/edirooss/gasket-console/internal/redis"
	"github.com/edirooss/gasket-console/internal/service"
	"github.com/edirooss/gasket-console/internal/store"
	"github.com/edirooss/gasket-console/internal/syncloop"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var configPath string

func init() {
	// Handle version display and flags
	handleFlags()
}

func main() {
	// Read env
	isDev := os.Getenv("ENV") == "dev"

	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	mode, _ := cfg.ToggleMode() // validated by Load

	// Create Zap logger
	log := buildLogger()
	defer log.Sync()
	log = log.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Core: client -> store <- sync loop, service on top
	client, err := lbclient.New(cfg.APIURL, lbclient.Options{Timeout: cfg.PollTimeout, Logger: log})
	if err != nil {
		log.Fatal("load balancer client creation failed", zap.Error(err))
	}
	m := metrics.New()
	st := store.New(log)
	svc := service.NewConsoleService(log, client, st, nil, notify.NewFeed(log), m, service.Options{ToggleMode: mode})
	loop := syncloop.New(log, client, st, syncloop.Options{
		Interval: cfg.PollInterval,
		Timeout:  cfg.PollTimeout,
		Reporter: svc,
	})
	svc.SetRefresher(loop)

	if err := loop.Start(ctx); err != nil {
		log.Fatal("sync loop start failed", zap.Error(err))
	}
	defer loop.Stop()

	// Optional: fan snapshots out over Redis
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(cfg.RedisAddress, 0, log)
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			log.Warn("redis unavailable at startup; publishing anyway", zap.Error(err))
		}
		pub := redis.NewPublisher(log, rdb, redis.PublisherOptions{Channel: cfg.RedisChannel})
		go pub.Run(ctx, st)
	}

	// Create Gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer() // Configure Gin's logger to use Zap
	r := gin.New()

	// Apply Gin middlewares
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID()) // Attach request ID for tracing; early in the chain so it's available everywhere

		if isDev { // Enable CORS for local Vite dev
			r.Use(cors.New(cors.Config{
				AllowOrigins:  cfg.AllowedOrigins,
				AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
				AllowHeaders:  []string{"X-Request-ID", "Content-Type"},
				ExposeHeaders: []string{"X-Request-ID", "X-Total-Count", "X-Last-Seq", "Location"},
				MaxAge:        12 * time.Hour,
			}))
		} else { // Behind Nginx + TLS
			r.SetTrustedProxies([]string{"127.0.0.1"})
			r.Use(secure.New(secure.Config{
				SSLProxyHeaders: map[string]string{
					"X-Forwarded-Proto": "https",
				},
				ContentTypeNosniff: true,
				FrameDeny:          true,
			}))
		}

		r.Use(mw.AccessLog(log.Named("access"))) // Observability
		r.Use(mw.Metrics(m))
		r.Use(mw.MaxBody(10 << 20)) // hard 10MB cap on request bodies
	}

	// Register route handlers
	handler.NewConsoleHandler(log, svc).Register(r)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	httpsrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,  // kills header-drip Slowloris
		ReadTimeout:       10 * time.Second, // full request read (incl. body)
		IdleTimeout:       60 * time.Second, // keep-alive cap
		MaxHeaderBytes:    1 << 20,          // 1MB cap
		// No WriteTimeout: /api/events is a long-lived stream.
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpsrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("running HTTP server",
		zap.String("addr", httpsrv.Addr),
		zap.String("api_url", client.BaseURL()),
		zap.String("enabled_toggle", mode.String()),
	)
	if err := httpsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server closed")
}

// handleFlags parses -config and prints build metadata and exits when
// -v/--version is provided.
func handleFlags() {
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	flag.StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	if *v {
		fmt.Printf("gasket-console %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
}

// helpers

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}
