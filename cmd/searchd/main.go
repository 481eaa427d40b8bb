package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"termcrawl/internal/index"
	"termcrawl/internal/query"
	"termcrawl/pkg/config"
	"termcrawl/pkg/health"
	"termcrawl/pkg/logger"
	"termcrawl/pkg/metrics"
	"termcrawl/pkg/middleware"
	"termcrawl/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	snapshotPath := flag.String("snapshot", "", "index snapshot to serve (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	path := cfg.Index.SnapshotPath
	if *snapshotPath != "" {
		path = *snapshotPath
	}
	store, err := index.LoadFile(path)
	if err != nil {
		slog.Error("failed to load index snapshot", "path", path, "error", err)
		os.Exit(1)
	}
	slog.Info("index snapshot loaded",
		"path", path,
		"terms", len(store.Terms()),
		"postings", store.PostingCount(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if len(store.Terms()) == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "index is empty"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	var cache *query.Cache
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		cache = query.NewCache(client, cfg.Redis)
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := client.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr)
	}

	handler := query.NewHandler(store, cache, cfg.Server)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		handler.WithMetrics(m)
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/search", handler.Search)
	mux.HandleFunc("GET /v1/terms", handler.Terms)
	mux.HandleFunc("GET /v1/cache/stats", handler.CacheStats)
	mux.HandleFunc("POST /v1/cache/invalidate", handler.CacheInvalidate)
	mux.HandleFunc("GET /healthz", checker.LiveHandler())
	mux.HandleFunc("GET /readyz", checker.ReadyHandler())

	var root http.Handler = mux
	if m != nil {
		root = middleware.Metrics(m)(root)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("search server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("search server stopped")
}
