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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netsentry/netsentry/internal/alerts"
	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/dashboard"
	"github.com/netsentry/netsentry/internal/health"
	"github.com/netsentry/netsentry/internal/repo"
	"github.com/netsentry/netsentry/internal/scraper"
	"github.com/netsentry/netsentry/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("netsentry-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"repository", cfg.Server.Repository.Backend,
		"auth_mode", cfg.Server.Auth.Mode,
		"dedup_window", cfg.Server.Alerts.DedupWindow,
		"scrape_enabled", cfg.Server.Scrape.Enabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Device repository.
	var deviceRepo repo.Repository
	switch cfg.Server.Repository.Backend {
	case "sqlite":
		db, err := repo.OpenSQLite(cfg.Server.Repository.Path)
		if err != nil {
			slog.Error("failed to open sqlite repository", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		deviceRepo = db
	default:
		deviceRepo = repo.NewMemory()
	}

	// Optional Redis-backed emission guard for multi-instance deployments.
	var guard *alerts.RedisGuard
	if addr := cfg.Server.Alerts.RedisAddr(); addr != "" {
		guard = alerts.NewRedisGuard(addr)
		defer guard.Close()
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := guard.Ping(pingCtx); err != nil {
			slog.Warn("redis dedup guard unreachable, continuing with local dedup only",
				"addr", addr, "err", err)
		} else {
			slog.Info("redis dedup guard connected", "addr", addr)
		}
		pingCancel()
	}

	// Scoring pipeline: history + emitter + aggregator.
	history := health.NewHistory()
	emitter := alerts.NewEmitter(deviceRepo, cfg.Server.Alerts, guard)
	agg := dashboard.New(deviceRepo, history, emitter, cfg.Server.Evaluation.Timeout)

	// Device metrics poller.
	var poller *scraper.Poller
	if cfg.Server.Scrape.Enabled {
		poller = scraper.NewPoller(deviceRepo, cfg.Server.Scrape)
		go poller.Run(ctx)
		slog.Info("device poller started", "interval", cfg.Server.Scrape.Interval)
	}

	// Hot reload of tunable settings.
	go func() {
		err := config.Watch(ctx, *configPath, func(next *config.Config) {
			emitter.Reconfigure(next.Server.Alerts)
			agg.SetTimeout(next.Server.Evaluation.Timeout)
			if poller != nil {
				poller.Reconfigure(next.Server.Scrape)
			}
		})
		if err != nil {
			slog.Error("config watch stopped", "err", err)
		}
	}()

	// WebSocket hub; each broadcast tick runs one evaluation.
	hub := ws.New(agg, cfg.Server.Evaluation.BroadcastInterval)
	go hub.Run(ctx)

	api := dashboard.APIKeyMiddleware(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
		dashboard.NewHandler(agg, deviceRepo),
	)

	mux := http.NewServeMux()
	mux.Handle("/api/", api)
	mux.Handle("/ws/stream", hub)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "err", err)
	}
}
