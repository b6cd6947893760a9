package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/barocast/barocast/server/internal/alerts"
	"github.com/barocast/barocast/server/internal/api"
	"github.com/barocast/barocast/server/internal/auth"
	"github.com/barocast/barocast/server/internal/config"
	"github.com/barocast/barocast/server/internal/metrics"
	"github.com/barocast/barocast/server/internal/receiver"
	"github.com/barocast/barocast/server/internal/store"
	"github.com/barocast/barocast/server/internal/ws"
)

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Secrets referenced by *_env keys may live in a local .env file.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "err", err)
	}

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	slog.Info("barocast-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Server.Level())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"snapshot_ttl", cfg.Server.Snapshot.TTL,
		"history_max_entries", cfg.Server.History.MaxEntries,
		"alert_rules", len(cfg.Server.Alerts.Rules),
	)
	if cfg.Server.Auth.Mode == "apikey" && cfg.Server.Auth.Key() == "" {
		slog.Warn("auth mode is apikey but no key is set; requests are not authenticated",
			"key_env", cfg.Server.Auth.KeyEnv)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Report store with background TTL eviction.
	st := store.New(cfg.Server.Snapshot.TTL, cfg.Server.History.MaxEntries)
	go st.Run(ctx)

	// Alerts engine: evaluates rules on every incoming report.
	alertEngine := alerts.New(cfg.Server.Alerts)

	// WebSocket hub: broadcasts snapshots to UI clients every 5 seconds and
	// pushes forecast transitions as they arrive.
	hub := ws.New(st, alertEngine, 5*time.Second)
	go hub.Run(ctx)

	rc := receiver.New(st, alertEngine)
	rc.OnTransition(hub.Publish)

	requireKey := auth.APIKeyMiddleware(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)

	// One HTTP server: report intake, REST API, metrics and WebSocket hub.
	// The more specific /api/v1/reports pattern wins over /api/.
	mux := http.NewServeMux()
	mux.Handle("/api/v1/reports", requireKey(rc))
	mux.Handle("/api/", requireKey(api.New(st, alertEngine)))
	mux.Handle("/metrics", metrics.New(st, alertEngine))
	mux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("barocast-server shutting down",
		"stations", st.Count(),
		"firing_alerts", alertEngine.Firing(),
	)
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}
