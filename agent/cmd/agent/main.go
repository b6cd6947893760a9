package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/barocast/barocast/agent/internal/config"
	"github.com/barocast/barocast/agent/internal/scheduler"
	"github.com/barocast/barocast/agent/internal/sensor"
	"github.com/barocast/barocast/agent/internal/shipper"
	"github.com/barocast/barocast/agent/internal/station"
)

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

	slog.Info("barocast-agent starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Agent.Level())
	slog.Info("config loaded",
		"server_endpoint", cfg.Agent.ServerEndpoint,
		"stations", len(cfg.Agent.Stations),
		"sample_interval", cfg.Agent.SampleInterval,
		"units", cfg.Agent.Units,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Hot-reload updates the log level only; stations keep their engines.
	go func() {
		apply := config.ApplyLogLevel(&level)
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			apply(updated)
			slog.Info("config hot-reloaded", "log_level", updated.Agent.LogLevel)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	var stations []*station.Station
	for _, st := range cfg.Agent.Stations {
		src, err := sensor.New(st)
		if err != nil {
			slog.Error("skipping station: could not build source", "station", st.ID, "err", err)
			continue
		}
		stations = append(stations, station.New(st, src, cfg.Agent.Metric()))
		slog.Info("registered station",
			"id", st.ID,
			"type", st.Source.Type,
			"altitude_m", st.AltitudeM,
			"sea_level", st.Source.SeaLevel,
		)
	}
	if len(stations) == 0 {
		slog.Warn("no stations configured: agent will idle")
	}

	ship := shipper.New(cfg.Agent)
	go ship.Run(ctx)

	sched := scheduler.New(stations, ship, cfg.Agent.SampleInterval)
	if err := sched.Start(ctx); err != nil {
		slog.Error("failed to start scheduler", "err", err)
		os.Exit(1)
	}

	<-ctx.Done()
	sched.Stop()
	slog.Info("barocast-agent shutting down", "pending_reports", ship.Pending())
}
