// Package scheduler drives the station tick. Every sample_interval it samples
// each station in turn and hands the reports to an emitter.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/barocast/barocast/agent/internal/station"
)

// sampleTimeout bounds one full tick across all stations.
const sampleTimeout = 30 * time.Second

// Scheduler periodically samples the configured stations.
type Scheduler struct {
	cron     *gocron.Scheduler
	stations []*station.Station
	emit     station.Emitter
	interval time.Duration
}

// New creates a Scheduler. Ticks never overlap: a slow tick delays the next
// one rather than running concurrently with it.
func New(stations []*station.Station, emit station.Emitter, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		cron:     s,
		stations: stations,
		emit:     emit,
		interval: interval,
	}
}

// Start schedules the tick job and starts the underlying scheduler. The
// first tick runs immediately. Ticks stop when ctx is cancelled or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.stations) == 0 {
		slog.Warn("scheduler: no stations configured; nothing to schedule")
		return nil
	}

	_, err := s.cron.Every(s.interval).Do(func() {
		if ctx.Err() != nil {
			return
		}
		tickCtx, cancel := context.WithTimeout(ctx, sampleTimeout)
		defer cancel()
		s.RunOnce(tickCtx, time.Now())
	})
	if err != nil {
		return fmt.Errorf("scheduler: schedule tick: %w", err)
	}

	s.cron.StartAsync()
	slog.Info("scheduler: started", "stations", len(s.stations), "interval", s.interval)
	return nil
}

// RunOnce samples every station once, in order, and emits the reports.
// It returns the number of reports emitted.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) int {
	n := 0
	for _, st := range s.stations {
		if ctx.Err() != nil {
			break
		}
		s.emit.Ship(st.Sample(ctx, now))
		n++
	}
	slog.Debug("scheduler: tick complete", "reports", n)
	return n
}

// Stop stops the scheduler and cancels any future ticks.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
