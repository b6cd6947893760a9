package station

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/barocast/barocast/agent/internal/config"
	"github.com/barocast/barocast/agent/internal/forecast"
	"github.com/barocast/barocast/agent/internal/sensor"
	"github.com/barocast/barocast/pkg/types"
)

// Emitter receives the reports produced by stations.
// *shipper.Shipper satisfies it.
type Emitter interface {
	Ship(*types.Report)
}

// Station samples one barometric source.
type Station struct {
	cfg    config.Station
	src    sensor.Source
	engine *forecast.Engine
	metric bool

	mu   sync.Mutex
	prev *previous
}

// previous holds the values of the last successful sample.
type previous struct {
	pressure    float64
	temperature *float64
	forecast    forecast.Category
}

// New creates a Station reading from src. metric selects Celsius output.
func New(cfg config.Station, src sensor.Source, metric bool) *Station {
	return &Station{
		cfg:    cfg,
		src:    src,
		engine: forecast.NewEngine(),
		metric: metric,
	}
}

// ID returns the station identifier.
func (s *Station) ID() string { return s.cfg.ID }

// Sample performs one tick and returns the resulting report. now stamps the
// report when the source does not supply a read time.
func (s *Station) Sample(ctx context.Context, now time.Time) *types.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.src.Read(ctx)
	if err != nil {
		return s.errorReport(now, fmt.Errorf("station %q: read: %w", s.cfg.ID, err))
	}
	if r.Err != nil {
		return s.errorReport(now, r.Err)
	}

	p := r.PressureHPa
	if !s.cfg.Source.SeaLevel {
		p = sensor.SeaLevelPressure(p, s.cfg.AltitudeM)
	}
	cat := s.engine.Ingest(p)

	rep := s.baseReport(now)
	if !r.ReadAt.IsZero() {
		rep.Timestamp = r.ReadAt
	}
	rep.PressureHPa = p
	if r.HasTemperature {
		t := r.TemperatureC
		rep.TemperatureUnit = types.UnitCelsius
		if !s.metric {
			t = sensor.CelsiusToFahrenheit(t)
			rep.TemperatureUnit = types.UnitFahrenheit
		}
		rep.Temperature = &t
	}

	rep.Changed = s.diff(p, rep.Temperature, cat)
	s.prev = &previous{pressure: p, temperature: rep.Temperature, forecast: cat}

	slog.Debug("station: sampled",
		"station", s.cfg.ID,
		"tick", rep.Tick,
		"pressure_hpa", p,
		"forecast", rep.Forecast,
		"trend_rate", rep.TrendRate,
	)
	return rep
}

// State returns the engine's current trend state.
func (s *Station) State() forecast.TrendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State()
}

func (s *Station) diff(p float64, t *float64, cat forecast.Category) types.Changes {
	if s.prev == nil {
		return types.Changes{Temperature: true, Pressure: true, Forecast: true}
	}
	return types.Changes{
		Temperature: !sameTemp(s.prev.temperature, t),
		Pressure:    s.prev.pressure != p,
		Forecast:    s.prev.forecast != cat,
	}
}

func sameTemp(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// baseReport fills the identity and engine fields shared by every report.
func (s *Station) baseReport(now time.Time) *types.Report {
	st := s.engine.State()
	last := s.engine.Last()
	return &types.Report{
		ID:              uuid.NewString(),
		StationID:       s.cfg.ID,
		StationName:     s.cfg.Name,
		Timestamp:       now.UTC(),
		Tick:            st.Tick,
		Forecast:        last.String(),
		ForecastCode:    int(last),
		Description:     last.Description(),
		TrendRate:       st.TrendRate,
		FirstCycle:      st.FirstCycle,
		WarmupRemaining: s.engine.WarmupRemaining(),
	}
}

func (s *Station) errorReport(now time.Time, err error) *types.Report {
	slog.Warn("station: read failed, tick skipped", "station", s.cfg.ID, "err", err)
	rep := s.baseReport(now)
	rep.Error = err.Error()
	return rep
}
