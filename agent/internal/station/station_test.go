package station

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/barocast/barocast/agent/internal/config"
	"github.com/barocast/barocast/agent/internal/sensor"
	"github.com/barocast/barocast/pkg/types"
)

// fakeSource returns readings from a fixed list, then repeats the last one.
type fakeSource struct {
	readings []sensor.Reading
	n        int
	err      error
}

func (f *fakeSource) Read(context.Context) (*sensor.Reading, error) {
	if f.err != nil {
		return nil, f.err
	}
	i := f.n
	if i >= len(f.readings) {
		i = len(f.readings) - 1
	}
	f.n++
	r := f.readings[i]
	return &r, nil
}

func reading(p float64) sensor.Reading {
	return sensor.Reading{StationID: "s1", PressureHPa: p}
}

func readingT(p, c float64) sensor.Reading {
	return sensor.Reading{StationID: "s1", PressureHPa: p, TemperatureC: c, HasTemperature: true}
}

func seaLevelStation() config.Station {
	return config.Station{ID: "s1", Name: "Shed", Source: config.Source{SeaLevel: true}}
}

var t0 = time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

func TestSample_FirstReportAllChanged(t *testing.T) {
	st := New(seaLevelStation(), &fakeSource{readings: []sensor.Reading{readingT(1013, 20)}}, true)

	rep := st.Sample(context.Background(), t0)
	if rep.Error != "" {
		t.Fatalf("unexpected error report: %s", rep.Error)
	}
	if !rep.Changed.Temperature || !rep.Changed.Pressure || !rep.Changed.Forecast {
		t.Errorf("first report Changed = %+v, want all true", rep.Changed)
	}
	if rep.ID == "" || rep.StationID != "s1" || rep.StationName != "Shed" {
		t.Errorf("identity fields: %+v", rep)
	}
	if !rep.Timestamp.Equal(t0) {
		t.Errorf("Timestamp = %v, want %v", rep.Timestamp, t0)
	}
	if rep.Tick != 1 {
		t.Errorf("Tick = %d, want 1", rep.Tick)
	}
	if rep.Forecast != types.ForecastUnknown || rep.ForecastCode != 5 {
		t.Errorf("Forecast = %q (%d), want unknown (5)", rep.Forecast, rep.ForecastCode)
	}
	if rep.WarmupRemaining != 34 {
		t.Errorf("WarmupRemaining = %d, want 34", rep.WarmupRemaining)
	}
	if rep.Temperature == nil || *rep.Temperature != 20 || rep.TemperatureUnit != types.UnitCelsius {
		t.Errorf("temperature = %v %q", rep.Temperature, rep.TemperatureUnit)
	}
}

func TestSample_ChangedFlags(t *testing.T) {
	src := &fakeSource{readings: []sensor.Reading{
		readingT(1013, 20),
		readingT(1013, 20),
		readingT(1014, 20),
		readingT(1014, 21),
		reading(1014),
	}}
	st := New(seaLevelStation(), src, true)

	want := []types.Changes{
		{Temperature: true, Pressure: true, Forecast: true},
		{},
		{Pressure: true},
		{Temperature: true},
		{Temperature: true},
	}
	for i, w := range want {
		rep := st.Sample(context.Background(), t0.Add(time.Duration(i)*time.Minute))
		if rep.Changed != w {
			t.Errorf("sample %d: Changed = %+v, want %+v", i, rep.Changed, w)
		}
	}
}

func TestSample_ForecastChangeFlag(t *testing.T) {
	// Constant pressure: unknown during warm-up, stable from tick 35.
	st := New(seaLevelStation(), &fakeSource{readings: []sensor.Reading{reading(1000)}}, true)

	for i := 1; i <= 35; i++ {
		rep := st.Sample(context.Background(), t0)
		switch {
		case i == 35:
			if rep.Forecast != types.ForecastStable || !rep.Changed.Forecast {
				t.Errorf("tick 35: forecast=%q changed=%v, want stable/true", rep.Forecast, rep.Changed.Forecast)
			}
			if rep.WarmupRemaining != 0 {
				t.Errorf("tick 35: WarmupRemaining = %d", rep.WarmupRemaining)
			}
		case i > 1 && rep.Changed.Forecast:
			t.Errorf("tick %d: unexpected forecast change", i)
		}
	}
}

func TestSample_Imperial(t *testing.T) {
	st := New(seaLevelStation(), &fakeSource{readings: []sensor.Reading{readingT(1013, 100)}}, false)
	rep := st.Sample(context.Background(), t0)
	if rep.Temperature == nil || *rep.Temperature != 212 {
		t.Errorf("Temperature = %v, want 212", rep.Temperature)
	}
	if rep.TemperatureUnit != types.UnitFahrenheit {
		t.Errorf("TemperatureUnit = %q", rep.TemperatureUnit)
	}
}

func TestSample_SeaLevelCorrection(t *testing.T) {
	cfg := config.Station{ID: "s1", AltitudeM: 688}
	st := New(cfg, &fakeSource{readings: []sensor.Reading{reading(1000)}}, true)

	rep := st.Sample(context.Background(), t0)
	if math.Abs(rep.PressureHPa-1085.6695785835884) > 1e-6 {
		t.Errorf("PressureHPa = %v, want sea-level corrected 1085.67", rep.PressureHPa)
	}
}

func TestSample_ReadErrorSkipsTick(t *testing.T) {
	src := &fakeSource{readings: []sensor.Reading{
		reading(1000),
		{StationID: "s1", Err: errors.New("sensor offline")},
		reading(1000),
	}}
	st := New(seaLevelStation(), src, true)

	first := st.Sample(context.Background(), t0)
	failed := st.Sample(context.Background(), t0)
	if failed.Error != "sensor offline" {
		t.Errorf("Error = %q", failed.Error)
	}
	if failed.Tick != first.Tick {
		t.Errorf("failed read advanced tick: %d -> %d", first.Tick, failed.Tick)
	}
	if failed.Changed.Any() {
		t.Errorf("error report Changed = %+v, want none", failed.Changed)
	}
	if failed.Temperature != nil || failed.PressureHPa != 0 {
		t.Error("error report should carry no measurements")
	}

	next := st.Sample(context.Background(), t0)
	if next.Tick != 2 {
		t.Errorf("tick after recovery = %d, want 2", next.Tick)
	}
	if next.Changed.Pressure {
		t.Error("pressure unchanged across a failed read should not be flagged")
	}
}

func TestSample_TransportError(t *testing.T) {
	st := New(seaLevelStation(), &fakeSource{err: errors.New("boom")}, true)
	rep := st.Sample(context.Background(), t0)
	if rep.Error == "" {
		t.Error("expected error report")
	}
	if st.State().Tick != 0 {
		t.Errorf("Tick = %d, want 0", st.State().Tick)
	}
}

func TestSample_NaNReadingsDoNotPoisonReports(t *testing.T) {
	rows := strings.Repeat("NaN\n", 3) + strings.Repeat("1013\n", 397)
	path := filepath.Join(t.TempDir(), "nan.csv")
	if err := os.WriteFile(path, []byte(rows), 0o600); err != nil {
		t.Fatalf("write recording: %v", err)
	}
	cfg := config.Station{
		ID:     "s1",
		Source: config.Source{Type: "replay", Path: path, SeaLevel: true, PressureUnit: "hpa"},
	}
	src, err := sensor.New(cfg)
	if err != nil {
		t.Fatalf("sensor.New: %v", err)
	}
	st := New(cfg, src, true)

	errorReports := 0
	for i := 0; i < 400; i++ {
		rep := st.Sample(context.Background(), t0)
		if rep.Error != "" {
			errorReports++
		}
		if _, err := json.Marshal(rep); err != nil {
			t.Fatalf("report %d unencodable: %v", i, err)
		}
	}
	if errorReports != 3 {
		t.Errorf("error reports = %d, want 3", errorReports)
	}
	if got := st.State().TrendRate; got != 0 {
		t.Errorf("TrendRate = %v, want 0 for constant finite input", got)
	}
}
