package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const validYAML = `
agent:
  server_endpoint: "http://localhost:8080"
  sample_interval: 30s
  buffer_size: 500
  units: imperial
  log_level: debug
  stations:
    - id: garden
      name: Garden shed
      altitude_m: 688
      source:
        type: prometheus
        endpoint: "http://localhost:9100/metrics"
        pressure_metric: bmp085_pressure_pascals
        temperature_metric: bmp085_temperature_celsius
        pressure_unit: pa
`

func TestLoad_Valid(t *testing.T) {
	cfg := loadFromString(t, validYAML)

	if cfg.Agent.ServerEndpoint != "http://localhost:8080" {
		t.Errorf("server_endpoint: got %q", cfg.Agent.ServerEndpoint)
	}
	if cfg.Agent.SampleInterval != 30*time.Second {
		t.Errorf("sample_interval: got %v", cfg.Agent.SampleInterval)
	}
	if cfg.Agent.BufferSize != 500 {
		t.Errorf("buffer_size: got %d", cfg.Agent.BufferSize)
	}
	if cfg.Agent.Metric() {
		t.Error("units imperial: Metric() should be false")
	}
	if cfg.Agent.Level() != slog.LevelDebug {
		t.Errorf("log_level: got %v, want debug", cfg.Agent.Level())
	}
	if len(cfg.Agent.Stations) != 1 {
		t.Fatalf("stations: got %d, want 1", len(cfg.Agent.Stations))
	}
	st := cfg.Agent.Stations[0]
	if st.ID != "garden" || st.Name != "Garden shed" {
		t.Errorf("station: got id=%q name=%q", st.ID, st.Name)
	}
	if st.AltitudeM != 688 {
		t.Errorf("altitude_m: got %v", st.AltitudeM)
	}
	if st.Source.PressureUnit != "pa" {
		t.Errorf("pressure_unit: got %q", st.Source.PressureUnit)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromString(t, `
agent:
  server_endpoint: "http://localhost:8080"
  stations:
    - id: replay
      source:
        type: replay
        path: readings.csv
`)

	if cfg.Agent.SampleInterval != DefaultSampleInterval {
		t.Errorf("default sample_interval: got %v, want %v", cfg.Agent.SampleInterval, DefaultSampleInterval)
	}
	if cfg.Agent.BufferSize != DefaultBufferSize {
		t.Errorf("default buffer_size: got %d, want %d", cfg.Agent.BufferSize, DefaultBufferSize)
	}
	if !cfg.Agent.Metric() {
		t.Error("default units should be metric")
	}
	if cfg.Agent.Level() != slog.LevelInfo {
		t.Errorf("default log level: got %v", cfg.Agent.Level())
	}
	if got := cfg.Agent.Stations[0].Source.PressureUnit; got != DefaultPressureUnit {
		t.Errorf("default pressure_unit: got %q, want %q", got, DefaultPressureUnit)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing server endpoint", `
agent:
  stations:
    - id: a
      source: {type: replay, path: x.csv}
`},
		{"unknown source type", `
agent:
  server_endpoint: "http://localhost:8080"
  stations:
    - id: a
      source: {type: i2c}
`},
		{"prometheus without metric", `
agent:
  server_endpoint: "http://localhost:8080"
  stations:
    - id: a
      source: {type: prometheus, endpoint: "http://x/metrics"}
`},
		{"json without endpoint", `
agent:
  server_endpoint: "http://localhost:8080"
  stations:
    - id: a
      source: {type: json}
`},
		{"replay without path", `
agent:
  server_endpoint: "http://localhost:8080"
  stations:
    - id: a
      source: {type: replay}
`},
		{"duplicate station id", `
agent:
  server_endpoint: "http://localhost:8080"
  stations:
    - id: a
      source: {type: replay, path: x.csv}
    - id: a
      source: {type: replay, path: y.csv}
`},
		{"unknown units", `
agent:
  server_endpoint: "http://localhost:8080"
  units: kelvin
`},
		{"unknown log level", `
agent:
  server_endpoint: "http://localhost:8080"
  log_level: chatty
`},
		{"unknown pressure unit", `
agent:
  server_endpoint: "http://localhost:8080"
  stations:
    - id: a
      source: {type: replay, path: x.csv, pressure_unit: inhg}
`},
		{"unknown auth mode", `
agent:
  server_endpoint: "http://localhost:8080"
  stations:
    - id: a
      source:
        type: json
        endpoint: "http://x/"
        auth: {mode: magictoken}
`},
		{"altitude out of range", `
agent:
  server_endpoint: "http://localhost:8080"
  stations:
    - id: a
      altitude_m: 50000
      source: {type: replay, path: x.csv}
`},
		{"negative sample interval", `
agent:
  server_endpoint: "http://localhost:8080"
  sample_interval: -1m
`},
		{"bad yaml", "agent: [unterminated"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadStringErr(t, tc.yaml); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestAuthConfig_Secrets(t *testing.T) {
	t.Setenv("TEST_API_KEY", "supersecret")
	t.Setenv("TEST_BEARER_TOKEN", "mytoken")
	t.Setenv("TEST_PASSWORD", "hunter2")

	a := AuthConfig{KeyEnv: "TEST_API_KEY", TokenEnv: "TEST_BEARER_TOKEN", PasswordEnv: "TEST_PASSWORD"}
	if got := a.Key(); got != "supersecret" {
		t.Errorf("Key(): got %q", got)
	}
	if got := a.Token(); got != "mytoken" {
		t.Errorf("Token(): got %q", got)
	}
	if got := a.Password(); got != "hunter2" {
		t.Errorf("Password(): got %q", got)
	}

	var empty AuthConfig
	if empty.Key() != "" || empty.Token() != "" || empty.Password() != "" {
		t.Error("empty AuthConfig should resolve no secrets")
	}
}

func TestAuthConfig_EffectiveHeader(t *testing.T) {
	if got := (AuthConfig{}).EffectiveHeader(); got != DefaultAPIKeyHeader {
		t.Errorf("default header: got %q", got)
	}
	if got := (AuthConfig{Header: "X-Station-Key"}).EffectiveHeader(); got != "X-Station-Key" {
		t.Errorf("custom header: got %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, validYAML)

	var lv slog.LevelVar
	var calls atomic.Int32
	apply := ApplyLogLevel(&lv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			apply(cfg)
			calls.Add(1)
		})
	}()

	updated := strings.Replace(validYAML, "log_level: debug", "log_level: error", 1)

	// Keep rewriting until the watcher is registered and picks it up.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && lv.Level() != slog.LevelError {
		writeFile(t, path, updated)
		time.Sleep(50 * time.Millisecond)
	}

	if calls.Load() == 0 {
		t.Fatal("onChange was never called")
	}
	if lv.Level() != slog.LevelError {
		t.Errorf("level after reload: got %v, want error", lv.Level())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_InvalidReloadSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, validYAML)

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, path, func(*Config) { calls.Add(1) }) //nolint:errcheck

	// Invalid config and writes to sibling files must not trigger onChange.
	for i := 0; i < 5; i++ {
		writeFile(t, path, "agent: {units: kelvin}")
		writeFile(t, filepath.Join(dir, "other.yaml"), validYAML)
		time.Sleep(40 * time.Millisecond)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("onChange called %d times for invalid config", n)
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, content)
	return Load(path)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("Load(config.example.yaml): %v", err)
	}
	if len(cfg.Agent.Stations) != 3 {
		t.Errorf("stations: got %d, want 3", len(cfg.Agent.Stations))
	}
}
