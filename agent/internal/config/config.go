package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultSampleInterval = time.Minute
	DefaultBufferSize     = 1000
	DefaultUnits          = "metric"
	DefaultLogLevel       = "info"
	DefaultPressureUnit   = "hpa"
	DefaultAPIKeyHeader   = "X-API-Key"
)

// Config is the top-level agent configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

// AgentConfig holds all agent-side settings.
type AgentConfig struct {
	// ServerEndpoint is the base URL of barocast-server (http://host:port).
	ServerEndpoint string `yaml:"server_endpoint"`

	// SampleInterval is the forecast tick. The forecast schedule assumes one
	// minute; other values stretch or compress the forecast window.
	SampleInterval time.Duration `yaml:"sample_interval"`

	// BufferSize is the maximum number of reports held in memory when
	// the server is unreachable.
	BufferSize int `yaml:"buffer_size"`

	// Units selects the reported temperature scale: metric | imperial.
	Units string `yaml:"units"`

	// LogLevel is one of: debug | info | warn | error. Reloaded on change.
	LogLevel string `yaml:"log_level"`

	// Stations is the list of barometric stations to sample.
	Stations []Station `yaml:"stations"`

	// ServerAuth configures how the agent authenticates to barocast-server.
	ServerAuth AuthConfig `yaml:"server_auth"`
}

// Metric reports whether temperatures are reported in Celsius.
func (a AgentConfig) Metric() bool {
	return a.Units != "imperial"
}

// Level returns the slog level for LogLevel, defaulting to info.
func (a AgentConfig) Level() slog.Level {
	return ParseLevel(a.LogLevel)
}

// Station describes one barometric station.
type Station struct {
	// ID is a unique, human-readable identifier for this station.
	ID string `yaml:"id"`

	// Name is an optional display name.
	Name string `yaml:"name"`

	// AltitudeM is the station altitude in metres, used for sea-level
	// correction when the source reports station pressure.
	AltitudeM float64 `yaml:"altitude_m"`

	// Source configures where readings come from.
	Source Source `yaml:"source"`
}

// Source describes where a station's readings come from.
type Source struct {
	// Type is one of: prometheus | json | replay.
	Type string `yaml:"type"`

	// Endpoint is the URL polled by the prometheus and json sources.
	Endpoint string `yaml:"endpoint"`

	// Path is the CSV file read by the replay source.
	Path string `yaml:"path"`

	// Loop restarts a replay file from the top at EOF.
	Loop bool `yaml:"loop"`

	// PressureMetric and TemperatureMetric name the metric families read by
	// the prometheus source.
	PressureMetric    string `yaml:"pressure_metric"`
	TemperatureMetric string `yaml:"temperature_metric"`

	// PressureUnit is the unit the source reports pressure in: pa | hpa.
	PressureUnit string `yaml:"pressure_unit"`

	// SeaLevel is true when the source already reports sea-level pressure.
	SeaLevel bool `yaml:"sea_level"`

	// Auth configures how the agent authenticates to this source.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig specifies the authentication mode for a source or the server.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header name the API key is sent in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv is the name of the environment variable that holds the bearer token.
	TokenEnv string `yaml:"token_env"`

	// Username is the literal basic-auth username.
	Username string `yaml:"username"`
	// PasswordEnv is the name of the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// EffectiveHeader returns the configured header name, or DefaultAPIKeyHeader.
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultAPIKeyHeader
}

// TLSConfig holds per-source TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	applyStationDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// ParseLevel maps a log level name to its slog.Level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			SampleInterval: DefaultSampleInterval,
			BufferSize:     DefaultBufferSize,
			Units:          DefaultUnits,
			LogLevel:       DefaultLogLevel,
		},
	}
}

// applyStationDefaults fills per-station fields that yaml cannot default.
func applyStationDefaults(cfg *Config) {
	for i := range cfg.Agent.Stations {
		src := &cfg.Agent.Stations[i].Source
		if src.PressureUnit == "" {
			src.PressureUnit = DefaultPressureUnit
		}
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	a := cfg.Agent
	if a.ServerEndpoint == "" {
		return fmt.Errorf("agent.server_endpoint is required")
	}
	if a.SampleInterval <= 0 {
		return fmt.Errorf("agent.sample_interval must be positive")
	}
	if a.BufferSize <= 0 {
		return fmt.Errorf("agent.buffer_size must be positive")
	}
	switch a.Units {
	case "metric", "imperial":
	default:
		return fmt.Errorf("agent.units %q unknown: want metric|imperial", a.Units)
	}
	switch strings.ToLower(a.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("agent.log_level %q unknown: want debug|info|warn|error", a.LogLevel)
	}
	switch a.ServerAuth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("agent.server_auth.mode %q unknown: want apikey|none", a.ServerAuth.Mode)
	}

	seen := make(map[string]bool, len(a.Stations))
	for i, st := range a.Stations {
		if st.ID == "" {
			return fmt.Errorf("stations[%d]: id is required", i)
		}
		if seen[st.ID] {
			return fmt.Errorf("stations[%d]: duplicate id %q", i, st.ID)
		}
		seen[st.ID] = true

		src := st.Source
		switch src.Type {
		case "prometheus":
			if src.Endpoint == "" {
				return fmt.Errorf("stations[%d] %q: source.endpoint is required", i, st.ID)
			}
			if src.PressureMetric == "" {
				return fmt.Errorf("stations[%d] %q: source.pressure_metric is required", i, st.ID)
			}
		case "json":
			if src.Endpoint == "" {
				return fmt.Errorf("stations[%d] %q: source.endpoint is required", i, st.ID)
			}
		case "replay":
			if src.Path == "" {
				return fmt.Errorf("stations[%d] %q: source.path is required", i, st.ID)
			}
		default:
			return fmt.Errorf("stations[%d] %q: unknown source type %q", i, st.ID, src.Type)
		}
		switch src.PressureUnit {
		case "pa", "hpa":
		default:
			return fmt.Errorf("stations[%d] %q: unknown pressure_unit %q", i, st.ID, src.PressureUnit)
		}
		switch src.Auth.Mode {
		case "apikey", "bearer", "basic", "none", "":
		default:
			return fmt.Errorf("stations[%d] %q: unknown auth mode %q", i, st.ID, src.Auth.Mode)
		}
		if st.AltitudeM >= 44330 {
			return fmt.Errorf("stations[%d] %q: altitude_m %.0f out of range", i, st.ID, st.AltitudeM)
		}
	}
	return nil
}
