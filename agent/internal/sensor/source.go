package sensor

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/barocast/barocast/agent/internal/config"
)

const (
	defaultReadTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a sensor response is read.
	maxBodyBytes = 1 << 20

	breakerFailures = 5
	breakerTimeout  = 2 * time.Minute
)

var (
	// ErrExhausted is set on a Reading when a non-looping replay file has
	// no rows left.
	ErrExhausted = errors.New("sensor: replay exhausted")

	// ErrCircuitOpen is set on a Reading when the source's breaker is open.
	ErrCircuitOpen = errors.New("sensor: circuit breaker open")

	errNoPressure = errors.New("no pressure value in response")

	// ErrNotFinite is set on a Reading whose pressure or temperature is NaN
	// or infinite.
	ErrNotFinite = errors.New("sensor: value not finite")
)

// Reading is the raw output of one source read.
type Reading struct {
	StationID string
	ReadAt    time.Time

	// PressureHPa is the pressure as reported by the source, converted to hPa
	// but not corrected to sea level.
	PressureHPa float64

	// TemperatureC is valid only when HasTemperature is true.
	TemperatureC   float64
	HasTemperature bool

	// Err is non-nil if the read failed (connectivity, auth, parse, EOF).
	// The station runner skips the forecast tick for failed reads.
	Err error
}

// Source is implemented by every reading source.
type Source interface {
	Read(ctx context.Context) (*Reading, error)
}

// New returns the appropriate Source for the given station configuration.
func New(st config.Station) (Source, error) {
	switch st.Source.Type {
	case "prometheus":
		return newPromSource(st, buildHTTPClient(st.Source)), nil
	case "json":
		return newJSONSource(st, buildHTTPClient(st.Source)), nil
	case "replay":
		return newReplaySource(st)
	default:
		return nil, fmt.Errorf("sensor: unsupported source type %q", st.Source.Type)
	}
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.EffectiveHeader(), t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the source's auth and TLS settings.
func buildHTTPClient(src config.Source) *http.Client {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: src.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	return &http.Client{
		Transport: &authRoundTripper{
			base: &http.Transport{TLSClientConfig: tlsCfg},
			auth: src.Auth,
		},
		Timeout: defaultReadTimeout,
	}
}

// fetcher performs GET requests through a circuit breaker.
type fetcher struct {
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

func newFetcher(stationID string, client *http.Client) *fetcher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    stationID,
		Timeout: breakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("sensor: circuit breaker state change",
				"station", name, "from", from.String(), "to", to.String())
		},
	})
	return &fetcher{client: client, cb: cb}
}

// get fetches url and returns the response body.
func (f *fetcher) get(ctx context.Context, url, accept string) ([]byte, error) {
	out, err := f.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", accept)

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http get: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, err
	}
	return out.([]byte), nil
}

// toHPa converts a pressure in unit ("pa" or "hpa") to hPa.
func toHPa(v float64, unit string) float64 {
	if unit == "pa" {
		return v / 100
	}
	return v
}

// checkFinite sets r.Err when a measured value is NaN or ±Inf. Such a value
// would poison the forecast baseline and make reports unencodable.
func checkFinite(r *Reading) *Reading {
	if r.Err != nil {
		return r
	}
	switch {
	case !finite(r.PressureHPa):
		r.Err = fmt.Errorf("%w: pressure %v", ErrNotFinite, r.PressureHPa)
	case r.HasTemperature && !finite(r.TemperatureC):
		r.Err = fmt.Errorf("%w: temperature %v", ErrNotFinite, r.TemperatureC)
	}
	return r
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// newReading initialises an empty Reading for station id.
func newReading(stationID string) *Reading {
	return &Reading{
		StationID: stationID,
		ReadAt:    time.Now().UTC(),
	}
}
