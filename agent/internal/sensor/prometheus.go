package sensor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/barocast/barocast/agent/internal/config"
)

// promSource reads pressure and temperature gauges from a Prometheus text
// exposition endpoint, such as a node exporter textfile or a BMP/BME
// exporter on the sensor host.
type promSource struct {
	st    config.Station
	fetch *fetcher
}

func newPromSource(st config.Station, client *http.Client) *promSource {
	return &promSource{st: st, fetch: newFetcher(st.ID, client)}
}

// Read fetches the exposition and extracts the configured metric families.
// A missing temperature family is not an error; a missing pressure family is.
func (s *promSource) Read(ctx context.Context) (*Reading, error) {
	r := newReading(s.st.ID)
	src := s.st.Source

	body, err := s.fetch.get(ctx, src.Endpoint, string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	if err != nil {
		r.Err = fmt.Errorf("prometheus read %q: %w", s.st.ID, err)
		slog.Warn("sensor: prometheus fetch failed", "station", s.st.ID, "err", err)
		return r, nil
	}

	mfs, err := parseMetrics(body)
	if err != nil {
		r.Err = fmt.Errorf("prometheus read %q: %w", s.st.ID, err)
		return r, nil
	}

	p, ok := firstValue(mfs[src.PressureMetric])
	if !ok {
		r.Err = fmt.Errorf("prometheus read %q: %s: %w", s.st.ID, src.PressureMetric, errNoPressure)
		return r, nil
	}
	r.PressureHPa = toHPa(p, src.PressureUnit)

	if src.TemperatureMetric != "" {
		if v, ok := firstValue(mfs[src.TemperatureMetric]); ok {
			r.TemperatureC = v
			r.HasTemperature = true
		}
	}
	return checkFinite(r), nil
}

// parseMetrics decodes a Prometheus text exposition into metric families.
// A partial result with a non-fatal parse warning is still returned.
func parseMetrics(body []byte) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// firstValue returns the value of the first gauge, untyped or counter series
// in mf. A sensor exporter normally exposes a single series per family.
func firstValue(mf *dto.MetricFamily) (float64, bool) {
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		switch {
		case m.Gauge != nil:
			return m.Gauge.GetValue(), true
		case m.Untyped != nil:
			return m.Untyped.GetValue(), true
		case m.Counter != nil:
			return m.Counter.GetValue(), true
		}
	}
	return 0, false
}
