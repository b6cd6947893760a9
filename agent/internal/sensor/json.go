package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/barocast/barocast/agent/internal/config"
)

// jsonReading is the body shape accepted from a JSON sensor endpoint:
//
//	{"pressure": 101325, "temperature": 21.4}
type jsonReading struct {
	Pressure    *float64 `json:"pressure"`
	Temperature *float64 `json:"temperature"`
}

type jsonSource struct {
	st    config.Station
	fetch *fetcher
}

func newJSONSource(st config.Station, client *http.Client) *jsonSource {
	return &jsonSource{st: st, fetch: newFetcher(st.ID, client)}
}

// Read fetches the endpoint and decodes one reading.
func (s *jsonSource) Read(ctx context.Context) (*Reading, error) {
	r := newReading(s.st.ID)

	body, err := s.fetch.get(ctx, s.st.Source.Endpoint, "application/json")
	if err != nil {
		r.Err = fmt.Errorf("json read %q: %w", s.st.ID, err)
		slog.Warn("sensor: json fetch failed", "station", s.st.ID, "err", err)
		return r, nil
	}

	var jr jsonReading
	if err := json.Unmarshal(body, &jr); err != nil {
		r.Err = fmt.Errorf("json read %q: decode: %w", s.st.ID, err)
		return r, nil
	}
	if jr.Pressure == nil {
		r.Err = fmt.Errorf("json read %q: %w", s.st.ID, errNoPressure)
		return r, nil
	}

	r.PressureHPa = toHPa(*jr.Pressure, s.st.Source.PressureUnit)
	if jr.Temperature != nil {
		r.TemperatureC = *jr.Temperature
		r.HasTemperature = true
	}
	return checkFinite(r), nil
}
