package metrics

import (
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/barocast/barocast/server/internal/alerts"
	"github.com/barocast/barocast/server/internal/store"
)

const namespace = "barocast_"

// Handler serves GET /metrics in the Prometheus exposition format. Metric
// families are built from the store on every scrape, so there is no
// registry to keep in sync.
type Handler struct {
	store  *store.Store
	alerts *alerts.Engine
}

// New creates a Handler reading from st and al. al may be nil.
func New(st *store.Store, al *alerts.Engine) *Handler {
	return &Handler{store: st, alerts: al}
}

// ServeHTTP encodes the current families in the format negotiated from the
// Accept header (text exposition by default).
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := expfmt.Negotiate(r.Header)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range h.Gather() {
		if err := enc.Encode(mf); err != nil {
			slog.Error("metrics: encode", "family", mf.GetName(), "err", err)
			return
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		closer.Close() //nolint:errcheck
	}
}

// Gather builds one metric family per exported series name. Families with
// no samples are omitted; stations appear in store order (by ID).
func (h *Handler) Gather() []*dto.MetricFamily {
	entries := h.store.List()

	pressure := newFamily("station_pressure_hpa", "Sea-level pressure fed into the forecast engine.", dto.MetricType_GAUGE)
	temperature := newFamily("station_temperature", "Last reported temperature, in the unit label.", dto.MetricType_GAUGE)
	trend := newFamily("station_trend_rate_kpa_per_hour", "Pressure trend at the last checkpoint.", dto.MetricType_GAUGE)
	forecast := newFamily("station_forecast_code", "Forecast category code (0 stable .. 5 unknown).", dto.MetricType_GAUGE)
	tick := newFamily("station_tick", "Forecast engine tick counter.", dto.MetricType_GAUGE)
	lastSeen := newFamily("station_last_seen_timestamp_seconds", "Unix time the last report was received.", dto.MetricType_GAUGE)
	readErr := newFamily("station_read_error", "1 when the last sensor read failed.", dto.MetricType_GAUGE)
	received := newFamily("station_reports_received_total", "Reports accepted for the station.", dto.MetricType_COUNTER)

	for _, e := range entries {
		rep := e.Report
		id := label("station", rep.StationID)

		received.Metric = append(received.Metric, counter(float64(e.Received), id))
		lastSeen.Metric = append(lastSeen.Metric, gauge(float64(e.UpdatedAt.UnixMilli())/1e3, id))
		tick.Metric = append(tick.Metric, gauge(float64(rep.Tick), id))

		if rep.Error != "" {
			readErr.Metric = append(readErr.Metric, gauge(1, id))
			continue
		}
		readErr.Metric = append(readErr.Metric, gauge(0, id))

		pressure.Metric = append(pressure.Metric, gauge(rep.PressureHPa, id))
		trend.Metric = append(trend.Metric, gauge(rep.TrendRate, id))
		forecast.Metric = append(forecast.Metric,
			gauge(float64(rep.ForecastCode), id, label("forecast", rep.Forecast)))
		if rep.Temperature != nil {
			temperature.Metric = append(temperature.Metric,
				gauge(*rep.Temperature, id, label("unit", rep.TemperatureUnit)))
		}
	}

	stations := newFamily("stations", "Stations with a live report.", dto.MetricType_GAUGE)
	stations.Metric = []*dto.Metric{gauge(float64(len(entries)))}

	out := []*dto.MetricFamily{stations}
	if h.alerts != nil {
		firing := newFamily("alerts_firing", "Alerts currently firing.", dto.MetricType_GAUGE)
		firing.Metric = []*dto.Metric{gauge(float64(h.alerts.Firing()))}
		out = append(out, firing)
	}
	for _, mf := range []*dto.MetricFamily{pressure, temperature, trend, forecast, tick, lastSeen, readErr, received} {
		if len(mf.Metric) > 0 {
			out = append(out, mf)
		}
	}
	return out
}

func newFamily(name, help string, typ dto.MetricType) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: strPtr(namespace + name),
		Help: strPtr(help),
		Type: typ.Enum(),
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: strPtr(name), Value: strPtr(value)}
}

func gauge(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: &v}}
}

func counter(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{Label: labels, Counter: &dto.Counter{Value: &v}}
}

func strPtr(s string) *string { return &s }
