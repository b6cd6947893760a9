package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/barocast/barocast/pkg/types"
	"github.com/barocast/barocast/server/internal/alerts"
	"github.com/barocast/barocast/server/internal/store"
)

const stationsPrefix = "/api/v1/stations/"

// Handler is the HTTP handler for all /api/v1/* read endpoints.
// It reads station state from the report store and alert state from the
// rule engine, and returns JSON responses.
type Handler struct {
	store  *store.Store
	alerts *alerts.Engine
	mux    *http.ServeMux
}

// New creates a Handler wired to the given store and alert engine and
// registers all routes. al may be nil, in which case no alerts are reported.
func New(st *store.Store, al *alerts.Engine) http.Handler {
	h := &Handler{store: st, alerts: al, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/stations", h.listStations)
	h.mux.HandleFunc(stationsPrefix, h.station) // subtree: {id} and {id}/history
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: station counts per forecast and state.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.List()
	resp := HealthResponse{
		StationCount:   len(entries),
		ForecastCounts: make(map[string]int),
	}
	if h.alerts != nil {
		resp.AlertCount = h.alerts.Firing()
	}

	for _, e := range entries {
		rep := e.Report
		if rep.Error != "" {
			resp.ErrorCount++
			continue
		}
		name := rep.Forecast
		if !isForecast(name) {
			name = types.ForecastUnknown
		}
		resp.ForecastCounts[name]++
		if rep.WarmupRemaining > 0 {
			resp.WarmingUp++
		}
	}
	resp.State = healthState(resp)
	jsonResp(w, http.StatusOK, resp)
}

// listStations returns GET /api/v1/stations: all live stations.
func (h *Handler) listStations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.stations())
}

// station dispatches GET /api/v1/stations/{id} and
// GET /api/v1/stations/{id}/history.
func (h *Handler) station(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, stationsPrefix), "/")
	if rest == "" {
		h.listStations(w, r)
		return
	}

	id, sub, _ := strings.Cut(rest, "/")
	switch sub {
	case "":
		h.getStation(w, id)
	case "history":
		h.history(w, id)
	default:
		jsonErr(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) getStation(w http.ResponseWriter, id string) {
	// Stale entries are treated as not found.
	e, ok := h.store.GetFresh(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "station not found")
		return
	}
	jsonResp(w, http.StatusOK, toStationResponse(e))
}

// history serves forecast transitions. Transitions outlive the station's
// entry, so a station that has gone stale still has a history.
func (h *Handler) history(w http.ResponseWriter, id string) {
	tr := h.store.History(id)
	if len(tr) == 0 {
		if _, ok := h.store.Get(id); !ok {
			jsonErr(w, http.StatusNotFound, "station not found")
			return
		}
	}
	jsonResp(w, http.StatusOK, HistoryResponse{StationID: id, Transitions: tr})
}

// listAlerts returns GET /api/v1/alerts: firing and recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.activeAlerts())
}

// snapshot returns GET /api/v1/snapshot: all live stations plus alerts.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store, h.alerts))
}

// BuildSnapshot assembles the full station and alert view. It is shared by
// GET /api/v1/snapshot and the WebSocket hub.
func BuildSnapshot(st *store.Store, al *alerts.Engine) SnapshotResponse {
	h := &Handler{store: st, alerts: al}
	return SnapshotResponse{
		Stations:    h.stations(),
		Alerts:      h.activeAlerts(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- helpers ----------------------------------------------------------------

func (h *Handler) stations() []StationResponse {
	entries := h.store.List()
	out := make([]StationResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toStationResponse(e))
	}
	return out
}

func (h *Handler) activeAlerts() []*alerts.Alert {
	if h.alerts == nil {
		return []*alerts.Alert{}
	}
	return h.alerts.Active()
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// healthState summarises the fleet: unknown with no stations, critical when
// every station is failing, degraded when some are failing or an alert is
// firing, ok otherwise.
func healthState(resp HealthResponse) string {
	switch {
	case resp.StationCount == 0:
		return "unknown"
	case resp.ErrorCount == resp.StationCount:
		return "critical"
	case resp.ErrorCount > 0 || resp.AlertCount > 0:
		return "degraded"
	default:
		return "ok"
	}
}

// toStationResponse maps a store.Entry to its JSON representation.
func toStationResponse(e *store.Entry) StationResponse {
	rep := e.Report
	return StationResponse{
		StationID:       rep.StationID,
		StationName:     rep.StationName,
		Timestamp:       rep.Timestamp.UTC().Format(time.RFC3339),
		Tick:            rep.Tick,
		PressureHPa:     rep.PressureHPa,
		Temperature:     rep.Temperature,
		TemperatureUnit: rep.TemperatureUnit,
		Forecast:        rep.Forecast,
		ForecastCode:    rep.ForecastCode,
		Description:     rep.Description,
		TrendRate:       rep.TrendRate,
		FirstCycle:      rep.FirstCycle,
		WarmupRemaining: rep.WarmupRemaining,
		Error:           rep.Error,
		ReportsReceived: e.Received,
		Diagnostics:     computeDiagnostics(rep),
		LastSeen:        e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// isForecast reports whether name is one of the wire forecast names.
func isForecast(name string) bool {
	switch name {
	case types.ForecastStable, types.ForecastSunny, types.ForecastCloudy,
		types.ForecastUnstable, types.ForecastThunderstorm, types.ForecastUnknown:
		return true
	}
	return false
}
