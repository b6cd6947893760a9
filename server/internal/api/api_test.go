package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/barocast/barocast/pkg/types"
	"github.com/barocast/barocast/server/internal/alerts"
	"github.com/barocast/barocast/server/internal/api"
	"github.com/barocast/barocast/server/internal/config"
	"github.com/barocast/barocast/server/internal/store"
)

// --- test helpers -----------------------------------------------------------

func newStore(reps ...*types.Report) *store.Store {
	st := store.New(5*time.Minute, 100)
	for _, r := range reps {
		st.Put(r)
	}
	return st
}

func report(id, forecast string, rate float64) *types.Report {
	temp := 21.5
	return &types.Report{
		ID:              "r-" + id,
		StationID:       id,
		StationName:     "Station " + id,
		Timestamp:       time.Now(),
		Tick:            70,
		PressureHPa:     1013.2,
		Temperature:     &temp,
		TemperatureUnit: types.UnitCelsius,
		Forecast:        forecast,
		TrendRate:       rate,
		Description:     "forecast " + forecast,
	}
}

func failed(id string) *types.Report {
	return &types.Report{
		ID:        "r-" + id,
		StationID: id,
		Timestamp: time.Now(),
		Forecast:  types.ForecastUnknown,
		Error:     "connection refused",
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

func stormEngine() *alerts.Engine {
	return alerts.New(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "storm", Condition: "forecast == thunderstorm", Severity: "critical"},
	}})
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth_EmptyStore(t *testing.T) {
	h := api.New(newStore(), nil)
	rr := get(t, h, "/api/v1/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)

	if resp.State != "unknown" {
		t.Errorf("state: got %q, want unknown", resp.State)
	}
	if resp.StationCount != 0 {
		t.Errorf("station_count: got %d, want 0", resp.StationCount)
	}
}

func TestHealth_Counts(t *testing.T) {
	warming := report("attic", types.ForecastUnknown, 0)
	warming.WarmupRemaining = 12

	h := api.New(newStore(
		report("garden", types.ForecastSunny, 0.1),
		report("roof", types.ForecastSunny, 0.12),
		warming,
		failed("cellar"),
	), nil)

	var resp api.HealthResponse
	decode(t, get(t, h, "/api/v1/health"), &resp)

	if resp.StationCount != 4 {
		t.Errorf("station_count: got %d, want 4", resp.StationCount)
	}
	if resp.ForecastCounts[types.ForecastSunny] != 2 {
		t.Errorf("sunny count: got %d, want 2", resp.ForecastCounts[types.ForecastSunny])
	}
	if resp.ForecastCounts[types.ForecastUnknown] != 1 {
		t.Errorf("unknown count: got %d, want 1", resp.ForecastCounts[types.ForecastUnknown])
	}
	if resp.ErrorCount != 1 {
		t.Errorf("error_count: got %d, want 1", resp.ErrorCount)
	}
	if resp.WarmingUp != 1 {
		t.Errorf("warming_up: got %d, want 1", resp.WarmingUp)
	}
	if resp.State != "degraded" {
		t.Errorf("state: got %q, want degraded", resp.State)
	}
}

func TestHealth_States(t *testing.T) {
	tests := []struct {
		name string
		reps []*types.Report
		want string
	}{
		{"all ok", []*types.Report{report("a", types.ForecastStable, 0)}, "ok"},
		{"all failing", []*types.Report{failed("a"), failed("b")}, "critical"},
		{"some failing", []*types.Report{failed("a"), report("b", types.ForecastStable, 0)}, "degraded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var resp api.HealthResponse
			decode(t, get(t, api.New(newStore(tc.reps...), nil), "/api/v1/health"), &resp)
			if resp.State != tc.want {
				t.Errorf("state: got %q, want %q", resp.State, tc.want)
			}
		})
	}
}

func TestHealth_FiringAlertDegrades(t *testing.T) {
	storm := report("garden", types.ForecastThunderstorm, -0.4)
	al := stormEngine()
	al.Evaluate(storm)

	var resp api.HealthResponse
	decode(t, get(t, api.New(newStore(storm), al), "/api/v1/health"), &resp)

	if resp.AlertCount != 1 {
		t.Errorf("alert_count: got %d, want 1", resp.AlertCount)
	}
	if resp.State != "degraded" {
		t.Errorf("state: got %q, want degraded", resp.State)
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	h := api.New(newStore(), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/health", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- /api/v1/stations -------------------------------------------------------

func TestListStations_Empty(t *testing.T) {
	rr := get(t, api.New(newStore(), nil), "/api/v1/stations")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out []api.StationResponse
	decode(t, rr, &out)
	if out == nil || len(out) != 0 {
		t.Errorf("expected empty JSON array, got %v", out)
	}
}

func TestListStations_SortedByID(t *testing.T) {
	h := api.New(newStore(
		report("roof", types.ForecastStable, 0),
		report("garden", types.ForecastCloudy, -0.1),
	), nil)

	var out []api.StationResponse
	decode(t, get(t, h, "/api/v1/stations"), &out)

	if len(out) != 2 {
		t.Fatalf("len: got %d, want 2", len(out))
	}
	if out[0].StationID != "garden" || out[1].StationID != "roof" {
		t.Errorf("order: got %s, %s", out[0].StationID, out[1].StationID)
	}
}

func TestListStations_FieldsPresent(t *testing.T) {
	h := api.New(newStore(report("garden", types.ForecastCloudy, -0.1)), nil)

	var out []api.StationResponse
	decode(t, get(t, h, "/api/v1/stations"), &out)

	s := out[0]
	if s.StationName != "Station garden" {
		t.Errorf("station_name: got %q", s.StationName)
	}
	if s.Forecast != types.ForecastCloudy || s.Description != "forecast cloudy" {
		t.Errorf("forecast: got %q / %q", s.Forecast, s.Description)
	}
	if s.Temperature == nil || *s.Temperature != 21.5 || s.TemperatureUnit != "C" {
		t.Errorf("temperature: got %v %q", s.Temperature, s.TemperatureUnit)
	}
	if s.ReportsReceived != 1 {
		t.Errorf("reports_received: got %d, want 1", s.ReportsReceived)
	}
	if s.LastSeen == "" {
		t.Error("last_seen should be set")
	}
	if len(s.Diagnostics) == 0 {
		t.Error("diagnostics should not be empty")
	}
}

func TestGetStation_Found(t *testing.T) {
	h := api.New(newStore(report("garden", types.ForecastStable, 0)), nil)
	rr := get(t, h, "/api/v1/stations/garden")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var s api.StationResponse
	decode(t, rr, &s)
	if s.StationID != "garden" {
		t.Errorf("station_id: got %q", s.StationID)
	}
}

func TestGetStation_NotFound(t *testing.T) {
	rr := get(t, api.New(newStore(), nil), "/api/v1/stations/nope")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestGetStation_UnknownSubresource(t *testing.T) {
	h := api.New(newStore(report("garden", types.ForecastStable, 0)), nil)
	rr := get(t, h, "/api/v1/stations/garden/wind")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestGetStation_TrailingSlashLists(t *testing.T) {
	h := api.New(newStore(report("garden", types.ForecastStable, 0)), nil)
	var out []api.StationResponse
	decode(t, get(t, h, "/api/v1/stations/"), &out)
	if len(out) != 1 {
		t.Errorf("len: got %d, want 1", len(out))
	}
}

// --- /api/v1/stations/{id}/history ------------------------------------------

func TestHistory_Transitions(t *testing.T) {
	st := newStore()
	st.Put(report("garden", types.ForecastUnknown, 0))
	st.Put(report("garden", types.ForecastUnknown, 0))
	st.Put(report("garden", types.ForecastSunny, 0.1))
	st.Put(report("garden", types.ForecastStable, 0.01))

	var resp api.HistoryResponse
	decode(t, get(t, api.New(st, nil), "/api/v1/stations/garden/history"), &resp)

	if resp.StationID != "garden" {
		t.Errorf("station_id: got %q", resp.StationID)
	}
	want := []string{types.ForecastUnknown, types.ForecastSunny, types.ForecastStable}
	if len(resp.Transitions) != len(want) {
		t.Fatalf("transitions: got %d, want %d", len(resp.Transitions), len(want))
	}
	for i, w := range want {
		if resp.Transitions[i].To != w {
			t.Errorf("transition %d: got %q, want %q", i, resp.Transitions[i].To, w)
		}
	}
	if resp.Transitions[1].From != types.ForecastUnknown {
		t.Errorf("transition 1 from: got %q", resp.Transitions[1].From)
	}
}

func TestHistory_UnknownStation(t *testing.T) {
	rr := get(t, api.New(newStore(), nil), "/api/v1/stations/nope/history")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestHistory_KnownStationNoTransitions(t *testing.T) {
	rr := get(t, api.New(newStore(failed("cellar")), nil), "/api/v1/stations/cellar/history")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.HistoryResponse
	decode(t, rr, &resp)
	if len(resp.Transitions) != 0 {
		t.Errorf("transitions: got %d, want 0", len(resp.Transitions))
	}
}

// --- /api/v1/alerts ---------------------------------------------------------

func TestAlerts_NilEngineReturnsEmptyArray(t *testing.T) {
	rr := get(t, api.New(newStore(), nil), "/api/v1/alerts")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("body: got %q, want []", body)
	}
}

func TestAlerts_Firing(t *testing.T) {
	storm := report("garden", types.ForecastThunderstorm, -0.4)
	al := stormEngine()
	al.Evaluate(storm)

	var out []alerts.Alert
	decode(t, get(t, api.New(newStore(storm), al), "/api/v1/alerts"), &out)

	if len(out) != 1 {
		t.Fatalf("alerts: got %d, want 1", len(out))
	}
	if out[0].RuleName != "storm" || out[0].StationID != "garden" || out[0].State != "firing" {
		t.Errorf("alert: got %+v", out[0])
	}
}

// --- /api/v1/snapshot -------------------------------------------------------

func TestSnapshot_Empty(t *testing.T) {
	var resp api.SnapshotResponse
	decode(t, get(t, api.New(newStore(), nil), "/api/v1/snapshot"), &resp)

	if len(resp.Stations) != 0 || len(resp.Alerts) != 0 {
		t.Errorf("expected empty snapshot, got %+v", resp)
	}
	if _, err := time.Parse(time.RFC3339, resp.GeneratedAt); err != nil {
		t.Errorf("generated_at %q: %v", resp.GeneratedAt, err)
	}
}

func TestSnapshot_StationsAndAlerts(t *testing.T) {
	storm := report("garden", types.ForecastThunderstorm, -0.4)
	al := stormEngine()
	al.Evaluate(storm)

	var resp api.SnapshotResponse
	decode(t, get(t, api.New(newStore(storm, report("roof", types.ForecastStable, 0)), al), "/api/v1/snapshot"), &resp)

	if len(resp.Stations) != 2 {
		t.Errorf("stations: got %d, want 2", len(resp.Stations))
	}
	if len(resp.Alerts) != 1 {
		t.Errorf("alerts: got %d, want 1", len(resp.Alerts))
	}
}

func TestSnapshot_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	api.New(newStore(), nil).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/snapshot", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}
