package api

import (
	"github.com/barocast/barocast/server/internal/alerts"
	"github.com/barocast/barocast/server/internal/store"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State          string         `json:"state"`
	StationCount   int            `json:"station_count"`
	ForecastCounts map[string]int `json:"forecast_counts"`
	ErrorCount     int            `json:"error_count"`
	WarmingUp      int            `json:"warming_up"`
	AlertCount     int            `json:"alert_count"`
}

// StationResponse is one station entry in GET /api/v1/stations or
// GET /api/v1/stations/{id}.
type StationResponse struct {
	StationID       string           `json:"station_id"`
	StationName     string           `json:"station_name,omitempty"`
	Timestamp       string           `json:"timestamp"` // RFC3339
	Tick            int              `json:"tick"`
	PressureHPa     float64          `json:"pressure_hpa"`
	Temperature     *float64         `json:"temperature,omitempty"`
	TemperatureUnit string           `json:"temperature_unit,omitempty"`
	Forecast        string           `json:"forecast"`
	ForecastCode    int              `json:"forecast_code"`
	Description     string           `json:"description,omitempty"`
	TrendRate       float64          `json:"trend_rate_kpa_h"`
	FirstCycle      bool             `json:"first_cycle"`
	WarmupRemaining int              `json:"warmup_remaining"`
	Error           string           `json:"error,omitempty"`
	ReportsReceived uint64           `json:"reports_received"`
	Diagnostics     []DiagnosticHint `json:"diagnostics"`
	LastSeen        string           `json:"last_seen"` // RFC3339
}

// HistoryResponse is the payload for GET /api/v1/stations/{id}/history.
type HistoryResponse struct {
	StationID   string             `json:"station_id"`
	Transitions []store.Transition `json:"transitions"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the data
// field of every WebSocket broadcast.
type SnapshotResponse struct {
	Stations    []StationResponse `json:"stations"`
	Alerts      []*alerts.Alert   `json:"alerts"`
	GeneratedAt string            `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
