package types

import "time"

// Forecast names as they appear on the wire.
const (
	ForecastStable       = "stable"
	ForecastSunny        = "sunny"
	ForecastCloudy       = "cloudy"
	ForecastUnstable     = "unstable"
	ForecastThunderstorm = "thunderstorm"
	ForecastUnknown      = "unknown"
)

// forecastNames is indexed by forecast code.
var forecastNames = [...]string{
	ForecastStable,
	ForecastSunny,
	ForecastCloudy,
	ForecastUnstable,
	ForecastThunderstorm,
	ForecastUnknown,
}

// ForecastCodeOf returns the numeric code carried alongside a forecast name
// in Report.ForecastCode.
func ForecastCodeOf(name string) (int, bool) {
	for i, n := range forecastNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Temperature units.
const (
	UnitCelsius    = "C"
	UnitFahrenheit = "F"
)

// Report is one station tick as shipped from agent to server.
type Report struct {
	ID          string    `json:"id" validate:"required"`
	StationID   string    `json:"station_id" validate:"required"`
	StationName string    `json:"station_name,omitempty"`
	Timestamp   time.Time `json:"timestamp" validate:"required"`

	// Tick is the forecast engine's tick counter after this sample.
	Tick int `json:"tick" validate:"gte=0,lte=185"`

	// PressureHPa is the sea-level pressure fed into the forecast engine.
	PressureHPa float64 `json:"pressure_hpa"`

	// Temperature is in TemperatureUnit; absent when the source has none.
	Temperature     *float64 `json:"temperature,omitempty"`
	TemperatureUnit string   `json:"temperature_unit,omitempty" validate:"omitempty,oneof=C F"`

	Forecast     string  `json:"forecast" validate:"required,oneof=stable sunny cloudy unstable thunderstorm unknown"`
	ForecastCode int     `json:"forecast_code" validate:"gte=0,lte=5"`
	TrendRate    float64 `json:"trend_rate_kpa_h"`
	FirstCycle   bool    `json:"first_cycle"`

	// Description is a human-readable explanation of Forecast.
	Description string `json:"description,omitempty"`

	// WarmupRemaining is the number of ticks left before the first forecast.
	WarmupRemaining int `json:"warmup_remaining"`

	Changed Changes `json:"changed"`

	// Error is non-empty when the sensor read failed. Measurement fields are
	// then zero and Forecast carries the engine's last category.
	Error string `json:"error,omitempty"`
}

// Changes flags which measurements differ from the previous report.
type Changes struct {
	Temperature bool `json:"temperature"`
	Pressure    bool `json:"pressure"`
	Forecast    bool `json:"forecast"`
}

// Any reports whether at least one measurement changed.
func (c Changes) Any() bool {
	return c.Temperature || c.Pressure || c.Forecast
}
