// Package sensor provides the reading sources a station samples once per tick.
// Each source returns a Reading holding station pressure in hPa and, when
// available, temperature in Celsius. Sources never calibrate: sea-level
// correction and unit conversion for reporting happen in the station runner
// using the helpers in calibrate.go.
//
// Implemented sources: Prometheus text exposition (prometheus.go), plain JSON
// (json.go) and CSV replay (replay.go). Factory: New(config.Station) returns
// the correct Source.
//
// HTTP sources share the authRoundTripper and a per-source circuit breaker
// in source.go, so a dead sensor endpoint is skipped quickly instead of
// stalling every tick on the client timeout.
package sensor
