// Package metrics exposes station state on GET /metrics in the Prometheus
// exposition format, so barocast can be scraped alongside the exporters it
// reads from.
//
// Families (all prefixed barocast_):
//   - stations, alerts_firing
//   - station_pressure_hpa, station_temperature{unit}, station_trend_rate_kpa_per_hour
//   - station_forecast_code{forecast}, station_tick
//   - station_last_seen_timestamp_seconds, station_read_error
//   - station_reports_received_total (counter)
//
// Every per-station family carries a station label. Measurement families
// skip stations whose last read failed; station_read_error reports 1 for them.
package metrics
