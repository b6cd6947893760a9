// Package api implements the HTTP REST API for barocast-server.
//
// New(store, alerts) returns an http.Handler that serves:
//
//	GET /api/v1/health                — station counts per forecast, errors, warm-up, firing alerts
//	GET /api/v1/stations              — all live stations ([]StationResponse)
//	GET /api/v1/stations/{id}         — single station; 404 if unknown or stale
//	GET /api/v1/stations/{id}/history — forecast transitions, oldest first
//	GET /api/v1/alerts                — firing alerts plus those resolved within the hour
//	GET /api/v1/snapshot              — full JSON dump: stations + alerts + generated_at
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for non-GET methods
//   - Read live entries from the store (stale entries excluded from lists)
//
// Each station carries Diagnostics: plain-English hints derived from the
// latest report (read failures, warm-up, fast pressure changes).
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
