// Package shipper sends station reports to barocast-server as JSON over HTTP
// (POST <server_endpoint>/api/v1/reports).
//
// Shipper.Ship() is non-blocking: reports are placed in an in-memory channel
// (default capacity 1000). When the buffer is full the oldest entry is
// evicted so the latest forecast data is always preserved.
//
// Shipper.Run() drains the buffer in a loop, retrying with truncated
// exponential backoff (1s→60s, ±25% jitter) on network errors and 5xx
// responses. The failed report is retried before anything newer is sent.
// Permanent rejections (400, 401, 403, 422) discard the report immediately.
//
// Auth: API key in a configurable header (server_auth.mode: apikey), or
// none for local development.
package shipper
