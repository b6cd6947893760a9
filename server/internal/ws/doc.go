// Package ws implements the WebSocket hub for barocast-server.
//
// Hub manages a set of connected clients and broadcasts the current station
// snapshot to all of them on a configurable interval (5s in production).
// Forecast transitions are pushed as they happen via Publish, which the
// server registers as the receiver's transition callback.
//
// Message format sent to clients:
//
//	{"event": "snapshot",   "data": { /* same schema as GET /api/v1/snapshot */ }}
//	{"event": "transition", "data": {"station_id": "...", "from": "...", "to": "...", ...}}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The endpoint is mounted at /ws/stream by the server.
package ws
