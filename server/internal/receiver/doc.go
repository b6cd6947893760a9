// Package receiver implements POST /api/v1/reports, the endpoint that accepts
// station reports from barocast-agent instances.
//
// Receiver decodes the JSON body, validates it with go-playground/validator
// (station_id, id and timestamp required; forecast one of the six names;
// tick within the cycle), records it in the store and runs the alert rules.
// Malformed JSON returns 400, failed validation 422, success 202.
// Authentication is enforced upstream by the auth middleware, so the
// receiver itself only performs structural validation.
//
// New(st, ev) wires the receiver to the given store and alert evaluator.
// OnTransition(fn) registers a callback for forecast changes; the server
// uses it to push transitions to WebSocket clients as they happen.
package receiver
