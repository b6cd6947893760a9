// Package store holds the latest report per station in memory, with TTL
// eviction, and a bounded per-station log of forecast transitions.
package store
