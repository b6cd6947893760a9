package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/barocast/barocast/pkg/types"
)

// Entry is a report together with the time it was last received.
type Entry struct {
	Report    *types.Report
	UpdatedAt time.Time

	// Received counts reports accepted for this station since it was first
	// seen (or last evicted).
	Received uint64
}

// Transition records a change in a station's forecast.
type Transition struct {
	StationID   string    `json:"station_id"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to"`
	At          time.Time `json:"at"`
	Tick        int       `json:"tick"`
	TrendRate   float64   `json:"trend_rate_kpa_h"`
	PressureHPa float64   `json:"pressure_hpa"`
}

// Store is a thread-safe in-memory report store, keyed by station_id.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL. History survives eviction.
type Store struct {
	mu         sync.RWMutex
	data       map[string]*Entry
	history    map[string][]Transition
	ttl        time.Duration
	maxHistory int
	now        func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL, keeping up to maxHistory
// transitions per station.
func New(ttl time.Duration, maxHistory int) *Store {
	return &Store{
		data:       make(map[string]*Entry),
		history:    make(map[string][]Transition),
		ttl:        ttl,
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

// Put stores or replaces the report for rep.StationID. If the forecast
// differs from the station's previous report the transition is appended to
// the history and returned with ok=true. Failed-read reports never create
// transitions. Callers must not modify rep after calling Put.
func (s *Store) Put(rep *types.Report) (tr Transition, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	prev, seen := s.data[rep.StationID]

	e := &Entry{Report: rep, UpdatedAt: now, Received: 1}
	if seen {
		e.Received = prev.Received + 1
	}
	s.data[rep.StationID] = e

	if rep.Error != "" {
		return Transition{}, false
	}
	from := ""
	if seen {
		from = prev.Report.Forecast
		if from == rep.Forecast {
			return Transition{}, false
		}
	}

	tr = Transition{
		StationID:   rep.StationID,
		From:        from,
		To:          rep.Forecast,
		At:          rep.Timestamp,
		Tick:        rep.Tick,
		TrendRate:   rep.TrendRate,
		PressureHPa: rep.PressureHPa,
	}
	h := append(s.history[rep.StationID], tr)
	if len(h) > s.maxHistory {
		h = h[len(h)-s.maxHistory:]
	}
	s.history[rep.StationID] = h
	return tr, true
}

// Get returns the Entry for the given station ID and a boolean indicating
// whether an entry was found. The entry may be stale if TTL has elapsed.
func (s *Store) Get(stationID string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[stationID]
	return e, ok
}

// GetFresh is Get restricted to entries still within the TTL, judged by the
// same clock as List.
func (s *Store) GetFresh(stationID string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[stationID]
	if !ok || !e.UpdatedAt.After(s.now().Add(-s.ttl)) {
		return nil, false
	}
	return e, true
}

// List returns all entries whose UpdatedAt is within the TTL, sorted by
// station ID. Stale entries that have not yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Report.StationID < out[j].Report.StationID
	})
	return out
}

// History returns a copy of the station's transitions, oldest first.
func (s *Store) History(stationID string) []Transition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.history[stationID]
	out := make([]Transition, len(h))
	copy(out, h)
	return out
}

// TTL returns the configured time-to-live for entries.
func (s *Store) TTL() time.Duration { return s.ttl }

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second) so entries are evicted promptly. Run blocks until ctx is
// cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale stations", "count", n)
			}
		}
	}
}
