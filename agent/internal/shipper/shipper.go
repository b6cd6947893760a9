package shipper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/barocast/barocast/agent/internal/config"
	"github.com/barocast/barocast/pkg/types"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
	sendTimeout       = 10 * time.Second

	// ReportsPath is the server route reports are posted to.
	ReportsPath = "/api/v1/reports"
)

// Shipper buffers reports and ships them to barocast-server.
// Ship() is non-blocking; when the buffer is full the oldest report is evicted.
// Run() must be called in a goroutine to drain the buffer.
type Shipper struct {
	cfg    config.AgentConfig
	buf    chan *types.Report
	client *http.Client
	url    string
}

// New creates a Shipper using the given agent config.
func New(cfg config.AgentConfig) *Shipper {
	return &Shipper{
		cfg:    cfg,
		buf:    make(chan *types.Report, cfg.BufferSize),
		client: &http.Client{Timeout: sendTimeout},
		url:    strings.TrimRight(cfg.ServerEndpoint, "/") + ReportsPath,
	}
}

// Ship enqueues rep. If the buffer is full the oldest entry is evicted to
// make room.
func (s *Shipper) Ship(rep *types.Report) {
	select {
	case s.buf <- rep:
	default:
		// Buffer full: drop the oldest report, keep the newest.
		select {
		case <-s.buf:
			slog.Warn("shipper: buffer full, evicted oldest report",
				"station", rep.StationID, "buffer_cap", cap(s.buf))
		default:
		}
		s.buf <- rep
	}
}

// Pending returns the number of buffered reports.
func (s *Shipper) Pending() int { return len(s.buf) }

// Run drains the buffer, posting reports to the server. Transient failures
// are retried with exponential backoff. Run blocks until ctx is cancelled.
func (s *Shipper) Run(ctx context.Context) {
	bo := newBackoff()
	var retry *types.Report

	for {
		rep := retry
		if rep == nil {
			select {
			case <-ctx.Done():
				return
			case rep = <-s.buf:
			}
		}

		err := s.send(ctx, rep)
		switch {
		case err == nil:
			retry = nil
			bo.reset()
			slog.Debug("shipper: report delivered", "station", rep.StationID, "id", rep.ID)

		case isPermanentError(err):
			retry = nil
			slog.Error("shipper: permanent send error, discarding report",
				"station", rep.StationID, "id", rep.ID, "err", err)

		default:
			if ctx.Err() != nil {
				return
			}
			retry = rep
			wait := bo.next()
			slog.Warn("shipper: send failed, will retry",
				"endpoint", s.url,
				"err", err,
				"retry_in", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

// errUnencodable marks a report that cannot be marshalled (NaN pressure).
var errUnencodable = errors.New("report not encodable")

// statusError is returned by send for non-2xx responses.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("server returned %d", e.code)
	}
	return fmt.Sprintf("server returned %d: %s", e.code, e.body)
}

// send posts one report.
func (s *Shipper) send(ctx context.Context, rep *types.Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("%w: %v", errUnencodable, err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Inject API key header if configured.
	if s.cfg.ServerAuth.Mode == "apikey" && s.cfg.ServerAuth.KeyEnv != "" {
		req.Header.Set(s.cfg.ServerAuth.EffectiveHeader(), s.cfg.ServerAuth.Key())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
}

// isPermanentError returns true for responses that indicate the report
// itself is invalid or unauthorised and should not be retried.
func isPermanentError(err error) bool {
	if errors.Is(err, errUnencodable) {
		return true
	}
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// Apply ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}

func (b *backoff) reset() {
	b.current = backoffInitial
}
