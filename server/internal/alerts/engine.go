package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/barocast/barocast/pkg/types"
	"github.com/barocast/barocast/server/internal/config"
)

const (
	defaultCooldown   = 15 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	StationID  string     `json:"station_id"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"

	// Station readings from the report that last changed the alert's state.
	Reading StationReading `json:"reading"`
}

// StationReading is the part of a report that alert notifications show.
type StationReading struct {
	StationName string   `json:"station_name,omitempty"`
	Forecast    string   `json:"forecast"`
	Description string   `json:"description,omitempty"`
	TrendRate   float64  `json:"trend_rate_kpa_h"`
	PressureHPa float64  `json:"pressure_hpa"`
	Temperature *float64 `json:"temperature,omitempty"`
	Unit        string   `json:"temperature_unit,omitempty"`
	Tick        int      `json:"tick"`
}

func readingOf(rep *types.Report) StationReading {
	var temp *float64
	if rep.Temperature != nil {
		v := *rep.Temperature
		temp = &v
	}
	return StationReading{
		StationName: rep.StationName,
		Forecast:    rep.Forecast,
		Description: rep.Description,
		TrendRate:   rep.TrendRate,
		PressureHPa: rep.PressureHPa,
		Temperature: temp,
		Unit:        rep.TemperatureUnit,
		Tick:        rep.Tick,
	}
}

// rule is a configured rule with its parsed condition.
type rule struct {
	config.AlertRule
	cond condition
}

// Engine evaluates alert rules against incoming station reports and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []rule
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	active   map[string]*Alert    // key: "ruleName:stationID"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // recently resolved alerts
	client   *http.Client
	now      func() time.Time
}

// New creates an Engine from the server alert configuration. Rules whose
// condition does not parse are logged and skipped.
// An Engine with no rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	e := &Engine{
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
	for _, r := range cfg.Rules {
		c, err := parseCondition(r.Condition)
		if err != nil {
			slog.Error("alerts: skipping rule", "rule", r.Name, "err", err)
			continue
		}
		e.rules = append(e.rules, rule{AlertRule: r, cond: c})
	}
	return e
}

// Rules returns the number of active rules.
func (e *Engine) Rules() int { return len(e.rules) }

// Evaluate tests all configured rules against rep.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
// Failed-read reports carry no measurements and are ignored.
func (e *Engine) Evaluate(rep *types.Report) {
	if len(e.rules) == 0 || rep.Error != "" {
		return
	}

	now := e.now()
	for _, r := range e.rules {
		key := r.Name + ":" + rep.StationID
		fires, value := r.cond.eval(rep)

		e.mu.Lock()

		if fires {
			cooldown := r.Cooldown
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			_, firing := e.active[key]
			if !firing && now.Sub(e.lastFire[key]) > cooldown {
				sev := r.Severity
				if sev == "" {
					sev = "warning"
				}
				a := &Alert{
					ID:        uuid.NewString(),
					RuleName:  r.Name,
					StationID: rep.StationID,
					Severity:  sev,
					Value:     value,
					Message: fmt.Sprintf("[%s] %s fired on %s: %s (value %.3f, forecast %s)",
						sev, r.Name, rep.StationID, r.Condition, value, rep.Forecast),
					FiredAt: now,
					State:   "firing",
					Reading: readingOf(rep),
				}
				e.active[key] = a
				e.lastFire[key] = now
				alertCopy := *a
				e.mu.Unlock()

				slog.Warn("alert fired",
					"rule", r.Name,
					"station", rep.StationID,
					"value", value,
					"severity", sev,
				)
				go e.deliver(&alertCopy)
			} else {
				e.mu.Unlock()
			}
		} else {
			if a, ok := e.active[key]; ok && a.State == "firing" {
				resolved := now
				a.State = "resolved"
				a.ResolvedAt = &resolved
				a.Reading = readingOf(rep)
				delete(e.active, key)

				e.history = append(e.history, a)
				if len(e.history) > maxHistoryLen {
					e.history = e.history[len(e.history)-maxHistoryLen:]
				}
				alertCopy := *a
				e.mu.Unlock()

				slog.Info("alert resolved",
					"rule", r.Name,
					"station", rep.StationID,
				)
				go e.deliver(&alertCopy)
			} else {
				e.mu.Unlock()
			}
		}
	}
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, sorted newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// Firing returns the number of currently firing alerts.
func (e *Engine) Firing() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}
