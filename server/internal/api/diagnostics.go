package api

import (
	"fmt"
	"math"

	"github.com/barocast/barocast/pkg/types"
)

// Trend thresholds in kPa/h. Mirrors the classification in
// agent/internal/forecast.
const (
	slowTrend  = 0.05
	rapidTrend = 0.25
)

// DiagnosticHint is one human-readable insight about a station's reading.
// The UI displays these as chips on the station card; clicking one shows
// Detail.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier (used for dedup/ordering).
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label shown on the chip (≤ 5 words).
	Title string `json:"title"`
	// Detail is the full explanation shown on click/hover.
	Detail string `json:"detail"`
	// Value is an optional numeric value associated with this hint (e.g. trend rate).
	Value *float64 `json:"value,omitempty"`
}

// computeDiagnostics derives human-readable diagnostic hints from a report.
// Diagnostics are ordered: critical first, then warnings, then info.
func computeDiagnostics(rep *types.Report) []DiagnosticHint {
	var hints []DiagnosticHint

	// ── Read failure ─────────────────────────────────────────────────────────
	if rep.Error != "" {
		hints = append(hints, DiagnosticHint{
			Key:   "read_failed",
			Level: "critical",
			Title: "Can't read sensor",
			Detail: fmt.Sprintf(
				"The agent couldn't read this station's sensor on its last tick. "+
					"It got: \"%s\". The forecast shown is the last one computed "+
					"before the failure and the trend clock is paused until reads recover. "+
					"Check that the sensor endpoint is reachable and the credentials are correct.",
				rep.Error,
			),
		})
		return hints
	}

	// ── Warm-up (no forecast yet) ────────────────────────────────────────────
	if rep.WarmupRemaining > 0 {
		v := float64(rep.WarmupRemaining)
		hints = append(hints, DiagnosticHint{
			Key:   "warming_up",
			Level: "info",
			Title: "Warming up",
			Detail: fmt.Sprintf(
				"The station needs half an hour of pressure history before it can "+
					"estimate a trend. %d more samples are needed before the first forecast. "+
					"No action needed.",
				rep.WarmupRemaining,
			),
			Value: &v,
		})
		return hints
	}

	rate := rep.TrendRate
	v := rate

	// ── Trend ────────────────────────────────────────────────────────────────
	switch {
	case rate < -rapidTrend:
		hints = append(hints, DiagnosticHint{
			Key:   "rapid_fall",
			Level: "critical",
			Title: "Pressure falling fast",
			Detail: fmt.Sprintf(
				"Pressure is dropping at %.3f kPa/h, faster than %.2f kPa/h. "+
					"A fall this quick usually comes before thunderstorms or strong wind. "+
					"Expect a sharp change in the weather within hours.",
				rate, rapidTrend,
			),
			Value: &v,
		})
	case rate > rapidTrend:
		hints = append(hints, DiagnosticHint{
			Key:   "rapid_rise",
			Level: "warning",
			Title: "Pressure rising fast",
			Detail: fmt.Sprintf(
				"Pressure is climbing at %.3f kPa/h. A rapid rise often means "+
					"unsettled, gusty conditions while a new air mass moves in.",
				rate,
			),
			Value: &v,
		})
	case rate < -slowTrend:
		hints = append(hints, DiagnosticHint{
			Key:    "falling",
			Level:  "info",
			Title:  "Pressure falling",
			Detail: fmt.Sprintf("Pressure is falling slowly (%.3f kPa/h). Clouds are likely to build.", rate),
			Value:  &v,
		})
	case rate > slowTrend:
		hints = append(hints, DiagnosticHint{
			Key:    "rising",
			Level:  "info",
			Title:  "Pressure rising",
			Detail: fmt.Sprintf("Pressure is rising slowly (%.3f kPa/h). Conditions are clearing.", rate),
			Value:  &v,
		})
	}

	// ── Exact threshold ──────────────────────────────────────────────────────
	if rep.Forecast == types.ForecastUnknown && onThreshold(rate) {
		hints = append(hints, DiagnosticHint{
			Key:   "on_threshold",
			Level: "info",
			Title: "Trend on a threshold",
			Detail: fmt.Sprintf(
				"The trend (%.3f kPa/h) sits exactly on a classification boundary, "+
					"so no forecast category applies. The next checkpoint will usually settle it.",
				rate,
			),
			Value: &v,
		})
	}

	// ── First cycle ──────────────────────────────────────────────────────────
	if rep.FirstCycle {
		hints = append(hints, DiagnosticHint{
			Key:   "first_cycle",
			Level: "info",
			Title: "Short history",
			Detail: "The station has less than three hours of history, so the trend " +
				"is measured over shorter windows and reacts faster to noise. " +
				"It stabilises once the first full cycle completes.",
		})
	}

	// ── All clear ────────────────────────────────────────────────────────────
	if len(hints) == 0 {
		hints = append(hints, DiagnosticHint{
			Key:   "steady",
			Level: "ok",
			Title: "All clear",
			Detail: fmt.Sprintf(
				"Pressure is steady at %.1f hPa with a trend of %.3f kPa/h. "+
					"No significant change in the weather is expected.",
				rep.PressureHPa, rate,
			),
			Value: &v,
		})
	}

	return hints
}

// onThreshold reports whether rate equals one of the classification bounds.
func onThreshold(rate float64) bool {
	a := math.Abs(rate)
	return a == slowTrend || a == rapidTrend
}
