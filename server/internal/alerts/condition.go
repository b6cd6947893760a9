package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/barocast/barocast/pkg/types"
)

// condition is a parsed rule expression of the form "field op value".
type condition struct {
	field     string
	op        string
	rhs       string
	threshold float64
}

// parseCondition parses a rule condition string.
//
// Supported expressions (field operator value):
//
//	trend_rate < -0.25
//	trend_rate > 0.25
//	pressure_hpa < 980
//	temperature > 35
//	tick >= 35
//	warmup_remaining > 0
//	forecast == thunderstorm
//	forecast != stable
func parseCondition(cond string) (condition, error) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return condition{}, fmt.Errorf("condition %q: want \"field op value\"", cond)
	}
	c := condition{field: parts[0], op: parts[1], rhs: parts[2]}

	if c.field == "forecast" {
		if c.op != "==" && c.op != "!=" {
			return condition{}, fmt.Errorf("condition %q: forecast supports == and != only", cond)
		}
		switch c.rhs {
		case types.ForecastStable, types.ForecastSunny, types.ForecastCloudy,
			types.ForecastUnstable, types.ForecastThunderstorm, types.ForecastUnknown:
		default:
			return condition{}, fmt.Errorf("condition %q: unknown forecast %q", cond, c.rhs)
		}
		return c, nil
	}

	switch c.field {
	case "trend_rate", "pressure_hpa", "temperature", "tick", "warmup_remaining":
	default:
		return condition{}, fmt.Errorf("condition %q: unknown field %q", cond, c.field)
	}
	switch c.op {
	case ">", ">=", "<", "<=", "==", "!=":
	default:
		return condition{}, fmt.Errorf("condition %q: unknown operator %q", cond, c.op)
	}
	v, err := strconv.ParseFloat(c.rhs, 64)
	if err != nil {
		return condition{}, fmt.Errorf("condition %q: threshold: %w", cond, err)
	}
	c.threshold = v
	return c, nil
}

// eval tests the condition against rep.
// Returns (fires bool, triggering value float64). Forecast conditions report
// the forecast code as their value. A temperature condition never fires for
// a report without temperature.
func (c condition) eval(rep *types.Report) (bool, float64) {
	if c.field == "forecast" {
		v := float64(rep.ForecastCode)
		if c.op == "==" {
			return rep.Forecast == c.rhs, v
		}
		return rep.Forecast != c.rhs, v
	}

	v, ok := numericField(c.field, rep)
	if !ok {
		return false, 0
	}
	return compareFloat(v, c.op, c.threshold), v
}

// numericField maps a field name to its value in the report.
func numericField(field string, rep *types.Report) (float64, bool) {
	switch field {
	case "trend_rate":
		return rep.TrendRate, true
	case "pressure_hpa":
		return rep.PressureHPa, true
	case "temperature":
		if rep.Temperature == nil {
			return 0, false
		}
		return *rep.Temperature, true
	case "tick":
		return float64(rep.Tick), true
	case "warmup_remaining":
		return float64(rep.WarmupRemaining), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
