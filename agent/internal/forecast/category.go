package forecast

import "fmt"

// Category is the forecast emitted for a tick.
type Category int

// Category values. The numeric values match the forecast codes reported to
// the server and exported as the barocast_forecast_code gauge.
const (
	Stable Category = iota
	Sunny
	Cloudy
	Unstable
	Thunderstorm
	Unknown
)

// Trend rate thresholds in kPa/h.
const (
	ThresholdFast = 0.25
	ThresholdSlow = 0.05
)

var categoryNames = [...]string{
	Stable:       "stable",
	Sunny:        "sunny",
	Cloudy:       "cloudy",
	Unstable:     "unstable",
	Thunderstorm: "thunderstorm",
	Unknown:      "unknown",
}

var categoryDescriptions = [...]string{
	Stable:       "Stable weather pattern",
	Sunny:        "Slowly rising good weather, clear/sunny",
	Cloudy:       "Slowly falling low pressure, cloudy/rain",
	Unstable:     "Quickly rising high pressure, not stable",
	Thunderstorm: "Quickly falling low pressure, thunderstorm",
	Unknown:      "Unknown, more time needed",
}

// String returns the lowercase name used on the wire.
func (c Category) String() string {
	if c < Stable || c > Unknown {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Description returns a short human-readable explanation of c.
func (c Category) Description() string {
	if c < Stable || c > Unknown {
		return ""
	}
	return categoryDescriptions[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if c < Stable || c > Unknown {
		return nil, fmt.Errorf("forecast: invalid category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory maps a wire name back to its Category.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return Unknown, fmt.Errorf("forecast: unknown category %q", s)
}

// Classify maps a trend rate (kPa/h) to a Category.
//
// Every test is a strict comparison. Rates sitting exactly on a threshold,
// and NaN, fall through to Unknown.
func Classify(rate float64) Category {
	switch {
	case rate < -ThresholdFast:
		return Thunderstorm
	case rate > ThresholdFast:
		return Unstable
	case rate > -ThresholdFast && rate < -ThresholdSlow:
		return Cloudy
	case rate > ThresholdSlow && rate < ThresholdFast:
		return Sunny
	case rate > -ThresholdSlow && rate < ThresholdSlow:
		return Stable
	default:
		return Unknown
	}
}
