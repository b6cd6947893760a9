package sensor

import (
	"math"
	"testing"
)

func TestSeaLevelPressure(t *testing.T) {
	tests := []struct {
		p, alt, want float64
	}{
		{1013.25, 0, 1013.25},
		{1000, 688, 1085.6695785835884},
		{900, 1000, 1014.6459507868606},
	}
	for _, tc := range tests {
		if got := SeaLevelPressure(tc.p, tc.alt); math.Abs(got-tc.want) > 1e-6 {
			t.Errorf("SeaLevelPressure(%v, %v) = %v, want %v", tc.p, tc.alt, got, tc.want)
		}
	}
}

func TestCelsiusToFahrenheit(t *testing.T) {
	tests := []struct{ c, f float64 }{
		{0, 32},
		{100, 212},
		{-40, -40},
		{21.5, 70.7},
	}
	for _, tc := range tests {
		if got := CelsiusToFahrenheit(tc.c); math.Abs(got-tc.f) > 1e-9 {
			t.Errorf("CelsiusToFahrenheit(%v) = %v, want %v", tc.c, got, tc.f)
		}
	}
}
