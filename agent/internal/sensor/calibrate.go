package sensor

import "math"

// MaxAltitudeM is the altitude at which the barometric formula reaches zero.
const MaxAltitudeM = 44330.0

// SeaLevelPressure corrects a station pressure p measured at altitudeM
// metres to its sea-level equivalent, using the international barometric
// formula. Units of p are preserved.
func SeaLevelPressure(p, altitudeM float64) float64 {
	return p / math.Pow(1-altitudeM/MaxAltitudeM, 5.255)
}

// CelsiusToFahrenheit converts c degrees Celsius to Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}
