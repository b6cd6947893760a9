package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/barocast/barocast/agent/internal/forecast"
)

var (
	colorTitle = color.New(color.FgHiWhite, color.Bold)
	colorKey   = color.New(color.FgHiCyan)
	colorMuted = color.New(color.FgHiBlack)
	colorError = color.New(color.FgHiRed, color.Bold)
	colorWarn  = color.New(color.FgHiYellow, color.Bold)
)

// categoryColor picks a display color per forecast category.
func categoryColor(c forecast.Category) *color.Color {
	switch c {
	case forecast.Sunny:
		return color.New(color.FgHiYellow)
	case forecast.Stable:
		return color.New(color.FgHiGreen)
	case forecast.Cloudy:
		return color.New(color.FgWhite)
	case forecast.Unstable:
		return color.New(color.FgHiMagenta)
	case forecast.Thunderstorm:
		return color.New(color.FgHiRed, color.Bold)
	default:
		return colorMuted
	}
}

func fail(w io.Writer, msg string) {
	colorError.Fprint(w, "✖ ")
	fmt.Fprintln(w, msg)
}

func warn(w io.Writer, msg string) {
	colorWarn.Fprint(w, "⚠ ")
	fmt.Fprintln(w, msg)
}
