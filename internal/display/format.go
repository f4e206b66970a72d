package display

import (
	"fmt"
	"math"

	"github.com/thatsimonsguy/light-meter/internal/tables"
)

const (
	noReading   = "--"
	notSolved   = "n/a"
	belowRange  = "-low-"
	aboveRange  = "-high-"
	minAperture = 0.5
	maxAperture = 32.0
)

func usable(v float64, ok bool) bool {
	return ok && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FormatAperture renders a solved f-number rounded to the nearest third stop.
func FormatAperture(fNumber float64, ok bool) string {
	if !usable(fNumber, ok) {
		return noReading
	}
	if fNumber < minAperture {
		return belowRange
	}
	if fNumber > maxAperture {
		return aboveRange
	}

	// N = 2^(stops/2); thirds are taken on the stop scale, not on N
	stops := 2 * math.Log2(fNumber)
	stops = math.Round(stops*3) / 3
	return fmt.Sprintf("f/%.1f", math.Exp2(stops/2))
}

// FormatShutter renders solved seconds as the nearest shutter table label.
func FormatShutter(seconds float64, ok bool) string {
	if !usable(seconds, ok) {
		return noReading
	}
	if seconds <= 0 {
		return aboveRange
	}

	index := math.Round(-math.Log2(seconds))
	switch {
	case index < float64(tables.Shutter.Min()):
		return belowRange
	case index > float64(tables.Shutter.Max()):
		return aboveRange
	}
	return tables.Shutter.Label(int8(index))
}

func FormatEV(ev float64, ok bool) string {
	if !usable(ev, ok) {
		return noReading
	}
	return fmt.Sprintf("%.1f", ev)
}
