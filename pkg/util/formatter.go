// Package util holds the small output-formatting helpers pkg/fmtout
// uses to print node voltages, branch currents, and AC magnitude/phase
// pairs in human-readable engineering notation.
package util

import (
	"fmt"
	"math"
)

// FormatValueFactor renders value with an SI unit prefix chosen by
// magnitude (m/u/n/p), e.g. FormatValueFactor(0.0015, "V") -> "1.500 mV".
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// FormatFrequency renders a frequency in Hz/kHz/MHz.
func FormatFrequency(freq float64) string {
	switch {
	case freq >= 1e6:
		return fmt.Sprintf("%7.3f MHz", freq/1e6)
	case freq >= 1e3:
		return fmt.Sprintf("%7.3f kHz", freq/1e3)
	default:
		return fmt.Sprintf("%7.3f Hz ", freq)
	}
}

// FormatMagnitudePhase renders a labeled "name=mag<phasedeg" column.
func FormatMagnitudePhase(name string, value, phase float64) string {
	var magStr string
	if value >= 1000 {
		magStr = fmt.Sprintf("%8.2e", value)
	} else if value < 0.001 {
		magStr = fmt.Sprintf("%8.2e", value)
	} else {
		magStr = fmt.Sprintf("%8.3g", value)
	}
	phaseStr := fmt.Sprintf("%6.1f", phase)
	return fmt.Sprintf("%s=%s<%sdeg", name, magStr, phaseStr)
}

// FormatMagnitude renders a bare magnitude column.
func FormatMagnitude(value float64) string {
	if value >= 1000 || (value < 0.001 && value != 0) {
		return fmt.Sprintf("%8.2e", value)
	}
	return fmt.Sprintf("%8.3g", value)
}

// FormatPhase renders a bare phase-in-degrees column.
func FormatPhase(value float64) string {
	return fmt.Sprintf("%6.1f", value)
}
