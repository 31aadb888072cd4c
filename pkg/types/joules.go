package types

import (
	"fmt"
	"math"
)

// Joules is an amount of energy.
type Joules float64

// Float64 returns the raw value in joules.
func (j Joules) Float64() float64 { return float64(j) }

// Watts returns the average power over d seconds, or 0 for a non-positive d.
func (j Joules) Watts(seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return float64(j) / seconds
}

// Humanized returns a string with an automatic unit (mJ, J, kJ, MJ).
func (j Joules) Humanized() string {
	v := float64(j)
	a := math.Abs(v)
	switch {
	case a >= 1e6:
		return fmt.Sprintf("%.3f MJ", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.3f kJ", v/1e3)
	case a >= 1 || a == 0:
		return fmt.Sprintf("%.3f J", v)
	default:
		return fmt.Sprintf("%.3f mJ", v*1e3)
	}
}
