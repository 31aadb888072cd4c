package rapl

import (
	"fmt"
	"math"
)

const (
	EnergyUnitMask  = 0x1F00
	EnergyUnitShift = 8
)

// Scale is the RAPL energy unit in joules per counter increment.
type Scale float64

// Joules converts a raw counter delta into joules.
func (s Scale) Joules(raw uint64) float64 { return float64(raw) * float64(s) }

// ScaleFromUnitRegister extracts the energy status unit field from a
// MSR_RAPL_POWER_UNIT value and returns 0.5^field.
func ScaleFromUnitRegister(v uint64) Scale {
	exp := (v & EnergyUnitMask) >> EnergyUnitShift
	return Scale(math.Pow(0.5, float64(exp)))
}

// Calibrate reads the power unit register once and returns the session's
// energy scale. There is no retry; without a scale no counter can be
// interpreted.
func Calibrate(r Reader) (Scale, error) {
	v, err := r.ReadRegister(RegPowerUnit)
	if err != nil {
		return 0, fmt.Errorf("calibrate energy unit: %w", err)
	}
	return ScaleFromUnitRegister(v), nil
}
