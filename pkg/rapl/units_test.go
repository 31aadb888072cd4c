package rapl

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type regMap map[int64]uint64

func (r regMap) ReadRegister(offset int64) (uint64, error) {
	v, ok := r[offset]
	if !ok {
		return 0, fmt.Errorf("%w: no register at %#x", ErrRegisterRead, offset)
	}
	return v, nil
}

func (regMap) Close() error { return nil }

func TestScaleFromUnitRegister(t *testing.T) {
	t.Run("field_ten", func(t *testing.T) {
		// bits 8..12 = 10
		assert.Equal(t, Scale(0.0009765625), ScaleFromUnitRegister(10<<8))
	})
	t.Run("other_fields_ignored", func(t *testing.T) {
		// power unit (bits 0..3) and time unit (bits 16..19) set
		assert.Equal(t, Scale(0.0009765625), ScaleFromUnitRegister(0x000A0A03))
	})
	t.Run("typical_sandy_bridge", func(t *testing.T) {
		// 0xA1003: ESU=16 -> 15.3 µJ
		assert.InDelta(t, 1.0/65536, float64(ScaleFromUnitRegister(0xA1003)), 1e-15)
	})
	t.Run("all_fields_in_range", func(t *testing.T) {
		for exp := uint64(0); exp <= 31; exp++ {
			s := ScaleFromUnitRegister(exp << EnergyUnitShift)
			assert.Greater(t, float64(s), 0.0, "exp=%d", exp)
			assert.LessOrEqual(t, float64(s), 1.0, "exp=%d", exp)
			assert.Equal(t, math.Pow(0.5, float64(exp)), float64(s), "exp=%d", exp)
		}
	})
}

func TestCalibrate(t *testing.T) {
	s, err := Calibrate(regMap{RegPowerUnit: 10 << 8})
	require.NoError(t, err)
	assert.Equal(t, Scale(0.0009765625), s)

	_, err = Calibrate(regMap{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRegisterRead))
}

func TestScale_Joules(t *testing.T) {
	s := Scale(0.5)
	assert.Equal(t, 0.0, s.Joules(0))
	assert.Equal(t, 2.0, s.Joules(4))
}
