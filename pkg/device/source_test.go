package device_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gospice/mnaspice/pkg/device"
	"github.com/gospice/mnaspice/pkg/solver"
)

// TestVoltageSource_SinWaveform_Transient checks the sinusoidal
// waveform offset+amplitude*sin(2*pi*f*t+phase) by solving the MNA
// constraint row it stamps at a chosen t and reading back V(node).
func TestVoltageSource_SinWaveform_Transient(t *testing.T) {
	v := device.NewSinVoltageSource("V1", []int{1, 0}, 0.5, 1.0, 1000, 90)
	const auxIdx = 2 // 1 node + 1 aux row
	m := solver.NewRealMatrix(2, false)
	defer m.Destroy()
	require.NoError(t, v.StampTran(m, nil, auxIdx, nil, 0, 0))
	solved, err := m.Solve()
	require.NoError(t, err)
	require.True(t, solved)
	// At t=0 with a 90deg phase, sin(pi/2)=1, so V = offset+amplitude.
	assert.InDelta(t, 1.5, m.Solution()[1], 1e-9)
}

// TestCurrentSource_PulseWaveform checks the PULSE shape's rise,
// plateau, and fall segments by stamping at several t values into a
// grounded resistor and reading back the current through V=IR.
func TestCurrentSource_PulseWaveform(t *testing.T) {
	i := device.NewPulseCurrentSource("I1", []int{1, 0}, 0, 1e-3, 0, 1e-9, 1e-9, 1e-6, 0)

	sampleAt := func(tVal float64) float64 {
		m := solver.NewRealMatrix(1, false)
		defer m.Destroy()
		m.AddElement(1, 1, 1) // unit conductance to ground so V(1) == I
		require.NoError(t, i.StampTran(m, nil, 0, nil, tVal, 0))
		solved, err := m.Solve()
		require.NoError(t, err)
		require.True(t, solved)
		return m.Solution()[1]
	}

	// Midway through the linear rise: halfway between I1=0 and I2=1mA.
	assert.InDelta(t, 0.5e-3, sampleAt(0.5e-9), 1e-12)
	// On the plateau: I2.
	assert.InDelta(t, 1e-3, sampleAt(5e-7), 1e-12)
	// Well past the pulse with no repeat (period=0): back to I1=0.
	assert.InDelta(t, 0, sampleAt(1e-3), 1e-12)
}

// TestVoltageSource_DCIgnoresTime_ACUsesOverride checks that a DC
// source's transient value doesn't depend on t, and that WithAC
// installs an independent small-signal magnitude/phase.
func TestVoltageSource_DCIgnoresTime_ACUsesOverride(t *testing.T) {
	v := device.NewDCVoltageSource("V1", []int{1, 0}, 5.0).WithAC(2.0, 45)
	const auxIdx = 2

	mEarly := solver.NewRealMatrix(2, false)
	defer mEarly.Destroy()
	require.NoError(t, v.StampTran(mEarly, nil, auxIdx, nil, 0, 0))
	s1, err := mEarly.Solve()
	require.NoError(t, err)
	require.True(t, s1)

	mLate := solver.NewRealMatrix(2, false)
	defer mLate.Destroy()
	require.NoError(t, v.StampTran(mLate, nil, auxIdx, nil, 123.0, 0))
	s2, err := mLate.Solve()
	require.NoError(t, err)
	require.True(t, s2)
	assert.InDelta(t, mEarly.Solution()[1], mLate.Solution()[1], 1e-12, "a DC source ignores t")
	assert.InDelta(t, 5.0, mLate.Solution()[1], 1e-12)

	cm := solver.NewComplexMatrix(2, false)
	defer cm.Destroy()
	require.NoError(t, v.StampAC(cm, nil, auxIdx, 0))
	cs, err := cm.Solve()
	require.NoError(t, err)
	require.True(t, cs)
	got := cm.Solution()[1] // V(node 1) == the stamped AC source value, since node 1 has no other connection
	wantRe := 2.0 * math.Cos(45*math.Pi/180)
	wantIm := 2.0 * math.Sin(45*math.Pi/180)
	assert.InDelta(t, wantRe, real(got), 1e-9)
	assert.InDelta(t, wantIm, imag(got), 1e-9)
}
