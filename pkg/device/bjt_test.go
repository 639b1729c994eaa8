package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gospice/mnaspice/pkg/device"
)

// newActiveBJT returns an NPN BJT with Early effect and knee currents
// disabled, isolating the forward-active transistor action
// (Ic ~= Bf*Ib) the Gummel-Poon current equations reduce to.
func newActiveBJT(name string) *device.BJT {
	b := device.NewBJT(name, []int{1, 2, 3}) // collector, base, emitter
	b.Vaf, b.Var = 0, 0
	b.Ikf, b.Ikr = 0, 0
	return b
}

// TestBJT_CalcOpPoint_ForwardActiveBetaRatio checks that, with a
// forward-biased B-E junction and a reverse-biased B-C junction, the
// collector and base currents satisfy Ic ~= Bf*Ib, the Gummel-Poon
// forward-active current law.
func TestBJT_CalcOpPoint_ForwardActiveBetaRatio(t *testing.T) {
	b := newActiveBJT("Q1")
	x := []float64{0, 5.6, 0.6, 0} // V(c)=5.6 V(b)=0.6 V(e)=0 -> Vbe=0.6, Vbc=-5.0
	b.CalcOpPoint(x)
	op := b.OpPoint()

	require.Greater(t, op.Ic, 0.0)
	require.NotZero(t, op.Ib)
	assert.InDelta(t, b.Bf, op.Ic/op.Ib, b.Bf*1e-3, "forward-active Ic/Ib should track the forward beta")
	assert.InDelta(t, -(op.Ic + op.Ib), op.Ie, 1e-15, "KCL at the transistor: Ie == -(Ic+Ib)")
}

// TestBJT_CalcOpPoint_CutoffNearZero checks that with both junctions
// reverse biased, both terminal currents collapse toward zero.
func TestBJT_CalcOpPoint_CutoffNearZero(t *testing.T) {
	b := newActiveBJT("Q1")
	x := []float64{0, 5.0, -1.0, 0} // Vbe=-1, Vbc=-6: both junctions off
	b.CalcOpPoint(x)
	op := b.OpPoint()

	assert.InDelta(t, 0, op.Ic, 1e-9)
	assert.InDelta(t, 0, op.Ib, 1e-9)
}

// TestBJT_SaveRestoreOpPoint checks the save/restore transactionality
// required of every nonlinear device's operating point.
func TestBJT_SaveRestoreOpPoint(t *testing.T) {
	b := newActiveBJT("Q1")
	b.CalcOpPoint([]float64{0, 5.6, 0.6, 0})
	b.SaveOpPoint()
	saved := b.OpPoint()

	b.CalcOpPoint([]float64{0, 5.6, 0.75, 0})
	assert.NotEqual(t, saved.Ic, b.OpPoint().Ic)

	b.RestoreOpPoint()
	assert.Equal(t, saved, b.OpPoint())
}
