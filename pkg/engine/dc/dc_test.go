package dc_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gospice/mnaspice/internal/consts"
	"github.com/gospice/mnaspice/internal/obs"
	"github.com/gospice/mnaspice/pkg/engine/dc"
	"github.com/gospice/mnaspice/pkg/netlist"
)

func buildView(t *testing.T, text string) *netlist.View {
	t.Helper()
	deck, err := netlist.Parse(text)
	require.NoError(t, err)
	view, err := netlist.Build(deck, deck.Title)
	require.NoError(t, err)
	return view
}

// TestDC_ResistiveDivider solves two 1kOhm resistors from a 1V
// source to ground: midpoint 0.5V +/- 1e-6.
func TestDC_ResistiveDivider(t *testing.T) {
	view := buildView(t, `* divider
V1 1 0 DC 1
R1 1 2 1k
R2 2 0 1k
.op
`)
	engine := dc.New(view, obs.Discard())
	x, err := engine.Solve(nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, x[view.Nodes["2"]], 1e-6)
	assert.InDelta(t, 1.0, x[view.Nodes["1"]], 1e-6)
}

// TestDC_DiodeForwardBias pushes a 1mA current source into a diode
// with Is=1e-15, N=1 at the default device temperature (RoomTemp,
// 300.15K) and expects convergence to
// Vd ~= N*Vt*ln(1+I/Is) ~= 0.715V +/- 1e-3V.
func TestDC_DiodeForwardBias(t *testing.T) {
	view := buildView(t, `* diode forward bias
I1 1 0 DC 1m
D1 1 0 DMOD
.model DMOD D(is=1e-15 n=1)
.op
`)
	engine := dc.New(view, obs.Discard())
	x, err := engine.Solve(nil)
	require.NoError(t, err)

	vt := consts.ThermalVoltage(consts.RoomTemp)
	want := vt * math.Log(1+1e-3/1e-15)
	assert.InDelta(t, want, x[view.Nodes["1"]], 1e-3)
}

// TestDC_FixedPoint checks the DC fixed-point property: re-solving
// with the converged x as the starting guess returns x within
// tolerance.
func TestDC_FixedPoint(t *testing.T) {
	view := buildView(t, `* divider
V1 1 0 DC 1
R1 1 2 1k
R2 2 0 1k
.op
`)
	engine := dc.New(view, obs.Discard())
	x1, err := engine.Solve(nil)
	require.NoError(t, err)

	x2, err := engine.Solve(x1)
	require.NoError(t, err)

	for i := 1; i < len(x1); i++ {
		assert.InDelta(t, x1[i], x2[i], 1e-6)
	}
}

// TestDC_GroundNeverAFreeUnknown checks that ground is never present
// as an indexable unknown (index 0 is reserved and out of range of
// the stamped system).
func TestDC_GroundNeverAFreeUnknown(t *testing.T) {
	view := buildView(t, `* divider
V1 1 0 DC 1
R1 1 2 1k
R2 2 0 1k
.op
`)
	_, ok := view.Nodes["0"]
	assert.False(t, ok)
}
