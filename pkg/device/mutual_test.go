package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gospice/mnaspice/pkg/device"
	"github.com/gospice/mnaspice/pkg/solver"
)

// TestMutual_StampTran_InducesSecondaryVoltage drives a current I into
// L1's loop with nothing driving L2's loop, and checks that L2's
// companion equation produces exactly the mutual back-EMF
// V2 = (k*sqrt(L1*L2)/dt) * i1 predicted by the backward-Euler
// coupling term.
func TestMutual_StampTran_InducesSecondaryVoltage(t *testing.T) {
	l1 := device.NewInductor("L1", []int{1, 0}, 1e-3)
	l2 := device.NewInductor("L2", []int{2, 0}, 1e-3)
	l1.AuxIdx = 3
	l2.AuxIdx = 4
	k := 0.5
	mutual := device.NewMutual("K1", l1, l2, k)

	dt := 1e-6
	hist := device.NewHistory()
	hist.Append(0, []float64{0, 0, 0, 0, 0}) // both branch currents start at 0

	m := solver.NewRealMatrix(4, false)
	defer m.Destroy()

	require.NoError(t, l1.StampTran(m, nil, l1.AuxIdx, hist, dt, dt))
	require.NoError(t, l2.StampTran(m, nil, l2.AuxIdx, hist, dt, dt))
	require.NoError(t, mutual.StampTran(m, nil, 0, hist, dt, dt))

	const i1 = 1e-3
	m.AddRHS(1, i1) // node 1's only connection is L1; this forces i1 == I.

	solved, err := m.Solve()
	require.NoError(t, err)
	require.True(t, solved)
	x := m.Solution()

	assert.InDelta(t, i1, x[l1.AuxIdx], i1*1e-9, "node 1 has no other path, so L1's branch current must equal the injected current")
	assert.InDelta(t, 0, x[l2.AuxIdx], 1e-15, "node 2 has no independent drive, so L2's own branch current must be zero")

	mutualInductance := k * 1e-3 // sqrt(1e-3*1e-3) == 1e-3
	wantV2 := (mutualInductance / dt) * i1
	assert.InDelta(t, wantV2, x[2], wantV2*1e-9, "L2's node voltage must equal the induced mutual back-EMF")
}
