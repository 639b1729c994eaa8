package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gospice/mnaspice/pkg/device"
	"github.com/gospice/mnaspice/pkg/solver"
)

// TestResistor_StampDC_ConductanceValue checks that a resistor stamps
// +/-1/R between its two nodes and nothing onto ground.
func TestResistor_StampDC_ConductanceValue(t *testing.T) {
	r := device.NewResistor("R1", []int{1, 2}, 1000)

	m := solver.NewRealMatrix(2, false)
	defer m.Destroy()
	require.NoError(t, r.StampDC(m, nil, 0))

	solved, err := m.Solve()
	require.NoError(t, err)
	assert.False(t, solved, "a bare floating resistor with no RHS/gmin is singular")

	// Confirm the conductance value itself by driving node 1 with a
	// unit current into the resistor-to-ground path (node 2 grounded
	// by construction: stamping only writes into 1 and 2, so tie node
	// 2 to ground by not allocating it; a 1-node resistor here).
	rGnd := device.NewResistor("R2", []int{1, 0}, 1000)
	m2 := solver.NewRealMatrix(1, false)
	defer m2.Destroy()
	require.NoError(t, rGnd.StampDC(m2, nil, 0))
	m2.AddRHS(1, 1e-3) // 1 mA into node 1
	solved2, err := m2.Solve()
	require.NoError(t, err)
	require.True(t, solved2)
	assert.InDelta(t, 1.0, m2.Solution()[1], 1e-9) // V = I*R = 1mA * 1kOhm = 1V
}

// TestResistor_StampSymmetric verifies stamp superposition: stamping
// two resistors in either order yields the same matrix, since stamps
// are commutative additions.
func TestResistor_StampSymmetric(t *testing.T) {
	r1 := device.NewResistor("R1", []int{1, 2}, 1000)
	r2 := device.NewResistor("R2", []int{2, 0}, 2000)

	order1 := solver.NewRealMatrix(2, false)
	defer order1.Destroy()
	require.NoError(t, r1.StampDC(order1, nil, 0))
	require.NoError(t, r2.StampDC(order1, nil, 0))
	order1.AddRHS(1, 1e-3)

	order2 := solver.NewRealMatrix(2, false)
	defer order2.Destroy()
	require.NoError(t, r2.StampDC(order2, nil, 0))
	require.NoError(t, r1.StampDC(order2, nil, 0))
	order2.AddRHS(1, 1e-3)

	s1, err := order1.Solve()
	require.NoError(t, err)
	require.True(t, s1)
	s2, err := order2.Solve()
	require.NoError(t, err)
	require.True(t, s2)

	assert.InDelta(t, order1.Solution()[1], order2.Solution()[1], 1e-12)
	assert.InDelta(t, order1.Solution()[2], order2.Solution()[2], 1e-12)
}
