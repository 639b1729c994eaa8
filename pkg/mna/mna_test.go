package mna_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gospice/mnaspice/pkg/mna"
	"github.com/gospice/mnaspice/pkg/solver"
)

// TestReal_BeginFinish_ZeroStampGmin exercises the zero-stamp-gmin
// protocol: Begin clears any stale assembly, a stamp
// adds into A/z, and Finish adds gmin to every diagonal entry
// including one a device never touched.
func TestReal_BeginFinish_ZeroStampGmin(t *testing.T) {
	m := solver.NewRealMatrix(2, false)
	defer m.Destroy()
	r := mna.Real{M: m}

	r.Begin()
	m.AddElement(1, 1, 1e-3)
	m.AddRHS(1, 1e-3)
	// node 2 is never stamped by any device.
	r.Finish(1e-9)

	solved, err := m.Solve()
	require.NoError(t, err)
	require.True(t, solved)
	x := m.Solution()
	assert.InDelta(t, 1.0, x[1], 1e-3)
	assert.InDelta(t, 0.0, x[2], 1e-3, "an untouched node is only regularized by gmin, not driven")
}

// TestReal_Begin_ClearsPriorAssembly checks that Begin (Clear) removes
// a stamp from a previous analysis attempt (A and z are
// cleared to zero before every assembly).
func TestReal_Begin_ClearsPriorAssembly(t *testing.T) {
	m := solver.NewRealMatrix(1, false)
	defer m.Destroy()
	r := mna.Real{M: m}

	r.Begin()
	m.AddElement(1, 1, 1e6)
	m.AddRHS(1, 1e6)
	r.Finish(0)
	s1, err := m.Solve()
	require.NoError(t, err)
	require.True(t, s1)
	assert.InDelta(t, 1.0, m.Solution()[1], 1e-6)

	r.Begin()
	m.AddRHS(1, 1)
	r.Finish(1e-3)
	s2, err := m.Solve()
	require.NoError(t, err)
	require.True(t, s2)
	assert.InDelta(t, 1000.0, m.Solution()[1], 1e-3, "only the fresh gmin diagonal should remain")
}

// TestComplex_BeginFinish mirrors the real test in the complex domain.
func TestComplex_BeginFinish(t *testing.T) {
	m := solver.NewComplexMatrix(1, false)
	defer m.Destroy()
	c := mna.Complex{M: m}

	c.Begin()
	m.AddRHS(1, 1, 0)
	c.Finish(1e-3)
	solved, err := m.Solve()
	require.NoError(t, err)
	require.True(t, solved)
	assert.InDelta(t, 1000.0, real(m.Solution()[1]), 1e-3)
	assert.InDelta(t, 0, imag(m.Solution()[1]), 1e-9)
}
