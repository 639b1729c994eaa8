package solver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gospice/mnaspice/pkg/solver"
)

// solveDense builds a k x k dense RealMatrix from row-major a and RHS
// z (both 1-based sized k+1, index 0 unused) and solves it.
func solveDense(t *testing.T, a [][]float64, z []float64, sparse bool) ([]float64, bool) {
	t.Helper()
	k := len(z) - 1
	m := solver.NewRealMatrix(k, sparse)
	defer m.Destroy()
	for i := 1; i <= k; i++ {
		for j := 1; j <= k; j++ {
			if a[i][j] != 0 {
				m.AddElement(i, j, a[i][j])
			}
		}
		m.AddRHS(i, z[i])
	}
	solved, err := m.Solve()
	require.NoError(t, err)
	return m.Solution(), solved
}

// TestRealSolver_Identity checks that for a non-singular A,
// A*solve(A,z) = z within a tight tolerance, for both the dense and
// sparse backends.
func TestRealSolver_Identity(t *testing.T) {
	a := [][]float64{
		{0, 0, 0, 0},
		{0, 4, 1, 0},
		{0, 1, 3, 1},
		{0, 0, 1, 2},
	}
	z := []float64{0, 1, 2, 3}

	for _, sparse := range []bool{false, true} {
		x, solved := solveDense(t, a, z, sparse)
		require.True(t, solved, "sparse=%v", sparse)

		for i := 1; i <= 3; i++ {
			var sum float64
			for j := 1; j <= 3; j++ {
				sum += a[i][j] * x[j]
			}
			assert.InDelta(t, z[i], sum, 1e-9, "sparse=%v row %d", sparse, i)
		}
	}
}

// TestRealSolver_Singular confirms a structurally singular system
// reports solved=false rather than panicking.
func TestRealSolver_Singular(t *testing.T) {
	a := [][]float64{
		{0, 0, 0},
		{0, 1, -1},
		{0, -1, 1},
	}
	z := []float64{0, 1, -1}

	for _, sparse := range []bool{false, true} {
		_, solved := solveDense(t, a, z, sparse)
		assert.False(t, solved, "sparse=%v", sparse)
	}
}

// TestRealMatrix_ClearAndGmin exercises the zero-then-gmin sequence
// every engine relies on: a stale stamp
// from a prior assembly must not survive Clear, and LoadGmin must
// reach every diagonal entry including an otherwise-untouched node.
func TestRealMatrix_ClearAndGmin(t *testing.T) {
	m := solver.NewRealMatrix(2, false)
	defer m.Destroy()

	// First assembly: couple node 1 and 2 tightly.
	m.AddElement(1, 1, 1e6)
	m.AddElement(1, 2, -1e6)
	m.AddElement(2, 1, -1e6)
	m.AddElement(2, 2, 1e6)
	m.AddRHS(1, 1)

	// Second assembly: only gmin on the diagonal, node 1 driven by a
	// unit current. If the stale coupling above survived Clear, x[2]
	// would be dragged up to x[1] instead of staying near 0.
	m.Clear()
	const gmin = 1e-9
	m.LoadGmin(gmin)
	m.AddRHS(1, 1)

	solved, err := m.Solve()
	require.NoError(t, err)
	require.True(t, solved)
	x := m.Solution()
	assert.InDelta(t, 1/gmin, x[1], 1e-3*1/gmin)
	assert.InDelta(t, 0, x[2], 1e-6)
}
