package solver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gospice/mnaspice/pkg/solver"
)

// TestComplexSolver_Identity checks A*solve(A,z) = z in the complex
// domain, where AC stamping lives. Exercises the dense backend
// (denseComplexSolve) only; the sparse complex backend is not covered
// here.
func TestComplexSolver_Identity(t *testing.T) {
	m := solver.NewComplexMatrix(2, false)
	defer m.Destroy()

	// (2+j1)x1 - j*x2 = 1
	// -j*x1 + (1+j2)x2 = 1-j
	m.AddElement(1, 1, 2, 1)
	m.AddElement(1, 2, 0, -1)
	m.AddElement(2, 1, 0, -1)
	m.AddElement(2, 2, 1, 2)
	m.AddRHS(1, 1, 0)
	m.AddRHS(2, 1, -1)

	solved, err := m.Solve()
	require.NoError(t, err)
	require.True(t, solved)

	x := m.Solution()
	a := [2][2]complex128{
		{complex(2, 1), complex(0, -1)},
		{complex(0, -1), complex(1, 2)},
	}
	z := []complex128{complex(1, 0), complex(1, -1)}

	for i := 0; i < 2; i++ {
		got := a[i][0]*x[1] + a[i][1]*x[2]
		assert.InDelta(t, real(z[i]), real(got), 1e-9)
		assert.InDelta(t, imag(z[i]), imag(got), 1e-9)
	}
}

// TestComplexSolver_Singular mirrors TestRealSolver_Singular in the
// complex domain.
func TestComplexSolver_Singular(t *testing.T) {
	m := solver.NewComplexMatrix(2, false)
	defer m.Destroy()

	m.AddElement(1, 1, 1, 0)
	m.AddElement(1, 2, -1, 0)
	m.AddElement(2, 1, -1, 0)
	m.AddElement(2, 2, 1, 0)
	m.AddRHS(1, 1, 0)
	m.AddRHS(2, -1, 0)

	solved, err := m.Solve()
	require.NoError(t, err)
	assert.False(t, solved)
}
