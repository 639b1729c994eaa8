// Package solver implements the Linear Solver component: it solves a
// possibly-singular complex or real linear system Ax = z with a choice
// between dense LU (partial pivoting) and sparse LU, returning the
// solution plus a solved flag derived from the absence of NaN in the
// result. It never treats a singular system as an error condition;
// higher layers (the DC/AC/Transient engines) decide how to recover.
//
// Matrix indices are 1-based and node 0 (ground) is never allocated a
// row or column at all: a RealMatrix/ComplexMatrix of size k holds
// exactly the n-1 node-voltage and m auxiliary-current unknowns;
// ground is excluded structurally rather than sliced out after
// assembly.
package solver

import (
	"fmt"
	"math"

	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"
)

// RealMatrix backs DC and Transient MNA assembly.
type RealMatrix struct {
	Size   int
	sparse bool

	// sparse backend
	sp     *sparse.Matrix
	spRHS  []float64
	spSol  []float64
	config *sparse.Configuration

	// dense backend
	dn    *mat.Dense
	dnRHS []float64
	dnSol []float64
}

// NewRealMatrix allocates a k x k system. useSparse selects the sparse
// column-compressed LU backend (github.com/edp1096/sparse); otherwise a
// dense partial-pivoting LU backend (gonum.org/v1/gonum/mat) is used.
func NewRealMatrix(size int, useSparse bool) *RealMatrix {
	m := &RealMatrix{Size: size, sparse: useSparse}

	if useSparse {
		m.config = &sparse.Configuration{
			Real:           true,
			Expandable:     true,
			ModifiedNodal:  true,
			TiesMultiplier: 5,
		}
		sp, err := sparse.Create(int64(size), m.config)
		if err != nil {
			// A nil backend degrades every Solve() to "not solved"
			// rather than panicking construction.
			m.sp = nil
		} else {
			m.sp = sp
		}
		m.spRHS = make([]float64, size+1)
		m.spSol = make([]float64, size+1)
		return m
	}

	m.dn = mat.NewDense(size, size, nil)
	m.dnRHS = make([]float64, size)
	m.dnSol = make([]float64, size+1)
	return m
}

func inBounds(i, j, size int) bool { return i >= 1 && i <= size && j >= 1 && j <= size }

// AddElement adds value into A[i][j], 1-based. Out-of-range indices
// (node 0, or a device miswired beyond the matrix size) are ignored:
// stamping must be commutative and idempotent, never panic mid-assembly.
func (m *RealMatrix) AddElement(i, j int, value float64) {
	if i < 1 || i > m.Size || j < 1 || j > m.Size {
		return
	}
	if m.sparse {
		if m.sp == nil {
			return
		}
		m.sp.GetElement(int64(i), int64(j)).Real += value
		return
	}
	m.dn.Set(i-1, j-1, m.dn.At(i-1, j-1)+value)
}

// AddRHS adds value into z[i], 1-based.
func (m *RealMatrix) AddRHS(i int, value float64) {
	if i < 1 || i > m.Size {
		return
	}
	if m.sparse {
		m.spRHS[i] += value
		return
	}
	m.dnRHS[i-1] += value
}

// LoadGmin adds gmin to every diagonal entry. Auxiliary-current rows
// are included: physically meaningless there, but it keeps the
// regularization uniform across the whole diagonal.
func (m *RealMatrix) LoadGmin(gmin float64) {
	for i := 1; i <= m.Size; i++ {
		m.AddElement(i, i, gmin)
	}
}

// Clear zeros A and z, required before every assembly.
func (m *RealMatrix) Clear() {
	if m.sparse {
		if m.sp != nil {
			m.sp.Clear()
		}
		for i := range m.spRHS {
			m.spRHS[i] = 0
		}
		return
	}
	m.dn.Zero()
	for i := range m.dnRHS {
		m.dnRHS[i] = 0
	}
}

// Solve factors and back-substitutes. solved is false exactly when the
// result contains NaN.
func (m *RealMatrix) Solve() (bool, error) {
	if m.sparse {
		if m.sp == nil {
			return false, fmt.Errorf("solver: sparse backend unavailable")
		}
		// A factor/solve failure (zero pivot on a structurally singular
		// system) is reported through the solved flag, not an error, so
		// every analysis shares one recovery path. The solution is filled
		// with NaN, as in the dense path.
		fail := func() (bool, error) {
			m.spSol = make([]float64, m.Size+1)
			for i := 1; i <= m.Size; i++ {
				m.spSol[i] = math.NaN()
			}
			return false, nil
		}
		if err := m.sp.Factor(); err != nil {
			return fail()
		}
		sol, err := m.sp.Solve(m.spRHS)
		if err != nil {
			return fail()
		}
		m.spSol = sol
		return !hasNaNReal(m.spSol), nil
	}

	var lu mat.LU
	lu.Factorize(m.dn)

	x := mat.NewVecDense(m.Size, nil)
	b := mat.NewVecDense(m.Size, m.dnRHS)
	m.dnSol[0] = 0

	if math.IsInf(lu.Cond(), 1) {
		for i := 1; i <= m.Size; i++ {
			m.dnSol[i] = math.NaN()
		}
		return false, nil
	}

	if err := lu.SolveVecTo(x, false, b); err != nil {
		for i := 1; i <= m.Size; i++ {
			m.dnSol[i] = math.NaN()
		}
		return false, nil
	}
	for i := 1; i <= m.Size; i++ {
		m.dnSol[i] = x.AtVec(i - 1)
	}
	return !hasNaNReal(m.dnSol), nil
}

// Solution returns the solved vector, 1-based (index 0 unused, always 0).
func (m *RealMatrix) Solution() []float64 {
	if m.sparse {
		return m.spSol
	}
	return m.dnSol
}

// Destroy releases the sparse backend's native resources.
func (m *RealMatrix) Destroy() {
	if m.sparse && m.sp != nil {
		m.sp.Destroy()
	}
}

func hasNaNReal(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
