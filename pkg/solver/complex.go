package solver

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/edp1096/sparse"
)

// ComplexMatrix backs AC MNA assembly. Same 1-based, ground-excluded
// indexing convention as RealMatrix.
type ComplexMatrix struct {
	Size   int
	sparse bool

	// sparse backend: github.com/edp1096/sparse natively supports a
	// complex factorization, selected via Configuration.Complex.
	sp        *sparse.Matrix
	config    *sparse.Configuration
	spRHSRe   []float64
	spRHSIm   []float64
	spSolRe   []float64
	spSolIm   []float64

	// dense backend: gonum's dense LU is real-only, so this is a
	// hand-rolled Gaussian elimination with partial pivoting over
	// complex128.
	dn    [][]complex128
	dnRHS []complex128
	dnSol []complex128
}

func NewComplexMatrix(size int, useSparse bool) *ComplexMatrix {
	m := &ComplexMatrix{Size: size, sparse: useSparse}

	if useSparse {
		m.config = &sparse.Configuration{
			Real:                    true,
			Complex:                 true,
			SeparatedComplexVectors: true,
			Expandable:              true,
			ModifiedNodal:           true,
			TiesMultiplier:          5,
		}
		sp, err := sparse.Create(int64(size), m.config)
		if err == nil {
			m.sp = sp
		}
		m.spRHSRe = make([]float64, size+1)
		m.spRHSIm = make([]float64, size+1)
		m.spSolRe = make([]float64, size+1)
		m.spSolIm = make([]float64, size+1)
		return m
	}

	m.dn = make([][]complex128, size+1)
	for i := range m.dn {
		m.dn[i] = make([]complex128, size+1)
	}
	m.dnRHS = make([]complex128, size+1)
	m.dnSol = make([]complex128, size+1)
	return m
}

func (m *ComplexMatrix) AddElement(i, j int, re, im float64) {
	if i < 1 || i > m.Size || j < 1 || j > m.Size {
		return
	}
	if m.sparse {
		if m.sp == nil {
			return
		}
		e := m.sp.GetElement(int64(i), int64(j))
		e.Real += re
		e.Imag += im
		return
	}
	m.dn[i][j] += complex(re, im)
}

func (m *ComplexMatrix) AddRHS(i int, re, im float64) {
	if i < 1 || i > m.Size {
		return
	}
	if m.sparse {
		m.spRHSRe[i] += re
		m.spRHSIm[i] += im
		return
	}
	m.dnRHS[i] += complex(re, im)
}

func (m *ComplexMatrix) LoadGmin(gmin float64) {
	for i := 1; i <= m.Size; i++ {
		m.AddElement(i, i, gmin, 0)
	}
}

func (m *ComplexMatrix) Clear() {
	if m.sparse {
		if m.sp != nil {
			m.sp.Clear()
		}
		for i := range m.spRHSRe {
			m.spRHSRe[i], m.spRHSIm[i] = 0, 0
		}
		return
	}
	for i := range m.dn {
		for j := range m.dn[i] {
			m.dn[i][j] = 0
		}
		m.dnRHS[i] = 0
	}
}

func (m *ComplexMatrix) Solve() (bool, error) {
	if m.sparse {
		if m.sp == nil {
			return false, fmt.Errorf("solver: sparse backend unavailable")
		}
		// Factor/solve failures surface through the solved flag, as in
		// RealMatrix.Solve, with the solution filled with NaN.
		fail := func() (bool, error) {
			m.spSolRe = make([]float64, m.Size+1)
			m.spSolIm = make([]float64, m.Size+1)
			for i := 1; i <= m.Size; i++ {
				m.spSolRe[i], m.spSolIm[i] = math.NaN(), math.NaN()
			}
			return false, nil
		}
		if err := m.sp.Factor(); err != nil {
			return fail()
		}
		re, im, err := m.sp.SolveComplex(m.spRHSRe, m.spRHSIm)
		if err != nil {
			return fail()
		}
		m.spSolRe, m.spSolIm = re, im
		return !hasNaNComplex(m.spSolRe, m.spSolIm), nil
	}

	sol, ok := denseComplexSolve(m.dn, m.dnRHS, m.Size)
	m.dnSol = sol
	return ok, nil
}

// Solution returns the solved complex vector, 1-based.
func (m *ComplexMatrix) Solution() []complex128 {
	if m.sparse {
		out := make([]complex128, len(m.spSolRe))
		for i := range out {
			out[i] = complex(m.spSolRe[i], m.spSolIm[i])
		}
		return out
	}
	return m.dnSol
}

func (m *ComplexMatrix) Destroy() {
	if m.sparse && m.sp != nil {
		m.sp.Destroy()
	}
}

func hasNaNComplex(re, im []float64) bool {
	for i := range re {
		if math.IsNaN(re[i]) || math.IsNaN(im[i]) {
			return true
		}
	}
	return false
}

func hasNaNComplex128(x []complex128) bool {
	for _, v := range x {
		if cmplx.IsNaN(v) {
			return true
		}
	}
	return false
}
