// Package mna implements the MNA assembly protocol: Begin zeroes the
// system and Finish adds Gmin to every diagonal entry; the engines
// drive each device's stamp between the two calls. It is deliberately
// thin; the actual A/z storage and solve live in pkg/solver, and this
// package only owns the zero-then-gmin bracket every analysis shares.
package mna

// RealStamper is the surface a device's DC/Transient stamp writes
// into. Implemented by *solver.RealMatrix.
type RealStamper interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
}

// ComplexStamper is the surface a device's AC stamp writes into.
// Implemented by *solver.ComplexMatrix.
type ComplexStamper interface {
	AddElement(i, j int, re, im float64)
	AddRHS(i int, re, im float64)
}

// Real wraps a RealStamper with Gmin loading and clearing, used by the
// DC and Transient engines.
type Real struct {
	M interface {
		RealStamper
		Clear()
		LoadGmin(gmin float64)
	}
}

// Begin clears A and z; every assembly starts from zero.
func (r Real) Begin() { r.M.Clear() }

// Finish adds gmin to every diagonal entry.
func (r Real) Finish(gmin float64) { r.M.LoadGmin(gmin) }

// Complex is the AC analogue of Real.
type Complex struct {
	M interface {
		ComplexStamper
		Clear()
		LoadGmin(gmin float64)
	}
}

func (c Complex) Begin() { c.M.Clear() }

func (c Complex) Finish(gmin float64) { c.M.LoadGmin(gmin) }
