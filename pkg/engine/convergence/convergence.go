// Package convergence implements the three-part Newton convergence
// test shared by the DC and Transient engines: voltage convergence
// over node indices, current convergence over auxiliary indices, and
// limit convergence via every device's CheckVLimit. All three must
// hold simultaneously.
package convergence

import (
	"math"

	"github.com/gospice/mnaspice/pkg/device"
	"github.com/gospice/mnaspice/pkg/netlist"
)

// Tolerances bundles the three numeric convergence knobs.
type Tolerances struct {
	Reltol  float64
	Vabstol float64
	Iabstol float64
}

func closeEnough(a, b, reltol, abstol float64) bool {
	return math.Abs(a-b) <= reltol*math.Max(math.Abs(a), math.Abs(b))+abstol
}

// Check evaluates the predicate between the previous Newton iterate xk
// and the new candidate x, against every device's CheckVLimit.
func Check(view *netlist.View, devices []device.Device, xk, x []float64, tol Tolerances) bool {
	for i := 1; i <= view.NumNodes; i++ {
		if !closeEnough(x[i], xk[i], tol.Reltol, tol.Vabstol) {
			return false
		}
	}
	for i := view.NumNodes + 1; i < len(x) && i < len(xk); i++ {
		if !closeEnough(x[i], xk[i], tol.Reltol, tol.Iabstol) {
			return false
		}
	}
	for _, d := range devices {
		if !d.CheckVLimit(x, tol.Vabstol) {
			return false
		}
	}
	return true
}
