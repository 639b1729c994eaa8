// Package dc implements the DC operating-point engine: a
// Newton-Raphson driver over the MNA assembler, with voltage limiting
// delegated to each device's CalcOpPoint and a Gmin-stepping homotopy
// fallback when the primitive loop fails to converge at the
// configured gmin.
package dc

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/gospice/mnaspice/pkg/device"
	"github.com/gospice/mnaspice/pkg/engine/convergence"
	"github.com/gospice/mnaspice/pkg/mna"
	"github.com/gospice/mnaspice/pkg/netlist"
	"github.com/gospice/mnaspice/pkg/solver"
)

// Options holds the per-analysis configuration knobs.
type Options struct {
	Sparse        bool
	MaxIterations int
	Gmin          float64
	Reltol        float64
	Vabstol       float64
	Iabstol       float64
}

// NewOptions returns the standard defaults.
func NewOptions() Options {
	return Options{
		MaxIterations: 150,
		Gmin:          1e-12,
		Reltol:        1e-3,
		Vabstol:       1e-6,
		Iabstol:       1e-12,
	}
}

// Option overrides one field of Options at construction.
type Option func(*Options)

func WithSparse(b bool) Option       { return func(o *Options) { o.Sparse = b } }
func WithMaxIterations(n int) Option { return func(o *Options) { o.MaxIterations = n } }
func WithGmin(g float64) Option      { return func(o *Options) { o.Gmin = g } }
func WithReltol(v float64) Option    { return func(o *Options) { o.Reltol = v } }
func WithVabstol(v float64) Option   { return func(o *Options) { o.Vabstol = v } }
func WithIabstol(v float64) Option   { return func(o *Options) { o.Iabstol = v } }

// Engine is the DC operating-point driver.
type Engine struct {
	View *netlist.View
	Opts Options
	Log  zerolog.Logger
}

// New builds a DC engine over a resolved netlist view.
func New(view *netlist.View, log zerolog.Logger, opts ...Option) *Engine {
	o := NewOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return &Engine{View: view, Opts: o, Log: log}
}

// Solve runs Newton-Raphson from x0 (nil starts at all-zero). If the
// primitive loop fails to converge at the configured gmin, it falls
// back to a Gmin-stepping homotopy: ramp gmin down from a large value
// in 10 decades, reusing each step's solution as the next guess.
func (e *Engine) Solve(x0 []float64) ([]float64, error) {
	size := e.View.Size(device.KindDC)
	for _, d := range e.View.Devices {
		d.Init()
	}

	x, _, err := e.newtonIterate(x0, e.Opts.Gmin, size)
	if err == nil {
		return x, nil
	}
	e.Log.Warn().Err(err).Msg("dc: newton failed at configured gmin, starting gmin-stepping homotopy")

	const numSteps = 10
	gmin := float64(size) * 0.001 * math.Pow(10, numSteps)
	xk := x0
	for i := 0; i <= numSteps; i++ {
		x, _, err := e.newtonIterate(xk, gmin, size)
		if err != nil {
			return nil, fmt.Errorf("dc: gmin-stepping failed at gmin=%g: %w", gmin, err)
		}
		xk = x
		gmin /= 10
	}

	x, _, err = e.newtonIterate(xk, e.Opts.Gmin, size)
	if err != nil {
		return nil, fmt.Errorf("dc: final solve at configured gmin failed: %w", err)
	}
	return x, nil
}

// newtonIterate runs the inner Newton loop at a fixed gmin:
// recompute operating points, assemble, solve, test convergence.
func (e *Engine) newtonIterate(x0 []float64, gmin float64, size int) ([]float64, int, error) {
	xk := make([]float64, size+1)
	if x0 != nil {
		copy(xk, x0)
	}

	m := solver.NewRealMatrix(size, e.Opts.Sparse)
	defer m.Destroy()
	stamper := mna.Real{M: m}

	tol := convergence.Tolerances{Reltol: e.Opts.Reltol, Vabstol: e.Opts.Vabstol, Iabstol: e.Opts.Iabstol}

	for iter := 0; iter < e.Opts.MaxIterations; iter++ {
		for _, d := range e.View.Devices {
			if d.IsNonlinear() {
				d.CalcOpPoint(xk)
			}
		}

		stamper.Begin()
		for _, d := range e.View.Devices {
			auxIdx, _ := e.View.AuxIndex(device.KindDC, d)
			if err := d.StampDC(m, xk, auxIdx); err != nil {
				return nil, iter, fmt.Errorf("stamp %s: %w", d.Name(), err)
			}
		}
		stamper.Finish(gmin)

		solved, err := m.Solve()
		if err != nil {
			return nil, iter, fmt.Errorf("solve: %w", err)
		}
		if !solved {
			return nil, iter, fmt.Errorf("singular system at iteration %d", iter)
		}

		x := m.Solution()
		if iter > 0 && convergence.Check(e.View, e.View.Devices, xk, x, tol) {
			return x, iter + 1, nil
		}
		xk = append(xk[:0], x...)
	}
	return nil, e.Opts.MaxIterations, fmt.Errorf("failed to converge in %d iterations", e.Opts.MaxIterations)
}
