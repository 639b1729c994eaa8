// Package tran implements the transient engine: an outer time loop
// with adaptive step size wrapping an inner Newton iteration that
// reuses the DC engine's convergence test but stamps through each
// device's companion model (StampTran). The step adapts by doubling
// after a step that converged in under 5 iterations, halving after
// one that needed more than 10, and shrinking by 10x with a device
// rollback when a step fails to converge at all.
package tran

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/gospice/mnaspice/pkg/device"
	"github.com/gospice/mnaspice/pkg/engine/convergence"
	"github.com/gospice/mnaspice/pkg/engine/dc"
	"github.com/gospice/mnaspice/pkg/mna"
	"github.com/gospice/mnaspice/pkg/netlist"
	"github.com/gospice/mnaspice/pkg/solver"
)

type Options struct {
	Sparse        bool
	MaxIterations int
	Gmin          float64
	Reltol        float64
	Vabstol       float64
	Iabstol       float64
	Mintstep      float64
	InitialStep   float64
}

// NewOptions returns the standard defaults, with an initial dt of 1ps.
func NewOptions() Options {
	return Options{
		MaxIterations: 150,
		Gmin:          1e-12,
		Reltol:        1e-3,
		Vabstol:       1e-6,
		Iabstol:       1e-12,
		Mintstep:      1e-16,
		InitialStep:   1e-12,
	}
}

type Option func(*Options)

func WithSparse(b bool) Option         { return func(o *Options) { o.Sparse = b } }
func WithMaxIterations(n int) Option   { return func(o *Options) { o.MaxIterations = n } }
func WithGmin(g float64) Option        { return func(o *Options) { o.Gmin = g } }
func WithReltol(v float64) Option      { return func(o *Options) { o.Reltol = v } }
func WithVabstol(v float64) Option     { return func(o *Options) { o.Vabstol = v } }
func WithIabstol(v float64) Option     { return func(o *Options) { o.Iabstol = v } }
func WithMintstep(v float64) Option    { return func(o *Options) { o.Mintstep = v } }
func WithInitialStep(v float64) Option { return func(o *Options) { o.InitialStep = v } }

type Engine struct {
	View *netlist.View
	Opts Options
	Log  zerolog.Logger
}

func New(view *netlist.View, log zerolog.Logger, opts ...Option) *Engine {
	o := NewOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return &Engine{View: view, Opts: o, Log: log}
}

// Result is the committed (time, solution) series.
type Result struct {
	Times []float64
	X     [][]float64
}

// Run simulates from t=0 to tStop, capping dt at dtMax. x0 seeds the
// initial condition; if nil, a DC operating point is computed first.
func (e *Engine) Run(x0 []float64, tStop, dtMax float64) (*Result, error) {
	size := e.View.Size(device.KindTransient)
	for _, d := range e.View.Devices {
		d.Init()
	}

	x := x0
	if x == nil {
		dcEngine := dc.New(e.View, e.Log,
			dc.WithSparse(e.Opts.Sparse), dc.WithGmin(e.Opts.Gmin),
			dc.WithMaxIterations(e.Opts.MaxIterations), dc.WithReltol(e.Opts.Reltol),
			dc.WithVabstol(e.Opts.Vabstol), dc.WithIabstol(e.Opts.Iabstol))
		sol, err := dcEngine.Solve(nil)
		if err != nil {
			return nil, fmt.Errorf("tran: initial dc operating point failed: %w", err)
		}
		x = sol
	}

	hist := device.NewHistory()
	t, dt := 0.0, e.Opts.InitialStep
	hist.Append(t, x)
	for _, d := range e.View.Devices {
		d.SaveOpPoint()
		d.SaveTran(hist, dt)
	}

	result := &Result{Times: []float64{t}, X: [][]float64{append([]float64(nil), x...)}}

	for t < tStop {
		target := t + dt
		xNew, iters, err := e.newtonIterate(x, hist, target, dt, size)
		if err != nil {
			e.Log.Warn().Err(err).Float64("t", t).Float64("dt", dt).Msg("tran: step failed to converge, shrinking dt and retrying")
			for _, d := range e.View.Devices {
				d.RestoreOpPoint()
			}
			dt /= 10
			if dt < e.Opts.Mintstep {
				return nil, fmt.Errorf("tran: step size below mintstep at t=%g: %w", t, err)
			}
			continue
		}

		t = target
		x = xNew
		hist.Append(t, x)
		for _, d := range e.View.Devices {
			d.SaveOpPoint()
			d.SaveTran(hist, dt)
		}
		result.Times = append(result.Times, t)
		result.X = append(result.X, append([]float64(nil), x...))

		switch {
		case iters < 5:
			dt = math.Min(2*dt, dtMax)
		case iters > 10:
			dt /= 2
			e.Log.Debug().Float64("t", t).Float64("dt", dt).Int("iters", iters).Msg("tran: slow convergence, halving dt")
		}
	}
	return result, nil
}

func (e *Engine) newtonIterate(x0 []float64, hist *device.History, t, dt float64, size int) ([]float64, int, error) {
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
			auxIdx, _ := e.View.AuxIndex(device.KindTransient, d)
			if err := d.StampTran(m, xk, auxIdx, hist, t, dt); err != nil {
				return nil, iter, fmt.Errorf("stamp %s: %w", d.Name(), err)
			}
		}
		stamper.Finish(e.Opts.Gmin)

		solved, err := m.Solve()
		if err != nil {
			return nil, iter, fmt.Errorf("solve: %w", err)
		}
		if !solved {
			return nil, iter, fmt.Errorf("singular system at t=%g iteration %d", t, iter)
		}

		x := m.Solution()
		if iter > 0 && convergence.Check(e.View, e.View.Devices, xk, x, tol) {
			return x, iter + 1, nil
		}
		xk = append(xk[:0], x...)
	}
	return nil, e.Opts.MaxIterations, fmt.Errorf("newton failed to converge within %d iterations at t=%g", e.Opts.MaxIterations, t)
}
