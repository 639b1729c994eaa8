// Package ac implements the small-signal AC engine: given a DC
// operating point, it linearizes every nonlinear device once and
// sweeps a complex MNA solve across a frequency list, linear or
// logarithmic. A solve failure at one frequency is logged and
// recorded as a zero column; the sweep never aborts.
package ac

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gospice/mnaspice/pkg/device"
	"github.com/gospice/mnaspice/pkg/mna"
	"github.com/gospice/mnaspice/pkg/netlist"
	"github.com/gospice/mnaspice/pkg/solver"
)

type Options struct {
	Sparse bool
	Gmin   float64
}

func NewOptions() Options {
	return Options{Gmin: 1e-12}
}

type Option func(*Options)

func WithSparse(b bool) Option { return func(o *Options) { o.Sparse = b } }
func WithGmin(g float64) Option { return func(o *Options) { o.Gmin = g } }

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

// Result holds one complex solution column per swept frequency. Each
// entry of X is a full 1-based solution vector (index 0 unused).
type Result struct {
	Frequencies []float64
	X           [][]complex128
}

// Sweep runs the frequency sweep described by spec, reusing xdc (the
// DC operating point) for every nonlinear device's small-signal
// linearization.
func (e *Engine) Sweep(xdc []float64, spec netlist.ACDirective) (*Result, error) {
	size := e.View.Size(device.KindAC)

	for _, d := range e.View.Devices {
		if d.IsNonlinear() {
			d.CalcOpPoint(xdc)
		}
	}

	freqs := e.frequencies(spec)
	result := &Result{Frequencies: freqs, X: make([][]complex128, len(freqs))}

	for idx, f := range freqs {
		omega := 2 * math.Pi * f
		m := solver.NewComplexMatrix(size, e.Opts.Sparse)
		stamper := mna.Complex{M: m}

		stamper.Begin()
		var stampErr error
		for _, d := range e.View.Devices {
			auxIdx, _ := e.View.AuxIndex(device.KindAC, d)
			if err := d.StampAC(m, xdc, auxIdx, omega); err != nil {
				stampErr = fmt.Errorf("stamp %s: %w", d.Name(), err)
				break
			}
		}
		if stampErr != nil {
			m.Destroy()
			return nil, fmt.Errorf("ac: %w", stampErr)
		}
		stamper.Finish(e.Opts.Gmin)

		solved, err := m.Solve()
		if err != nil || !solved {
			e.Log.Error().Err(err).Float64("freq_hz", f).Msg("ac: solve failed, recording zero column and continuing sweep")
			result.X[idx] = make([]complex128, size+1)
		} else {
			result.X[idx] = m.Solution()
		}
		m.Destroy()
	}
	return result, nil
}

func (e *Engine) frequencies(spec netlist.ACDirective) []float64 {
	switch strings.ToUpper(spec.Sweep) {
	case "LIN":
		return linSpace(spec.FStart, spec.FStop, spec.Points)
	case "DEC", "OCT":
		return logSpace(spec.FStart, spec.FStop, spec.Points)
	default:
		e.Log.Warn().Str("sweep", spec.Sweep).Msg("ac: unrecognized sweep type, falling back to two-point linear sweep")
		return linSpace(spec.FStart, spec.FStop, 2)
	}
}

func linSpace(start, stop float64, n int) []float64 {
	if n <= 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func logSpace(start, stop float64, n int) []float64 {
	if n <= 1 {
		return []float64{start}
	}
	if start <= 0 {
		start = 1e-9
	}
	ratio := math.Pow(stop/start, 1.0/float64(n-1))
	out := make([]float64, n)
	f := start
	for i := range out {
		out[i] = f
		f *= ratio
	}
	return out
}
