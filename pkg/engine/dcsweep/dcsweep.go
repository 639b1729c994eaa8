// Package dcsweep wraps the DC engine in a source sweep: one
// operating-point solve per swept value of a named voltage or current
// source, each seeded with the previous point's solution.
package dcsweep

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gospice/mnaspice/pkg/device"
	"github.com/gospice/mnaspice/pkg/engine/dc"
	"github.com/gospice/mnaspice/pkg/netlist"
)

// Engine runs the DC engine once per point of a single source sweep.
type Engine struct {
	View   *netlist.View
	DC     *dc.Engine
	Log    zerolog.Logger
}

func New(view *netlist.View, log zerolog.Logger, opts ...dc.Option) *Engine {
	return &Engine{View: view, DC: dc.New(view, log, opts...), Log: log}
}

// Result holds one DC solution per swept source value.
type Result struct {
	Values     []float64
	Solutions  [][]float64
}

func settable(d device.Device) (get func() float64, set func(float64), ok bool) {
	switch v := d.(type) {
	case *device.VoltageSource:
		return func() float64 { return v.DCValue }, func(val float64) { v.DCValue = val }, true
	case *device.CurrentSource:
		return func() float64 { return v.DCValue }, func(val float64) { v.DCValue = val }, true
	default:
		return nil, nil, false
	}
}

// Sweep steps sourceName's DC value from start to stop (inclusive)
// in increment-sized steps, solving DC at each point and restoring the
// source's original value afterward.
func (e *Engine) Sweep(sourceName string, start, stop, increment float64) (*Result, error) {
	var target device.Device
	for _, d := range e.View.Devices {
		if d.Name() == sourceName {
			target = d
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("dcsweep: source %s not found", sourceName)
	}
	get, set, ok := settable(target)
	if !ok {
		return nil, fmt.Errorf("dcsweep: %s is not a voltage or current source", sourceName)
	}
	if increment == 0 {
		return nil, fmt.Errorf("dcsweep: increment must be nonzero")
	}

	original := get()
	defer set(original)

	result := &Result{}
	var x0 []float64
	for v := start; (increment > 0 && v <= stop) || (increment < 0 && v >= stop); v += increment {
		set(v)
		sol, err := e.DC.Solve(x0)
		if err != nil {
			return nil, fmt.Errorf("dcsweep: solve at %s=%g: %w", sourceName, v, err)
		}
		result.Values = append(result.Values, v)
		result.Solutions = append(result.Solutions, sol)
		x0 = sol
	}
	return result, nil
}
