// Package device defines the device contract, the polymorphic
// interface every circuit element implements, and the concrete
// devices (resistor, independent sources, capacitor, inductor, diode,
// BJT, mutual inductance) built against it.
//
// Every nonlinear device keeps two copies of its operating-point
// state, current and saved, so a failed transient step can roll the
// device back, plus a per-junction "previous limited voltage" used by
// voltage limiting. The operating point is a fixed struct per model;
// save/restore is a plain value copy.
package device

import (
	"github.com/gospice/mnaspice/pkg/mna"
)

// AnalysisKind names which of the three analyses a stamp or an
// auxiliary-unknown count applies to. A device may request a
// different aux count for AC than for DC/Transient.
type AnalysisKind int

const (
	KindDC AnalysisKind = iota
	KindAC
	KindTransient
)

func (k AnalysisKind) String() string {
	switch k {
	case KindDC:
		return "dc"
	case KindAC:
		return "ac"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Sample is one committed (t, x) pair in the Transient history.
type Sample struct {
	T float64
	X []float64
}

// History is the chronologically ordered, append-only sequence of
// committed transient solutions. Devices get read-only access to it
// through StampTran to build backward-Euler companion models.
type History struct {
	samples []Sample
}

// NewHistory returns an empty history.
func NewHistory() *History { return &History{} }

// Append grows the committed tail. Existing entries are never
// mutated; only the tail grows.
func (h *History) Append(t float64, x []float64) {
	h.samples = append(h.samples, Sample{T: t, X: append([]float64(nil), x...)})
}

// Len returns the number of committed samples.
func (h *History) Len() int { return len(h.samples) }

// At returns the k-th sample from the end (0 = most recent).
func (h *History) At(k int) (Sample, bool) {
	idx := len(h.samples) - 1 - k
	if idx < 0 || idx >= len(h.samples) {
		return Sample{}, false
	}
	return h.samples[idx], true
}

// Device is the capability set every circuit element implements.
type Device interface {
	Name() string
	Nodes() []int
	SetNodes(nodes []int)

	// AuxCount reports the number of auxiliary current unknowns this
	// device introduces for the given analysis kind.
	AuxCount(kind AnalysisKind) int

	// IsNonlinear reports whether this device requires Newton iteration.
	IsNonlinear() bool

	// Init is called by the DC and Transient engines at the start of
	// each run; it clears voltage-limiter state and any other
	// per-analysis memory, so one run never contaminates the next. The
	// AC engine does not call it.
	Init()

	// CalcOpPoint updates the operating-point state from a candidate
	// solution x. Called once per Newton iteration for nonlinear devices.
	CalcOpPoint(x []float64)

	// SaveOpPoint commits the current operating point as the rollback
	// point; RestoreOpPoint discards the current one and reinstates it.
	SaveOpPoint()
	RestoreOpPoint()

	// StampDC contributes the DC stamp, linearized about the current
	// operating point.
	StampDC(m mna.RealStamper, x []float64, auxIdx int) error

	// StampAC contributes the complex small-signal stamp, built from
	// the operating point produced by the most recent DC solve.
	StampAC(m mna.ComplexStamper, xdc []float64, auxIdx int, omega float64) error

	// StampTran contributes the companion-model stamp for one Newton
	// step of one time step.
	StampTran(m mna.RealStamper, xk []float64, auxIdx int, hist *History, t, dt float64) error

	// CheckVLimit is the post-solve predicate: is the limited voltage
	// consistent with the newly produced solution?
	CheckVLimit(x []float64, tol float64) bool

	// SaveTran updates per-device integrator state after a committed step.
	SaveTran(hist *History, dt float64)
}

// BaseDevice supplies the identity bookkeeping and linear-device
// no-op defaults (zero aux, not nonlinear, vlimit trivially satisfied)
// every concrete device embeds and overrides as needed.
type BaseDevice struct {
	DeviceName string
	NodeList   []int
}

func (d *BaseDevice) Name() string              { return d.DeviceName }
func (d *BaseDevice) Nodes() []int              { return d.NodeList }
func (d *BaseDevice) SetNodes(n []int)          { d.NodeList = n }
func (d *BaseDevice) AuxCount(AnalysisKind) int { return 0 }
func (d *BaseDevice) IsNonlinear() bool         { return false }
func (d *BaseDevice) Init()                     {}
func (d *BaseDevice) CalcOpPoint([]float64)     {}
func (d *BaseDevice) SaveOpPoint()              {}
func (d *BaseDevice) RestoreOpPoint()           {}
func (d *BaseDevice) CheckVLimit([]float64, float64) bool { return true }
func (d *BaseDevice) SaveTran(*History, float64)          {}

// nodeVoltage reads x[node], treating node 0 (ground) as always 0 and
// an out-of-range slot defensively as 0 rather than panicking.
func nodeVoltage(x []float64, node int) float64 {
	if node <= 0 || node >= len(x) {
		return 0
	}
	return x[node]
}
