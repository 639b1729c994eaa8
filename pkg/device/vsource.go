package device

import (
	"fmt"
	"math"

	"github.com/gospice/mnaspice/pkg/mna"
)

// WaveKind selects a source's time-domain waveform. For a voltage
// source PULSE/PWL are unimplemented; voltageAt falls back to the DC
// value for them so a netlist that names one still simulates rather
// than panicking. CurrentSource carries the full PULSE shape.
type WaveKind int

const (
	WaveDC WaveKind = iota
	WaveSIN
	WavePULSE
	WavePWL
)

// VoltageSource is an independent voltage source: it introduces one
// auxiliary branch-current unknown and stamps the classic MNA voltage
// constraint row.
type VoltageSource struct {
	BaseDevice
	Wave WaveKind

	DCValue   float64
	Amplitude float64
	Freq      float64
	PhaseDeg  float64

	ACMag   float64
	ACPhase float64
}

// NewDCVoltageSource builds a constant source. nodes is [n+, n-].
func NewDCVoltageSource(name string, nodes []int, value float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: BaseDevice{DeviceName: name, NodeList: nodes},
		Wave:       WaveDC,
		DCValue:    value,
		ACMag:      value,
	}
}

// NewSinVoltageSource builds a sinusoidal source: offset + amplitude*sin(2*pi*freq*t + phase).
func NewSinVoltageSource(name string, nodes []int, offset, amplitude, freq, phaseDeg float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: BaseDevice{DeviceName: name, NodeList: nodes},
		Wave:       WaveSIN,
		DCValue:    offset,
		Amplitude:  amplitude,
		Freq:       freq,
		PhaseDeg:   phaseDeg,
	}
}

// WithAC overrides the small-signal magnitude/phase used by StampAC,
// independent of the transient waveform.
func (v *VoltageSource) WithAC(mag, phaseDeg float64) *VoltageSource {
	v.ACMag, v.ACPhase = mag, phaseDeg
	return v
}

func (v *VoltageSource) AuxCount(AnalysisKind) int { return 1 }

func (v *VoltageSource) voltageAt(t float64) float64 {
	switch v.Wave {
	case WaveSIN:
		phaseRad := v.PhaseDeg * math.Pi / 180.0
		return v.DCValue + v.Amplitude*math.Sin(2.0*math.Pi*v.Freq*t+phaseRad)
	default:
		return v.DCValue
	}
}

func (v *VoltageSource) stampConstraintRow(n1, n2, branch int, add func(i, j int, val float64)) {
	if n1 != 0 {
		add(branch, n1, 1)
		add(n1, branch, 1)
	}
	if n2 != 0 {
		add(branch, n2, -1)
		add(n2, branch, -1)
	}
}

func (v *VoltageSource) StampDC(m mna.RealStamper, x []float64, auxIdx int) error {
	if len(v.NodeList) != 2 {
		return fmt.Errorf("vsource %s: requires exactly 2 nodes", v.DeviceName)
	}
	n1, n2 := v.NodeList[0], v.NodeList[1]
	v.stampConstraintRow(n1, n2, auxIdx, m.AddElement)
	m.AddRHS(auxIdx, v.voltageAt(0))
	return nil
}

func (v *VoltageSource) StampAC(m mna.ComplexStamper, xdc []float64, auxIdx int, omega float64) error {
	if len(v.NodeList) != 2 {
		return fmt.Errorf("vsource %s: requires exactly 2 nodes", v.DeviceName)
	}
	n1, n2 := v.NodeList[0], v.NodeList[1]
	v.stampConstraintRow(n1, n2, auxIdx, func(i, j int, val float64) { m.AddElement(i, j, val, 0) })

	phaseRad := v.ACPhase * math.Pi / 180.0
	re := v.ACMag * math.Cos(phaseRad)
	im := v.ACMag * math.Sin(phaseRad)
	m.AddRHS(auxIdx, re, im)
	return nil
}

func (v *VoltageSource) StampTran(m mna.RealStamper, xk []float64, auxIdx int, hist *History, t, dt float64) error {
	if len(v.NodeList) != 2 {
		return fmt.Errorf("vsource %s: requires exactly 2 nodes", v.DeviceName)
	}
	n1, n2 := v.NodeList[0], v.NodeList[1]
	v.stampConstraintRow(n1, n2, auxIdx, m.AddElement)
	m.AddRHS(auxIdx, v.voltageAt(t))
	return nil
}
