package device

import (
	"math"

	"github.com/gospice/mnaspice/pkg/mna"
)

// CurrentSource is an independent current source: no auxiliary
// unknown, a pure RHS stamp by KCL. DC, SIN, and PULSE waveforms.
type CurrentSource struct {
	BaseDevice
	Wave WaveKind

	DCValue   float64
	Amplitude float64
	Freq      float64
	PhaseDeg  float64

	I1, I2, Delay, Rise, Fall, PWidth, Period float64

	ACMag   float64
	ACPhase float64
}

func NewDCCurrentSource(name string, nodes []int, value float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: BaseDevice{DeviceName: name, NodeList: nodes},
		Wave:       WaveDC,
		DCValue:    value,
		ACMag:      value,
	}
}

func NewSinCurrentSource(name string, nodes []int, offset, amplitude, freq, phaseDeg float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: BaseDevice{DeviceName: name, NodeList: nodes},
		Wave:       WaveSIN,
		DCValue:    offset,
		Amplitude:  amplitude,
		Freq:       freq,
		PhaseDeg:   phaseDeg,
	}
}

func NewPulseCurrentSource(name string, nodes []int, i1, i2, delay, rise, fall, pWidth, period float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: BaseDevice{DeviceName: name, NodeList: nodes},
		Wave:       WavePULSE,
		I1:         i1, I2: i2, Delay: delay, Rise: rise, Fall: fall, PWidth: pWidth, Period: period,
	}
}

func (i *CurrentSource) WithAC(mag, phaseDeg float64) *CurrentSource {
	i.ACMag, i.ACPhase = mag, phaseDeg
	return i
}

func (i *CurrentSource) currentAt(t float64) float64 {
	switch i.Wave {
	case WaveSIN:
		phaseRad := i.PhaseDeg * math.Pi / 180.0
		return i.DCValue + i.Amplitude*math.Sin(2.0*math.Pi*i.Freq*t+phaseRad)
	case WavePULSE:
		return i.pulseAt(t)
	default:
		return i.DCValue
	}
}

func (i *CurrentSource) pulseAt(t float64) float64 {
	if t < i.Delay {
		return i.I1
	}
	t = t - i.Delay
	if i.Period > 0 {
		t = math.Mod(t, i.Period)
	}
	if t < i.Rise {
		if i.Rise == 0 {
			return i.I2
		}
		return i.I1 + (i.I2-i.I1)*t/i.Rise
	}
	if t < i.Rise+i.PWidth {
		return i.I2
	}
	fallStart := i.Rise + i.PWidth
	if t < fallStart+i.Fall {
		if i.Fall == 0 {
			return i.I1
		}
		return i.I2 - (i.I2-i.I1)*(t-fallStart)/i.Fall
	}
	return i.I1
}

func (i *CurrentSource) stampKCL(n1, n2 int, current float64, add func(node int, val float64)) {
	if n1 != 0 {
		add(n1, current)
	}
	if n2 != 0 {
		add(n2, -current)
	}
}

func (i *CurrentSource) StampDC(m mna.RealStamper, x []float64, auxIdx int) error {
	n1, n2 := i.NodeList[0], i.NodeList[1]
	i.stampKCL(n1, n2, i.currentAt(0), m.AddRHS)
	return nil
}

func (i *CurrentSource) StampAC(m mna.ComplexStamper, xdc []float64, auxIdx int, omega float64) error {
	n1, n2 := i.NodeList[0], i.NodeList[1]
	phaseRad := i.ACPhase * math.Pi / 180.0
	re := i.ACMag * math.Cos(phaseRad)
	im := i.ACMag * math.Sin(phaseRad)
	if n1 != 0 {
		m.AddRHS(n1, re, im)
	}
	if n2 != 0 {
		m.AddRHS(n2, -re, -im)
	}
	return nil
}

func (i *CurrentSource) StampTran(m mna.RealStamper, xk []float64, auxIdx int, hist *History, t, dt float64) error {
	n1, n2 := i.NodeList[0], i.NodeList[1]
	i.stampKCL(n1, n2, i.currentAt(t), m.AddRHS)
	return nil
}
