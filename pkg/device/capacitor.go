package device

import (
	"github.com/gospice/mnaspice/pkg/mna"
)

// Capacitor stamps a backward-Euler companion model in Transient
// (geq = C/dt in parallel with a history current source) and is an
// open circuit in DC. The engine's global Gmin keeps a DC node that
// only a capacitor touches from floating.
type Capacitor struct {
	BaseDevice
	Farads float64
}

func NewCapacitor(name string, nodes []int, farads float64) *Capacitor {
	return &Capacitor{
		BaseDevice: BaseDevice{DeviceName: name, NodeList: nodes},
		Farads:     farads,
	}
}

func (c *Capacitor) StampDC(m mna.RealStamper, x []float64, auxIdx int) error {
	return nil
}

func (c *Capacitor) StampAC(m mna.ComplexStamper, xdc []float64, auxIdx int, omega float64) error {
	n1, n2 := c.NodeList[0], c.NodeList[1]
	b := omega * c.Farads // admittance C*jw, imaginary part only
	if n1 != 0 {
		m.AddElement(n1, n1, 0, b)
		if n2 != 0 {
			m.AddElement(n1, n2, 0, -b)
		}
	}
	if n2 != 0 {
		m.AddElement(n2, n2, 0, b)
		if n1 != 0 {
			m.AddElement(n2, n1, 0, -b)
		}
	}
	return nil
}

func (c *Capacitor) StampTran(m mna.RealStamper, xk []float64, auxIdx int, hist *History, t, dt float64) error {
	n1, n2 := c.NodeList[0], c.NodeList[1]

	vPrev := 0.0
	if last, ok := hist.At(0); ok {
		vPrev = nodeVoltage(last.X, n1) - nodeVoltage(last.X, n2)
	}

	geq := c.Farads / dt
	ieq := geq * vPrev

	if n1 != 0 {
		m.AddElement(n1, n1, geq)
		if n2 != 0 {
			m.AddElement(n1, n2, -geq)
		}
		m.AddRHS(n1, ieq)
	}
	if n2 != 0 {
		m.AddElement(n2, n2, geq)
		if n1 != 0 {
			m.AddElement(n2, n1, -geq)
		}
		m.AddRHS(n2, -ieq)
	}
	return nil
}
