package device

import (
	"fmt"

	"github.com/gospice/mnaspice/pkg/mna"
)

// Resistor stamps a linear conductance between two nodes, with an
// optional linear/quadratic temperature coefficient.
type Resistor struct {
	BaseDevice
	Value float64
	Tc1   float64
	Tc2   float64
	Tnom  float64
	Temp  float64
}

// NewResistor builds a two-terminal resistor. nodes is [n1, n2].
func NewResistor(name string, nodes []int, ohms float64) *Resistor {
	return &Resistor{
		BaseDevice: BaseDevice{DeviceName: name, NodeList: nodes},
		Value:      ohms,
		Tnom:       300.15,
		Temp:       300.15,
	}
}

func (r *Resistor) conductance() float64 {
	dt := r.Temp - r.Tnom
	factor := 1.0 + r.Tc1*dt + r.Tc2*dt*dt
	return 1.0 / (r.Value * factor)
}

func (r *Resistor) stampConductance(addSelf func(n int, g float64), addMutual func(n1, n2 int, g float64), g float64) {
	n1, n2 := r.NodeList[0], r.NodeList[1]
	if n1 != 0 {
		addSelf(n1, g)
		if n2 != 0 {
			addMutual(n1, n2, -g)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			addMutual(n2, n1, -g)
		}
		addSelf(n2, g)
	}
}

func (r *Resistor) StampDC(m mna.RealStamper, x []float64, auxIdx int) error {
	if len(r.NodeList) != 2 {
		return fmt.Errorf("resistor %s: requires exactly 2 nodes", r.DeviceName)
	}
	g := r.conductance()
	r.stampConductance(
		func(n int, g float64) { m.AddElement(n, n, g) },
		func(n1, n2 int, g float64) { m.AddElement(n1, n2, g) },
		g,
	)
	return nil
}

func (r *Resistor) StampAC(m mna.ComplexStamper, xdc []float64, auxIdx int, omega float64) error {
	if len(r.NodeList) != 2 {
		return fmt.Errorf("resistor %s: requires exactly 2 nodes", r.DeviceName)
	}
	g := r.conductance()
	r.stampConductance(
		func(n int, g float64) { m.AddElement(n, n, g, 0) },
		func(n1, n2 int, g float64) { m.AddElement(n1, n2, g, 0) },
		g,
	)
	return nil
}

func (r *Resistor) StampTran(m mna.RealStamper, xk []float64, auxIdx int, hist *History, t, dt float64) error {
	return r.StampDC(m, xk, auxIdx)
}
