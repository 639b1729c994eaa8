package device

import (
	"github.com/gospice/mnaspice/pkg/mna"
)

// Inductor introduces one auxiliary branch-current unknown and
// stamps a short circuit in DC, V(n1)-V(n2) = jwL*i in AC, and a
// backward-Euler companion model in Transient. The auxiliary-branch
// formulation is used in all three analyses so the branch current is
// always a first-class unknown, matching the VoltageSource pattern.
type Inductor struct {
	BaseDevice
	Henries float64

	// AuxIdx mirrors the auxIdx the netlist assigns this device's
	// branch-current unknown to. Stamp methods receive it as a
	// parameter already; netlist.Build keeps a copy here so Mutual can
	// read a coupled inductor's current out of the Transient history
	// without the netlist threading a second index through every call.
	AuxIdx int
}

func NewInductor(name string, nodes []int, henries float64) *Inductor {
	return &Inductor{
		BaseDevice: BaseDevice{DeviceName: name, NodeList: nodes},
		Henries:    henries,
	}
}

func (l *Inductor) AuxCount(AnalysisKind) int { return 1 }

func (l *Inductor) stampKCL(n1, n2, auxIdx int, add func(i, j int, val float64)) {
	if n1 != 0 {
		add(n1, auxIdx, 1)
		add(auxIdx, n1, 1)
	}
	if n2 != 0 {
		add(n2, auxIdx, -1)
		add(auxIdx, n2, -1)
	}
}

func (l *Inductor) StampDC(m mna.RealStamper, x []float64, auxIdx int) error {
	n1, n2 := l.NodeList[0], l.NodeList[1]
	l.stampKCL(n1, n2, auxIdx, m.AddElement)
	// Short circuit: V(n1) - V(n2) = 0, no aux self term.
	return nil
}

func (l *Inductor) StampAC(m mna.ComplexStamper, xdc []float64, auxIdx int, omega float64) error {
	n1, n2 := l.NodeList[0], l.NodeList[1]
	l.stampKCL(n1, n2, auxIdx, func(i, j int, val float64) { m.AddElement(i, j, val, 0) })
	// V(n1) - V(n2) - jwL*i = 0
	m.AddElement(auxIdx, auxIdx, 0, -omega*l.Henries)
	return nil
}

func (l *Inductor) StampTran(m mna.RealStamper, xk []float64, auxIdx int, hist *History, t, dt float64) error {
	n1, n2 := l.NodeList[0], l.NodeList[1]
	l.stampKCL(n1, n2, auxIdx, m.AddElement)

	iPrev := 0.0
	if last, ok := hist.At(0); ok {
		iPrev = auxValue(last.X, auxIdx)
	}

	geq := l.Henries / dt
	// V(n1) - V(n2) - geq*i = -geq*iPrev
	m.AddElement(auxIdx, auxIdx, -geq)
	m.AddRHS(auxIdx, -geq*iPrev)
	return nil
}

// auxValue reads an auxiliary unknown defensively, same convention as nodeVoltage.
func auxValue(x []float64, idx int) float64 {
	if idx <= 0 || idx >= len(x) {
		return 0
	}
	return x[idx]
}
