package device

import (
	"fmt"
	"math"

	"github.com/gospice/mnaspice/pkg/mna"
)

// Mutual couples two already-placed inductors through a coupling
// coefficient k (M = k*sqrt(L1*L2)). It introduces no unknowns of its
// own; it reads and writes into the two inductors' existing
// auxiliary rows.
type Mutual struct {
	BaseDevice
	L1, L2      *Inductor
	Coefficient float64
}

// NewMutual couples two inductors with coupling coefficient k (0..1).
func NewMutual(name string, l1, l2 *Inductor, k float64) *Mutual {
	return &Mutual{
		BaseDevice:  BaseDevice{DeviceName: name},
		L1:          l1,
		L2:          l2,
		Coefficient: k,
	}
}

func (m *Mutual) mutualInductance() float64 {
	return m.Coefficient * math.Sqrt(m.L1.Henries*m.L2.Henries)
}

// StampDC is a no-op: at DC steady state di/dt is zero for both
// inductors, so the coupling term vanishes.
func (m *Mutual) StampDC(mtx mna.RealStamper, x []float64, auxIdx int) error {
	return nil
}

func (m *Mutual) StampAC(mtx mna.ComplexStamper, xdc []float64, auxIdx int, omega float64) error {
	if m.L1 == nil || m.L2 == nil {
		return fmt.Errorf("mutual %s: both inductors must be set", m.DeviceName)
	}
	mij := m.mutualInductance()
	b := omega * mij
	// V1 branch gets -jwM*i2 and vice versa.
	mtx.AddElement(m.L1.AuxIdx, m.L2.AuxIdx, 0, -b)
	mtx.AddElement(m.L2.AuxIdx, m.L1.AuxIdx, 0, -b)
	return nil
}

func (m *Mutual) StampTran(mtx mna.RealStamper, xk []float64, auxIdx int, hist *History, t, dt float64) error {
	if m.L1 == nil || m.L2 == nil {
		return fmt.Errorf("mutual %s: both inductors must be set", m.DeviceName)
	}
	mij := m.mutualInductance()
	geq := mij / dt

	i1Prev, i2Prev := 0.0, 0.0
	if last, ok := hist.At(0); ok {
		i1Prev = auxValue(last.X, m.L1.AuxIdx)
		i2Prev = auxValue(last.X, m.L2.AuxIdx)
	}

	mtx.AddElement(m.L1.AuxIdx, m.L2.AuxIdx, -geq)
	mtx.AddElement(m.L2.AuxIdx, m.L1.AuxIdx, -geq)
	mtx.AddRHS(m.L1.AuxIdx, -geq*i2Prev)
	mtx.AddRHS(m.L2.AuxIdx, -geq*i1Prev)
	return nil
}
