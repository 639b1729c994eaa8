package device

import (
	"fmt"
	"math"

	"github.com/gospice/mnaspice/internal/consts"
	"github.com/gospice/mnaspice/pkg/mna"
)

type bjtOpPoint struct {
	Vbe, Vbc           float64
	Ic, Ib, Ie         float64
	Gm, Gpi, Gmu, Gout float64
	Cje, Cjc           float64
}

// BJT is a simplified Gummel-Poon model: two internal diode
// junctions (B-E, B-C) coupled through forward/reverse beta, Early
// voltage, and high-injection knee currents, stamped as a hybrid-pi
// small-signal equivalent.
//
// Voltage limiting reuses the diode's Vcrit/Vold formula against each
// of Vbe and Vbc independently, each junction keeping its own
// previous-voltage memory. Series base/collector/emitter resistance
// (Rb/Rc/Re) would need their own auxiliary unknowns and is not
// modeled.
type BJT struct {
	BaseDevice

	Is  float64
	Bf  float64
	Br  float64
	Nf  float64
	Nr  float64
	Vaf float64
	Var float64
	Ikf float64
	Ikr float64

	Cje  float64
	Vje  float64
	Mje  float64
	Cjc  float64
	Vjc  float64
	Mjc  float64
	Fc   float64
	Temp float64

	op      bjtOpPoint
	savedOp bjtOpPoint

	vbePrev, vbcPrev           float64
	savedVbePrev, savedVbcPrev float64
}

// NewBJT builds an NPN BJT with generic silicon defaults. nodes is
// [collector, base, emitter].
func NewBJT(name string, nodes []int) *BJT {
	if len(nodes) != 3 {
		panic(fmt.Sprintf("bjt %s: requires exactly 3 nodes", name))
	}
	return &BJT{
		BaseDevice: BaseDevice{DeviceName: name, NodeList: nodes},
		Is:         1e-16,
		Bf:         100.0,
		Br:         1.0,
		Nf:         1.0,
		Nr:         1.0,
		Vaf:        100.0,
		Var:        100.0,
		Ikf:        0.01,
		Ikr:        0.01,
		Vje:        0.75,
		Mje:        0.33,
		Vjc:        0.75,
		Mjc:        0.33,
		Fc:         0.5,
		Temp:       consts.RoomTemp,
	}
}

func (b *BJT) IsNonlinear() bool { return true }

// OpPoint exposes the current operating point, read-only, for callers
// that report or test against it.
func (b *BJT) OpPoint() bjtOpPoint { return b.op }

func (b *BJT) Init() {
	b.vbePrev, b.vbcPrev = 0, 0
	b.savedVbePrev, b.savedVbcPrev = 0, 0
	b.op = bjtOpPoint{}
	b.savedOp = bjtOpPoint{}
}

func (b *BJT) SaveOpPoint() {
	b.savedOp = b.op
	b.savedVbePrev, b.savedVbcPrev = b.vbePrev, b.vbcPrev
}

func (b *BJT) RestoreOpPoint() {
	b.op = b.savedOp
	b.vbePrev, b.vbcPrev = b.savedVbePrev, b.savedVbcPrev
}

// limitJunction is the diode Vcrit clamp, parameterized by the
// junction's own emission coefficient and applied against its own
// Vold.
func limitJunction(v, n, vt, is float64, vPrev *float64) float64 {
	vcrit := n * vt * math.Log(n*vt/(math.Sqrt2*is))
	if v > 0 && v > vcrit {
		v = *vPrev + n*vt*math.Log1p((v-*vPrev)/(n*vt))
	}
	*vPrev = v
	return v
}

func junctionIV(v, is, n, vt float64) (float64, float64) {
	i := is * math.Expm1(v/(n*vt))
	g := is / (n * vt) * math.Exp(v/(n*vt))
	return i, g
}

func junctionCap(v, cj0, vj, m, fc float64) float64 {
	if cj0 == 0 {
		return 0
	}
	if v/vj <= fc {
		return cj0 * math.Pow(1.0-v/vj, -m)
	}
	return cj0 / math.Pow(1.0-fc, m) * (1.0 + m*(v/vj-fc)/(1.0-fc))
}

func (b *BJT) CalcOpPoint(x []float64) {
	nc, nb, ne := b.NodeList[0], b.NodeList[1], b.NodeList[2]
	vt := consts.ThermalVoltage(b.Temp)

	vbeRaw := nodeVoltage(x, nb) - nodeVoltage(x, ne)
	vbcRaw := nodeVoltage(x, nb) - nodeVoltage(x, nc)
	vbe := limitJunction(vbeRaw, b.Nf, vt, b.Is, &b.vbePrev)
	vbc := limitJunction(vbcRaw, b.Nr, vt, b.Is, &b.vbcPrev)

	ifwd, gif := junctionIV(vbe, b.Is, b.Nf, vt)
	irev, gir := junctionIV(vbc, b.Is, b.Nr, vt)

	if b.Ikf > 0 && ifwd > 0 {
		knee := math.Sqrt(b.Ikf / (b.Ikf + ifwd))
		gif = gif * (1.0 - 0.5*ifwd/(b.Ikf+ifwd)) * knee
		ifwd = ifwd * knee
	}
	if b.Ikr > 0 && irev > 0 {
		knee := math.Sqrt(b.Ikr / (b.Ikr + irev))
		gir = gir * (1.0 - 0.5*irev/(b.Ikr+irev)) * knee
		irev = irev * knee
	}

	earlyF := 1.0
	if b.Vaf > 0 {
		earlyF = 1.0 + vbc/b.Vaf
	}
	earlyR := 1.0
	if b.Var > 0 {
		earlyR = 1.0 + vbe/b.Var
	}

	ic := ifwd*earlyF - irev*earlyR
	ib := ifwd/b.Bf + irev/b.Br
	ie := -(ic + ib)

	const gmin = 1e-12
	gm := math.Max(gif*earlyF, 0) + gmin
	gpi := math.Max(gif/b.Bf, 0) + gmin
	gmu := math.Max(gir*earlyR, 0) + gmin
	gout := gmin
	if b.Vaf > 0 {
		gout += math.Abs(ic) / b.Vaf
	}

	cje := junctionCap(vbe, b.Cje, b.Vje, b.Mje, b.Fc)
	cjc := junctionCap(vbc, b.Cjc, b.Vjc, b.Mjc, b.Fc)

	b.op = bjtOpPoint{Vbe: vbe, Vbc: vbc, Ic: ic, Ib: ib, Ie: ie, Gm: gm, Gpi: gpi, Gmu: gmu, Gout: gout, Cje: cje, Cjc: cjc}
}

func (b *BJT) StampDC(m mna.RealStamper, x []float64, auxIdx int) error {
	nc, nb, ne := b.NodeList[0], b.NodeList[1], b.NodeList[2]
	op := b.op

	if nc != 0 {
		m.AddElement(nc, nc, op.Gout+op.Gmu)
		if nb != 0 {
			m.AddElement(nc, nb, op.Gm-op.Gmu)
		}
		if ne != 0 {
			m.AddElement(nc, ne, -op.Gout-op.Gm)
		}
		m.AddRHS(nc, -(op.Ic - op.Gout*(op.Vbe-op.Vbc) - op.Gmu*op.Vbc - op.Gm*op.Vbe))
	}
	if nb != 0 {
		m.AddElement(nb, nb, op.Gpi+op.Gmu)
		if nc != 0 {
			m.AddElement(nb, nc, -op.Gmu)
		}
		if ne != 0 {
			m.AddElement(nb, ne, -op.Gpi)
		}
		m.AddRHS(nb, -(op.Ib - op.Gpi*op.Vbe - op.Gmu*op.Vbc))
	}
	if ne != 0 {
		m.AddElement(ne, ne, op.Gout+op.Gm+op.Gpi)
		if nc != 0 {
			m.AddElement(ne, nc, -op.Gout)
		}
		if nb != 0 {
			m.AddElement(ne, nb, -op.Gpi-op.Gm)
		}
		m.AddRHS(ne, -(op.Ie + op.Gout*(op.Vbe-op.Vbc) + op.Gpi*op.Vbe + op.Gm*op.Vbe))
	}
	return nil
}

func (b *BJT) StampAC(m mna.ComplexStamper, xdc []float64, auxIdx int, omega float64) error {
	nc, nb, ne := b.NodeList[0], b.NodeList[1], b.NodeList[2]
	op := b.op
	wce, wcc := omega*op.Cje, omega*op.Cjc

	if nc != 0 {
		m.AddElement(nc, nc, op.Gout+op.Gmu, wcc)
		if nb != 0 {
			m.AddElement(nc, nb, op.Gm-op.Gmu, -wcc)
		}
		if ne != 0 {
			m.AddElement(nc, ne, -op.Gout-op.Gm, 0)
		}
	}
	if nb != 0 {
		m.AddElement(nb, nb, op.Gpi+op.Gmu, wce+wcc)
		if nc != 0 {
			m.AddElement(nb, nc, -op.Gmu, -wcc)
		}
		if ne != 0 {
			m.AddElement(nb, ne, -op.Gpi, -wce)
		}
	}
	if ne != 0 {
		m.AddElement(ne, ne, op.Gout+op.Gm+op.Gpi, wce)
		if nc != 0 {
			m.AddElement(ne, nc, -op.Gout, 0)
		}
		if nb != 0 {
			m.AddElement(ne, nb, -op.Gpi-op.Gm, -wce)
		}
	}
	return nil
}

func (b *BJT) StampTran(m mna.RealStamper, xk []float64, auxIdx int, hist *History, t, dt float64) error {
	return b.StampDC(m, xk, auxIdx)
}

func (b *BJT) CheckVLimit(x []float64, tol float64) bool {
	nc, nb, ne := b.NodeList[0], b.NodeList[1], b.NodeList[2]
	vbeNew := nodeVoltage(x, nb) - nodeVoltage(x, ne)
	vbcNew := nodeVoltage(x, nb) - nodeVoltage(x, nc)
	return math.Abs(vbeNew-b.vbePrev) <= tol && math.Abs(vbcNew-b.vbcPrev) <= tol
}
