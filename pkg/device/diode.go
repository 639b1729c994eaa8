package device

import (
	"fmt"
	"math"

	"github.com/gospice/mnaspice/internal/consts"
	"github.com/gospice/mnaspice/pkg/mna"
)

// diodeOpPoint is the operating-point state CalcOpPoint refreshes
// every Newton iteration.
type diodeOpPoint struct {
	Vd, Id, Gd float64
	Cj, Cd     float64
}

// Diode models a junction diode: exponential forward current with an
// optional recombination branch, a high-injection knee, and a
// piecewise junction capacitance. The Vcrit limiting scheme keeps
// Newton from overflowing exp() on strongly forward-biased junctions.
type Diode struct {
	BaseDevice

	Is   float64
	N    float64
	Isr  float64
	Nr   float64
	Ikf  float64
	Cj0  float64
	M    float64
	Vj   float64
	Fc   float64
	Tt   float64
	Cp   float64
	Temp float64

	op      diodeOpPoint
	savedOp diodeOpPoint

	vdPrev      float64 // Vdold: previous limited voltage
	savedVdPrev float64
}

// NewDiode builds a diode with generic small-signal silicon defaults.
// nodes is [anode, cathode].
func NewDiode(name string, nodes []int) *Diode {
	if len(nodes) != 2 {
		panic(fmt.Sprintf("diode %s: requires exactly 2 nodes", name))
	}
	return &Diode{
		BaseDevice: BaseDevice{DeviceName: name, NodeList: nodes},
		Is:         1e-15,
		N:          1.0,
		Isr:        0.0,
		Nr:         2.0,
		Ikf:        1e12,
		Cj0:        0.0,
		M:          0.5,
		Vj:         0.7,
		Fc:         0.5,
		Tt:         0.0,
		Cp:         0.0,
		Temp:       consts.RoomTemp,
	}
}

func (d *Diode) IsNonlinear() bool { return true }

// OpPoint exposes the current operating point, read-only, for callers
// that report or test against it.
func (d *Diode) OpPoint() diodeOpPoint { return d.op }

// Init clears the cross-iteration limiting memory at the start of
// each analysis.
func (d *Diode) Init() {
	d.vdPrev = 0
	d.savedVdPrev = 0
	d.op = diodeOpPoint{}
	d.savedOp = diodeOpPoint{}
}

func (d *Diode) SaveOpPoint() {
	d.savedOp = d.op
	d.savedVdPrev = d.vdPrev
}

func (d *Diode) RestoreOpPoint() {
	d.op = d.savedOp
	d.vdPrev = d.savedVdPrev
}

// limitVoltage applies the Vcrit clamp and updates vdPrev.
func (d *Diode) limitVoltage(vd, vt float64) float64 {
	vcrit := d.N * vt * math.Log(d.N*vt/(math.Sqrt2*d.Is))
	if vd > 0 && vd > vcrit {
		vd = d.vdPrev + d.N*vt*math.Log1p((vd-d.vdPrev)/(d.N*vt))
	}
	d.vdPrev = vd
	return vd
}

// CalcOpPoint recomputes Vd, Id, Gd (and, for later AC use, Cj/Cd)
// from a candidate solution, applying voltage limiting first.
func (d *Diode) CalcOpPoint(x []float64) {
	vt := consts.ThermalVoltage(d.Temp)

	n1, n2 := d.NodeList[0], d.NodeList[1]
	vd := nodeVoltage(x, n1) - nodeVoltage(x, n2)
	vd = d.limitVoltage(vd, vt)

	idf := d.Is * math.Expm1(vd/(d.N*vt))
	gdf := d.Is / (d.N * vt) * math.Exp(vd/(d.N*vt))

	idr := d.Isr * math.Expm1(vd/(d.Nr*vt))
	gdr := d.Isr / (d.Nr * vt) * math.Exp(vd/(d.Nr*vt))

	if d.Ikf > 0 {
		knee := math.Sqrt(d.Ikf / (d.Ikf + idf))
		gdf = gdf * (1.0 - 0.5*idf/(d.Ikf+idf)) * knee
		idf = idf * knee
	}

	id := idf + idr
	gd := gdf + gdr

	var cj float64
	if d.Cj0 != 0 {
		if vd/d.Vj <= d.Fc {
			cj = d.Cj0 * math.Pow(1.0-vd/d.Vj, -d.M)
		} else {
			cj = d.Cj0 / math.Pow(1.0-d.Fc, d.M) * (1.0 + d.M*(vd/d.Vj-d.Fc)/(1.0-d.Fc))
		}
	}
	cd := d.Cp + d.Tt*gd + cj

	d.op = diodeOpPoint{Vd: vd, Id: id, Gd: gd, Cj: cj, Cd: cd}
}

func (d *Diode) StampDC(m mna.RealStamper, x []float64, auxIdx int) error {
	n1, n2 := d.NodeList[0], d.NodeList[1]
	gd := d.op.Gd
	i := d.op.Id - gd*d.op.Vd

	if n1 != 0 {
		m.AddElement(n1, n1, gd)
		if n2 != 0 {
			m.AddElement(n1, n2, -gd)
		}
		m.AddRHS(n1, -i)
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddElement(n2, n1, -gd)
		}
		m.AddElement(n2, n2, gd)
		m.AddRHS(n2, i)
	}
	return nil
}

func (d *Diode) StampAC(m mna.ComplexStamper, xdc []float64, auxIdx int, omega float64) error {
	n1, n2 := d.NodeList[0], d.NodeList[1]
	gd := d.op.Gd
	bd := omega * d.op.Cd

	if n1 != 0 {
		m.AddElement(n1, n1, gd, bd)
		if n2 != 0 {
			m.AddElement(n1, n2, -gd, -bd)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddElement(n2, n1, -gd, -bd)
		}
		m.AddElement(n2, n2, gd, bd)
	}
	return nil
}

// StampTran adds the same conductance/current linearization as DC.
// The junction's displacement current (Cd) matters only for AC here;
// charge-conservation bookkeeping is out of scope.
func (d *Diode) StampTran(m mna.RealStamper, xk []float64, auxIdx int, hist *History, t, dt float64) error {
	return d.StampDC(m, xk, auxIdx)
}

func (d *Diode) CheckVLimit(x []float64, tol float64) bool {
	n1, n2 := d.NodeList[0], d.NodeList[1]
	vNew := nodeVoltage(x, n1) - nodeVoltage(x, n2)
	return math.Abs(vNew-d.vdPrev) <= tol
}
