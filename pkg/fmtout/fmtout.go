// Package fmtout prints engine results to a writer as plain tables.
// Node names come from netlist.View.Nodes; branch names come from
// every device carrying an auxiliary unknown under the relevant
// analysis kind.
package fmtout

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"sort"

	"github.com/gospice/mnaspice/pkg/device"
	"github.com/gospice/mnaspice/pkg/engine/ac"
	"github.com/gospice/mnaspice/pkg/engine/dcsweep"
	"github.com/gospice/mnaspice/pkg/engine/tran"
	"github.com/gospice/mnaspice/pkg/netlist"
	"github.com/gospice/mnaspice/pkg/util"
)

func nodeNames(view *netlist.View) []string {
	names := make([]string, 0, len(view.Nodes))
	for n := range view.Nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func branchNames(view *netlist.View, kind device.AnalysisKind) []string {
	var names []string
	for _, d := range view.Devices {
		if _, ok := view.AuxIndex(kind, d); ok {
			names = append(names, d.Name())
		}
	}
	sort.Strings(names)
	return names
}

// OperatingPoint prints a single DC (or initial transient) solution
// vector as a node-voltage / branch-current listing.
func OperatingPoint(w io.Writer, view *netlist.View, x []float64) {
	fmt.Fprintln(w, "\nNode Voltages:")
	for _, n := range nodeNames(view) {
		fmt.Fprintf(w, "V(%s) = %s\n", n, util.FormatValueFactor(x[view.Nodes[n]], "V"))
	}
	fmt.Fprintln(w, "\nBranch Currents:")
	for _, name := range branchNames(view, device.KindDC) {
		for _, d := range view.Devices {
			if d.Name() != name {
				continue
			}
			idx, _ := view.AuxIndex(device.KindDC, d)
			fmt.Fprintf(w, "I(%s) = %s\n", name, util.FormatValueFactor(x[idx], "A"))
		}
	}
}

// DCSweep prints one row per swept source value.
func DCSweep(w io.Writer, view *netlist.View, sourceName string, result *dcsweep.Result) {
	fmt.Fprintf(w, "\nDC Sweep Analysis Results (%d points):\n", len(result.Values))
	fmt.Fprintln(w, "Sweep Value     Node Voltages        Branch Currents")
	fmt.Fprintln(w, "------------------------------------------------")

	names := nodeNames(view)
	branches := branchNames(view, device.KindDC)
	for i, v := range result.Values {
		fmt.Fprintf(w, "%s=%-9s  ", sourceName, util.FormatValueFactor(v, "V"))
		x := result.Solutions[i]
		for _, n := range names {
			fmt.Fprintf(w, "V(%s)=%s  ", n, util.FormatValueFactor(x[view.Nodes[n]], "V"))
		}
		for _, name := range branches {
			for _, d := range view.Devices {
				if d.Name() != name {
					continue
				}
				idx, _ := view.AuxIndex(device.KindDC, d)
				fmt.Fprintf(w, "I(%s)=%s  ", name, util.FormatValueFactor(x[idx], "A"))
			}
		}
		fmt.Fprintln(w)
	}
}

// Transient prints a time-indexed table of node voltages and branch
// currents, one row per stored time point.
func Transient(w io.Writer, view *netlist.View, result *tran.Result) {
	fmt.Fprintf(w, "\nTransient Analysis Results (%d time points):\n", len(result.Times))
	fmt.Fprintln(w, "Time        Node Voltages        Branch Currents")
	fmt.Fprintln(w, "------------------------------------------------")

	names := nodeNames(view)
	branches := branchNames(view, device.KindTransient)
	for i, t := range result.Times {
		fmt.Fprintf(w, "%9s  ", util.FormatValueFactor(t, "s"))
		x := result.X[i]
		for _, n := range names {
			fmt.Fprintf(w, "V(%s)=%s  ", n, util.FormatValueFactor(x[view.Nodes[n]], "V"))
		}
		for _, name := range branches {
			for _, d := range view.Devices {
				if d.Name() != name {
					continue
				}
				idx, _ := view.AuxIndex(device.KindTransient, d)
				fmt.Fprintf(w, "I(%s)=%s  ", name, util.FormatValueFactor(x[idx], "A"))
			}
		}
		fmt.Fprintln(w)
	}
}

// AC prints a frequency-indexed table of node-voltage and
// branch-current magnitude/phase pairs.
func AC(w io.Writer, view *netlist.View, result *ac.Result) {
	fmt.Fprintf(w, "\nAC Analysis Results (%d frequency points):\n", len(result.Frequencies))
	fmt.Fprintln(w, "Frequency      Node Voltages (Magnitude/Phase)        Branch Currents (Magnitude/Phase)")
	fmt.Fprintln(w, "-----------------------------------------------------------------------------")

	names := nodeNames(view)
	branches := branchNames(view, device.KindAC)
	for i, f := range result.Frequencies {
		fmt.Fprintf(w, "%-13s", util.FormatFrequency(f))
		x := result.X[i]
		for _, n := range names {
			v := x[view.Nodes[n]]
			mag, phase := cmplx.Abs(v), cmplx.Phase(v)*180/math.Pi
			fmt.Fprint(w, util.FormatMagnitudePhase("V("+n+")", mag, phase)+"  ")
		}
		for _, name := range branches {
			for _, d := range view.Devices {
				if d.Name() != name {
					continue
				}
				idx, _ := view.AuxIndex(device.KindAC, d)
				v := x[idx]
				mag, phase := cmplx.Abs(v), cmplx.Phase(v)*180/math.Pi
				fmt.Fprint(w, util.FormatMagnitudePhase("I("+name+")", mag, phase)+"  ")
			}
		}
		fmt.Fprintln(w)
	}
}
