package netlist

import (
	"fmt"
	"strconv"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"

	"github.com/gospice/mnaspice/pkg/device"
)

// View is the resolved netlist every engine consults: node/aux
// indexing, stable device enumeration, and lookup of each device's
// auxiliary-unknown index. Each device's own AuxCount decides whether it gets a
// branch-current row; element types are not special-cased here.
type View struct {
	Name     string
	NumNodes int
	Devices  []device.Device

	// Nodes maps each user-facing node name to its resolved 1-based
	// index (ground aliases are excluded). fmtout and the CLI use this
	// to label V(name) output without devices needing to know names.
	Nodes map[string]int

	auxStart map[device.AnalysisKind]map[device.Device]int
	sizes    map[device.AnalysisKind]int
}

func newView(name string, devices []device.Device, numNodes int, nodeNames map[string]int) *View {
	v := &View{
		Name:     name,
		NumNodes: numNodes,
		Devices:  devices,
		Nodes:    nodeNames,
		auxStart: make(map[device.AnalysisKind]map[device.Device]int),
		sizes:    make(map[device.AnalysisKind]int),
	}
	v.index()
	return v
}

// index assigns auxiliary unknown indices per analysis kind, in
// device-enumeration order, immediately after the node block
// (indices 1..NumNodes). Ground (index 0) is never allocated.
func (v *View) index() {
	for _, kind := range []device.AnalysisKind{device.KindDC, device.KindAC, device.KindTransient} {
		start := v.NumNodes + 1
		m := make(map[device.Device]int, len(v.Devices))
		for _, d := range v.Devices {
			n := d.AuxCount(kind)
			if n <= 0 {
				continue
			}
			m[d] = start
			start += n
		}
		v.auxStart[kind] = m
		v.sizes[kind] = start - 1
	}
}

// AuxIndex returns the matrix index assigned to d's auxiliary unknown
// under the given analysis kind, and whether d has one at all.
func (v *View) AuxIndex(kind device.AnalysisKind, d device.Device) (int, bool) {
	idx, ok := v.auxStart[kind][d]
	return idx, ok
}

// Size is the unknown-vector length (ground excluded) for the given
// analysis kind: node count plus that kind's auxiliary unknowns.
func (v *View) Size(kind device.AnalysisKind) int {
	return v.sizes[kind]
}

// CheckConnectivity reports any node that cannot reach node 0
// (ground) through the device graph, a floating sub-network that
// would leave the MNA matrix singular without Gmin. Built on
// github.com/katalvlaran/lvlath's core.Graph and bfs.BFS; each device
// contributes an undirected edge between every pair of terminal nodes
// it touches, so a branch device linking two otherwise-unconnected
// nodes still counts.
func (v *View) CheckConnectivity() ([]int, error) {
	g := core.NewGraph(core.WithMultiEdges())
	ground := "0"
	if err := g.AddVertex(ground); err != nil {
		return nil, fmt.Errorf("netlist: connectivity: %w", err)
	}
	for n := 1; n <= v.NumNodes; n++ {
		if err := g.AddVertex(nodeID(n)); err != nil {
			return nil, fmt.Errorf("netlist: connectivity: %w", err)
		}
	}

	for _, d := range v.Devices {
		nodes := d.Nodes()
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				if nodes[i] == nodes[j] {
					continue
				}
				if _, err := g.AddEdge(nodeID(nodes[i]), nodeID(nodes[j]), 0); err != nil {
					return nil, fmt.Errorf("netlist: connectivity: %s: %w", d.Name(), err)
				}
			}
		}
	}

	result, err := bfs.BFS(g, ground)
	if err != nil {
		return nil, fmt.Errorf("netlist: connectivity: %w", err)
	}

	var floating []int
	for n := 1; n <= v.NumNodes; n++ {
		if _, reached := result.Depth[nodeID(n)]; !reached {
			floating = append(floating, n)
		}
	}
	return floating, nil
}

func nodeID(n int) string {
	return strconv.Itoa(n)
}
