package unitplan

import (
	"math/rand"

	"github.com/prokopk1n/nullannotate/pkg/callgraph"
	"github.com/prokopk1n/nullannotate/pkg/toposort"
)

// OrderUnits reverse-postorders the unit graph, approximating
// callee-unit-before-caller-unit ordering (§4.D / §3 "Units themselves
// appear in reverse postorder of the inter-unit graph").
func OrderUnits(a *Assignment, rng *rand.Rand) []int {
	return a.unitDAG.ReversePostorder(rng)
}

// OrderFunctionsWithin reverse-postorders, per unit, the subgraph of the
// call graph restricted to that unit's own functions, following
// callee-before-caller edges (g.Reverse()). Returns a map from unit ID to
// the ordered list of call-graph node IDs assigned to it.
func OrderFunctionsWithin(g *callgraph.Graph, a *Assignment, rng *rand.Rand) map[int][]int {
	byUnit := make(map[int][]int)
	for _, node := range g.Nodes() {
		unit := a.UnitOf(node)
		byUnit[unit] = append(byUnit[unit], node)
	}

	result := make(map[int][]int, len(byUnit))

	for unit, nodes := range byUnit {
		local := toposort.NewGraph(len(nodes))

		globalToLocal := make(map[int]int, len(nodes))
		localToGlobal := make([]int, len(nodes))

		for i, node := range nodes {
			globalToLocal[node] = i
			localToGlobal[i] = node
		}

		// g.Reverse().Successors(node) yields the callers of node (the
		// reverse graph's edges read "callee before caller"), so node
		// itself — the callee — must precede each one.
		for i, node := range nodes {
			for _, caller := range g.Reverse().Successors(node) {
				if j, ok := globalToLocal[caller]; ok {
					local.AddEdge(i, j)
				}
			}
		}

		order := local.ReversePostorder(rng)

		globalOrder := make([]int, len(order))
		for i, localNode := range order {
			globalOrder[i] = localToGlobal[localNode]
		}

		result[unit] = globalOrder
	}

	return result
}
