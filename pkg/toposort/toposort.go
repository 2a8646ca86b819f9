package toposort

import "math/rand"

// Graph is a directed graph over dense integer node IDs in [0, NodeCount).
// An edge AddEdge(u, v) means "u must be ordered before v" — e.g. for a call
// graph, u is a callee and v is its caller, matching the planner's
// callees-before-callers requirement. Cycles are permitted; ReversePostorder
// approximates a topological order and reports how many edges it had to
// violate.
type Graph struct {
	succ [][]int
	n    int
}

// NewGraph creates a graph with n nodes (IDs 0..n-1) and no edges.
func NewGraph(n int) *Graph {
	return &Graph{succ: make([][]int, n), n: n}
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return g.n }

// Grow ensures the graph has at least n nodes, extending it if necessary.
func (g *Graph) Grow(n int) {
	if n <= g.n {
		return
	}

	grown := make([][]int, n)
	copy(grown, g.succ)
	g.succ = grown
	g.n = n
}

// AddEdge adds an edge u -> v ("u before v"). Both u and v must already be
// valid node IDs (use Grow to size the graph first). Duplicate edges are
// preserved; callers that care about multiplicity (e.g. edge counts for
// diagnostics) should dedupe before calling CountDropped if that matters.
func (g *Graph) AddEdge(u, v int) {
	g.succ[u] = append(g.succ[u], v)
}

// Successors returns the (unsorted) successor list of u.
func (g *Graph) Successors(u int) []int { return g.succ[u] }

// dfsState is the iterative-DFS frame: the node being visited and the index
// of the next successor to explore. The call graph this is run over can be
// very deep (whole-project C call chains), so the DFS is explicit-stack
// rather than recursive per the Design Notes.
type dfsState struct {
	node int
	idx  int
}

// ReversePostorder computes a reverse-postorder linearization of the graph.
// When rng is non-nil, both the root iteration order and each node's
// successor iteration order are independently shuffled, so repeated calls
// with different seeds explore different linearizations of the same cycles
// (the planner runs several attempts and keeps the one with fewest dropped
// edges). When rng is nil, node ID order is used throughout for a fully
// deterministic single-attempt result.
func (g *Graph) ReversePostorder(rng *rand.Rand) []int {
	roots := make([]int, g.n)
	for i := range roots {
		roots[i] = i
	}

	if rng != nil {
		rng.Shuffle(len(roots), func(i, j int) { roots[i], roots[j] = roots[j], roots[i] })
	}

	visited := make([]bool, g.n)
	postorder := make([]int, 0, g.n)
	var stack []dfsState

	for _, root := range roots {
		if visited[root] {
			continue
		}

		stack = append(stack, dfsState{node: root, idx: 0})
		visited[root] = true

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			succs := g.orderedSuccessors(top.node, rng)

			advanced := false

			for top.idx < len(succs) {
				next := succs[top.idx]
				top.idx++

				if !visited[next] {
					visited[next] = true
					stack = append(stack, dfsState{node: next, idx: 0})
					advanced = true

					break
				}
			}

			if advanced {
				continue
			}

			if top.idx >= len(succs) {
				postorder = append(postorder, top.node)
				stack = stack[:len(stack)-1]
			}
		}
	}

	result := make([]int, len(postorder))
	for i, node := range postorder {
		result[len(postorder)-1-i] = node
	}

	return result
}

// orderedSuccessors returns u's successors, shuffled if rng is set.
func (g *Graph) orderedSuccessors(u int, rng *rand.Rand) []int {
	succs := g.succ[u]
	if rng == nil || len(succs) < 2 {
		return succs
	}

	shuffled := make([]int, len(succs))
	copy(shuffled, succs)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	return shuffled
}

// CountDropped reports how many edges in the graph are violated by order —
// an edge u -> v is dropped if v does not appear strictly after u in order.
// It also returns the total edge count, so callers can report a percentage.
func (g *Graph) CountDropped(order []int) (dropped, total int) {
	pos := make([]int, g.n)
	for i, node := range order {
		pos[node] = i
	}

	for u, succs := range g.succ {
		for _, v := range succs {
			total++

			if pos[v] <= pos[u] {
				dropped++
			}
		}
	}

	return dropped, total
}
