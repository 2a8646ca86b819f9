// Package callgraph builds the directed call graph restricted to compiled
// source files (spec §4.B), over a compact node-ID representation rather
// than stringly-joined "name@file" keys (Design Notes §9).
package callgraph

import "github.com/prokopk1n/nullannotate/pkg/toposort"

// FunctionID identifies a function by (name, source file) — the pair is
// unique even though names alone are not (distinct statics, weak symbols).
type FunctionID struct {
	Name string
	File string
}

type nodeKey struct {
	name int
	file int
}

// Graph is the call graph over compiled source files. Node IDs are dense
// integers; FunctionID lookups go through interned name/file tables so
// building and traversing the graph never hashes a joined string key.
type Graph struct {
	names *toposort.SymbolTable
	files *toposort.SymbolTable

	nodeOf map[nodeKey]int
	nodeID []nodeKey

	forward *toposort.Graph
	reverse *toposort.Graph
}

// NewGraph creates an empty call graph.
func NewGraph() *Graph {
	return &Graph{
		names:   toposort.NewSymbolTable(),
		files:   toposort.NewSymbolTable(),
		nodeOf:  make(map[nodeKey]int),
		forward: toposort.NewGraph(0),
		reverse: toposort.NewGraph(0),
	}
}

// NodeCount returns the number of functions in the graph.
func (g *Graph) NodeCount() int { return len(g.nodeID) }

// EnsureNode interns (name, file) as a node, creating it if necessary, and
// returns its node ID.
func (g *Graph) EnsureNode(id FunctionID) int {
	key := nodeKey{name: g.names.Intern(id.Name), file: g.files.Intern(id.File)}

	if node, ok := g.nodeOf[key]; ok {
		return node
	}

	node := len(g.nodeID)
	g.nodeOf[key] = node
	g.nodeID = append(g.nodeID, key)
	g.forward.Grow(node + 1)
	g.reverse.Grow(node + 1)

	return node
}

// Lookup returns the node ID for (name, file) without creating it.
func (g *Graph) Lookup(id FunctionID) (int, bool) {
	nameID, ok := g.names.Lookup(id.Name)
	if !ok {
		return 0, false
	}

	fileID, ok := g.files.Lookup(id.File)
	if !ok {
		return 0, false
	}

	node, ok := g.nodeOf[nodeKey{name: nameID, file: fileID}]

	return node, ok
}

// FunctionID resolves a node ID back to its (name, source file) identity.
func (g *Graph) FunctionID(node int) FunctionID {
	key := g.nodeID[node]

	return FunctionID{Name: g.names.Resolve(key.name), File: g.files.Resolve(key.file)}
}

// AddEdge records a caller-calls-callee edge. Self-edges are permitted and
// preserved verbatim, matching §3 "Self-edges are permitted and preserved."
func (g *Graph) AddEdge(caller, callee int) {
	g.forward.AddEdge(caller, callee)
	g.reverse.AddEdge(callee, caller)
}

// Forward returns the caller->callee graph.
func (g *Graph) Forward() *toposort.Graph { return g.forward }

// Reverse returns the callee->caller graph.
func (g *Graph) Reverse() *toposort.Graph { return g.reverse }

// Nodes returns every node ID currently in the graph, in ID order.
func (g *Graph) Nodes() []int {
	nodes := make([]int, len(g.nodeID))
	for i := range nodes {
		nodes[i] = i
	}

	return nodes
}
