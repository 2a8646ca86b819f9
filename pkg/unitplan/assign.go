// Package unitplan assigns call-graph functions to analysis units (object
// files), orders units and the functions within them, and emits the
// resulting plan (spec components C, D, E).
package unitplan

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/prokopk1n/nullannotate/pkg/callgraph"
	"github.com/prokopk1n/nullannotate/pkg/projectmap"
	"github.com/prokopk1n/nullannotate/pkg/toposort"
)

// ErrNoCandidates is returned when a function's source file has no
// candidate object file to assign it to (an empty compiled-to set should
// already have kept the function out of the call graph; this is a defense
// against a caller building a graph from a different project map).
var ErrNoCandidates = errors.New("unitplan: function has no candidate object file")

// Heuristic selects which candidate-object-file tie-break rule the assigner
// uses. Both are real algorithms retained from the source tree rather than
// one being declared "correct" (§9 Design Notes).
type Heuristic int

const (
	// MinCycleEdges estimates, for each candidate, how many of the units
	// already (transitively) depending on this function the candidate
	// itself already depends on, and picks the minimum — an estimate of how many
	// cross-unit cycles selecting that candidate would introduce. Ties are
	// broken by the candidate already holding the most assigned functions,
	// then lexicographically. This is the default (§9 resolution 4).
	MinCycleEdges Heuristic = iota

	// MostFunctions skips the cycle estimate entirely and always picks the
	// candidate already holding the most assigned functions (size-heavy
	// bucketing), lexicographic final tie-break.
	MostFunctions
)

// AssignOptions controls Assign.
type AssignOptions struct {
	Heuristic Heuristic
}

// Assignment is the result of assigning every call-graph node to a unit
// (object file), plus the induced unit-level graph: an edge u -> v in the
// unit graph means "some function in u is called by some function in v",
// i.e. u must be ordered before v, matching toposort.Graph's convention.
type Assignment struct {
	units   *toposort.SymbolTable
	unitOf  []int
	unitDAG *toposort.Graph
}

// UnitOf returns the unit ID a call-graph node was assigned to.
func (a *Assignment) UnitOf(node int) int { return a.unitOf[node] }

// UnitName resolves a unit ID back to its object-file path.
func (a *Assignment) UnitName(unit int) string { return a.units.Resolve(unit) }

// UnitCount returns the number of distinct units in the assignment.
func (a *Assignment) UnitCount() int { return a.units.Len() }

// UnitGraph returns the induced unit-level graph.
func (a *Assignment) UnitGraph() *toposort.Graph { return a.unitDAG }

// Assign assigns every node of g to exactly one candidate object file
// drawn from pm, per §4.C. Nodes are visited in reverse-postorder of the
// reverse call graph, which approximates a callee-before-caller traversal
// even across cycles (step 1).
func Assign(g *callgraph.Graph, pm *projectmap.ProjectMap, opts AssignOptions, rng *rand.Rand) (*Assignment, error) {
	order := g.Reverse().ReversePostorder(rng)

	units := toposort.NewSymbolTable()
	unitOf := make([]int, g.NodeCount())
	for i := range unitOf {
		unitOf[i] = -1
	}

	// dependents[x] = set of units that currently depend on x, i.e. units
	// containing a function that (directly) calls a function assigned to
	// x. An edge x -> y in this sense means x must precede y.
	dependents := make(map[string]map[string]bool)
	numFunctions := make(map[string]int)

	addDependent := func(x, y string) {
		if dependents[x] == nil {
			dependents[x] = make(map[string]bool)
		}
		dependents[x][y] = true
	}

	nodeUnitName := make([]string, g.NodeCount())

	for _, node := range order {
		id := g.FunctionID(node)

		candidates, err := candidateUnits(pm, id.File)
		if err != nil {
			return nil, err
		}

		callerUnits := assignedUnitsOf(g.Reverse().Successors(node), nodeUnitName)
		calleeUnits := assignedUnitsOf(g.Forward().Successors(node), nodeUnitName)

		selected := selectCandidate(opts.Heuristic, candidates, callerUnits, dependents, numFunctions)

		for cu := range callerUnits {
			addDependent(selected, cu)
		}

		for cu := range calleeUnits {
			addDependent(cu, selected)
		}

		nodeUnitName[node] = selected
		numFunctions[selected]++

		unitID := units.Intern(selected)
		unitOf[node] = unitID
	}

	unitDAG := toposort.NewGraph(units.Len())
	for x, ys := range dependents {
		xid := units.Intern(x)
		for y := range ys {
			yid := units.Intern(y)
			unitDAG.AddEdge(xid, yid)
		}
	}

	return &Assignment{units: units, unitOf: unitOf, unitDAG: unitDAG}, nil
}

func candidateUnits(pm *projectmap.ProjectMap, file string) ([]string, error) {
	candidates := pm.CandidateObjectFiles(file)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCandidates, file)
	}

	filtered := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if filepath.Base(c) != "a.out" {
			filtered = append(filtered, c)
		}
	}

	if len(filtered) > 0 {
		return filtered, nil
	}

	return candidates, nil
}

func assignedUnitsOf(nodes []int, nodeUnitName []string) map[string]bool {
	units := make(map[string]bool)

	for _, n := range nodes {
		if name := nodeUnitName[n]; name != "" {
			units[name] = true
		}
	}

	return units
}

func selectCandidate(h Heuristic, candidates []string, callerUnits map[string]bool, dependents map[string]map[string]bool, numFunctions map[string]int) string {
	switch h {
	case MostFunctions:
		return mostFunctionsPick(candidates, numFunctions)
	default:
		return minCycleEdgesPick(candidates, callerUnits, dependents, numFunctions)
	}
}

func mostFunctionsPick(candidates []string, numFunctions map[string]int) string {
	sorted := sortedCopy(candidates)

	best := sorted[0]
	for _, c := range sorted[1:] {
		if numFunctions[c] > numFunctions[best] {
			best = c
		}
	}

	return best
}

func minCycleEdgesPick(candidates []string, callerUnits map[string]bool, dependents map[string]map[string]bool, numFunctions map[string]int) string {
	depending := transitiveDependents(callerUnits, dependents)

	cost := func(c string) int {
		n := 0
		for d := range depending {
			if d != c && dependents[d][c] {
				n++
			}
		}

		return n
	}

	sorted := sortedCopy(candidates)

	best := sorted[0]
	bestCost := cost(best)

	for _, c := range sorted[1:] {
		cc := cost(c)

		switch {
		case cc < bestCost:
			best, bestCost = c, cc
		case cc == bestCost && numFunctions[c] > numFunctions[best]:
			best = c
		}
	}

	return best
}

// transitiveDependents expands start (units immediately depending on the
// function being assigned) through dependents transitively: a unit d that
// already depends on a member of the set is itself added. Iterative
// explicit-stack traversal (Design Notes §9).
func transitiveDependents(start map[string]bool, dependents map[string]map[string]bool) map[string]bool {
	visited := make(map[string]bool, len(start))

	stack := make([]string, 0, len(start))
	for u := range start {
		visited[u] = true
		stack = append(stack, u)
	}

	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for v := range dependents[u] {
			if !visited[v] {
				visited[v] = true
				stack = append(stack, v)
			}
		}
	}

	return visited
}

func sortedCopy(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	sort.Strings(out)

	return out
}
