package unitplan

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/prokopk1n/nullannotate/pkg/callgraph"
)

// PlanCall is a surviving call edge recorded against a function (§3).
// Field order matches json.dump(..., sort_keys=True) on the Python
// {"name", "object file"} dict: alphabetically "name" precedes "object file".
type PlanCall struct {
	Name       string `json:"name"`
	ObjectFile string `json:"object file"`
}

// PlanFunction is one function record within a unit. Alphabetically,
// "called functions" precedes "name".
type PlanFunction struct {
	CalledFunctions []PlanCall `json:"called functions"`
	Name            string     `json:"name"`
}

// PlanUnit is one unit record. Alphabetically, "functions" precedes
// "object file".
type PlanUnit struct {
	Functions  []PlanFunction `json:"functions"`
	ObjectFile string         `json:"object file"`
}

// Plan is the full ordered plan, serialized as a bare JSON array (§6).
type Plan []PlanUnit

// Stats are the plan-quality counters §4.E and §6 require alongside the
// plan itself.
type Stats struct {
	Dropped     int `json:"dropped"`
	Calls       int `json:"calls"`
	ObjectFiles int `json:"object files"`
	Functions   int `json:"functions"`
}

// Emit walks units in unitOrder, then each unit's functions in
// functionOrder, filtering each function's call list down to already-
// emitted callees (callees whose unit was emitted earlier, or appear
// earlier within the same unit) and recording the rest as dropped (§4.E).
func Emit(g *callgraph.Graph, a *Assignment, unitOrder []int, functionOrder map[int][]int) (Plan, Stats) {
	plan := make(Plan, 0, len(unitOrder))
	processed := make(map[int]bool, g.NodeCount())

	var stats Stats
	stats.ObjectFiles = len(unitOrder)
	stats.Functions = g.NodeCount()

	for _, unit := range unitOrder {
		unitPlan := PlanUnit{ObjectFile: a.UnitName(unit), Functions: make([]PlanFunction, 0, len(functionOrder[unit]))}

		for _, node := range functionOrder[unit] {
			callees := sortedSuccessors(g, node)

			calls := make([]PlanCall, 0, len(callees))

			for _, callee := range callees {
				stats.Calls++

				if processed[callee] {
					id := g.FunctionID(callee)
					calls = append(calls, PlanCall{Name: id.Name, ObjectFile: a.UnitName(a.UnitOf(callee))})
				} else {
					stats.Dropped++
				}
			}

			unitPlan.Functions = append(unitPlan.Functions, PlanFunction{
				Name:            g.FunctionID(node).Name,
				CalledFunctions: calls,
			})

			processed[node] = true
		}

		plan = append(plan, unitPlan)
	}

	return plan, stats
}

// sortedSuccessors returns node's callees sorted by (name, file) for
// deterministic plan output — the source iterates a Python set, whose
// order is not a contract worth replicating.
func sortedSuccessors(g *callgraph.Graph, node int) []int {
	succs := append([]int(nil), g.Forward().Successors(node)...)

	sort.Slice(succs, func(i, j int) bool {
		a, b := g.FunctionID(succs[i]), g.FunctionID(succs[j])
		if a.Name != b.Name {
			return a.Name < b.Name
		}

		return a.File < b.File
	})

	return succs
}

// Marshal renders the plan with sorted keys and 4-space indentation, for
// diff-stable test fixtures and changelog consumers (§6).
func (p Plan) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "    ")
}

// Write renders and writes the plan to path.
func (p Plan) Write(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write plan %s: %w", path, err)
	}

	return nil
}

// Load reads and parses a plan file written by Write.
func Load(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}

	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}

	return plan, nil
}
