package unitplan

import (
	"math/rand"

	"github.com/prokopk1n/nullannotate/pkg/callgraph"
	"github.com/prokopk1n/nullannotate/pkg/projectmap"
)

// BuildOptions bundles the assignment heuristic with the number of
// randomized reordering attempts the `plan` command runs, keeping the best
// (fewest dropped edges) per the original `--attempts` flag.
type BuildOptions struct {
	Assign   AssignOptions
	Attempts int
}

// Attempt is one (plan, stats) pair produced by Build — kept for callers
// that want to report progress across attempts, matching plan.py's running
// "best plan after N attempts" status line.
type Attempt struct {
	Plan  Plan
	Stats Stats
}

// Build runs the full unit-assignment/ordering/emission pipeline, up to
// opts.Attempts times with independent RNG seeds, returning the attempt
// with the fewest dropped edges. Attempts is clamped to at least 1.
func Build(g *callgraph.Graph, pm *projectmap.ProjectMap, opts BuildOptions, rng *rand.Rand) (Attempt, error) {
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var best Attempt
	haveBest := false

	for i := 0; i < attempts; i++ {
		assignment, err := Assign(g, pm, opts.Assign, rng)
		if err != nil {
			return Attempt{}, err
		}

		unitOrder := OrderUnits(assignment, rng)
		functionOrder := OrderFunctionsWithin(g, assignment, rng)

		plan, stats := Emit(g, assignment, unitOrder, functionOrder)

		if !haveBest || stats.Dropped < best.Stats.Dropped {
			best = Attempt{Plan: plan, Stats: stats}
			haveBest = true
		}
	}

	return best, nil
}
