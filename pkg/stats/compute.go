// Package stats computes the plan/annotation coverage statistics stats.py
// prints and renders them as text, tables, and an optional chart (§4.M).
package stats

import (
	"sort"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
	"github.com/prokopk1n/nullannotate/pkg/unitplan"
)

// PlanStats tallies the plan's own shape, independent of what was actually
// analysed (stats.py's get_plan_stats).
type PlanStats struct {
	ObjectFiles map[string]bool
	Functions   int
}

// ComputePlanStats walks every unit in plan.
func ComputePlanStats(plan unitplan.Plan) PlanStats {
	stats := PlanStats{ObjectFiles: make(map[string]bool)}

	for _, unit := range plan {
		stats.ObjectFiles[unit.ObjectFile] = true
		stats.Functions += len(unit.Functions)
	}

	return stats
}

// funcKey identifies a function by (name, source_file), matching
// stats.py's tuple keys for the two dedup sets.
type funcKey struct {
	name       string
	sourceFile string
}

// AnnotationStats tallies the collected annotation database (stats.py's
// get_annotations_stats).
type AnnotationStats struct {
	ObjectFiles               map[string]bool
	Functions                 int
	FunctionsWithPointers     map[funcKey]bool
	FunctionsReturningPointer map[funcKey]bool
	Parameters                int
	Pointers                  int
	MayNotReturnNull          int
	NoDeref                   int
	MayDeref                  int
	MustDeref                 int
}

// ComputeAnnotationStats walks every record in db.
func ComputeAnnotationStats(db *annotation.Database) AnnotationStats {
	stats := AnnotationStats{
		ObjectFiles:               make(map[string]bool),
		FunctionsWithPointers:     make(map[funcKey]bool),
		FunctionsReturningPointer: make(map[funcKey]bool),
	}

	for _, r := range db.All() {
		stats.Functions++
		stats.ObjectFiles[r.ObjectFile] = true

		key := funcKey{name: r.Name, sourceFile: r.SourceFile}

		if r.ReturnKind == annotation.ReturnPointer {
			stats.FunctionsReturningPointer[key] = true

			if !r.MayReturnNull {
				stats.MayNotReturnNull++
			}
		}

		for _, p := range r.Params {
			stats.Parameters++

			if !p.IsPointer {
				continue
			}

			stats.Pointers++
			stats.FunctionsWithPointers[key] = true

			switch {
			case p.MustDeref:
				stats.MustDeref++
			case p.MayDeref:
				stats.MayDeref++
			default:
				stats.NoDeref++
			}
		}
	}

	return stats
}

// LargestUnit is one entry in the "N largest units" ranking.
type LargestUnit struct {
	ObjectFile string
	Functions  int
}

// LargestUnits returns the n units with the most functions, descending,
// matching stats.py's `sorted(plan, key=lambda of: -len(of["functions"]))`.
func LargestUnits(plan unitplan.Plan, n int) []LargestUnit {
	units := make([]LargestUnit, len(plan))
	for i, u := range plan {
		units[i] = LargestUnit{ObjectFile: u.ObjectFile, Functions: len(u.Functions)}
	}

	sort.SliceStable(units, func(i, j int) bool { return units[i].Functions > units[j].Functions })

	if n > 0 && len(units) > n {
		units = units[:n]
	}

	return units
}

// MedianFunctionsPerUnit reproduces stats.py's median: the function count
// of the unit at the sorted midpoint index (not an average of the two
// middle values when the count is even — the script's own behavior,
// replicated rather than "fixed").
func MedianFunctionsPerUnit(plan unitplan.Plan) int {
	if len(plan) == 0 {
		return 0
	}

	units := LargestUnits(plan, 0)

	return units[len(units)/2].Functions
}

// TotalDependencies sums every function's called-functions list across the
// whole plan (stats.py's `deps`).
func TotalDependencies(plan unitplan.Plan) int {
	total := 0

	for _, unit := range plan {
		for _, fn := range unit.Functions {
			total += len(fn.CalledFunctions)
		}
	}

	return total
}

// UnanalysedFile is one plan object file with no surviving annotation.
type UnanalysedFile struct {
	ObjectFile string
	Functions  int
}

// UnanalysedFiles returns every plan object file absent from
// annotationStats.ObjectFiles, descending by planned function count
// (stats.py's `bad_files`).
func UnanalysedFiles(plan unitplan.Plan, annotationStats AnnotationStats) []UnanalysedFile {
	numFunctions := make(map[string]int)
	for _, unit := range plan {
		numFunctions[unit.ObjectFile] = len(unit.Functions)
	}

	var bad []UnanalysedFile

	for objectFile, count := range numFunctions {
		if !annotationStats.ObjectFiles[objectFile] {
			bad = append(bad, UnanalysedFile{ObjectFile: objectFile, Functions: count})
		}
	}

	sort.Slice(bad, func(i, j int) bool {
		if bad[i].Functions != bad[j].Functions {
			return bad[i].Functions > bad[j].Functions
		}

		return bad[i].ObjectFile < bad[j].ObjectFile
	})

	return bad
}
