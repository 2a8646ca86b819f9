package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
	"github.com/prokopk1n/nullannotate/pkg/unitplan"
)

// pyFloat renders a float the way Python's str() does for a true-division
// result: integral values keep a trailing ".0" instead of dropping it.
func pyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)

	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return s
		}
	}

	return s + ".0"
}

// Report prints the coverage report stats.py prints, in the same order
// and wording, to w.
func Report(w io.Writer, plan unitplan.Plan, db *annotation.Database) {
	planStats := ComputePlanStats(plan)
	annotationStats := ComputeAnnotationStats(db)

	fmt.Fprintf(w, "Analysed %d functions in %d files out of %d functions in %d files\n",
		annotationStats.Functions, len(annotationStats.ObjectFiles),
		planStats.Functions, len(planStats.ObjectFiles))
	fmt.Fprintf(w, "%d functions have pointer parameters\n", len(annotationStats.FunctionsWithPointers))
	fmt.Fprintf(w, "%d functions return a pointer\n", len(annotationStats.FunctionsReturningPointer))

	if len(planStats.ObjectFiles) > 0 {
		avg := float64(planStats.Functions) / float64(len(planStats.ObjectFiles))
		fmt.Fprintf(w, "Average number of functions in a file: %s\n", pyFloat(avg))
	}

	median := MedianFunctionsPerUnit(plan)
	fmt.Fprintf(w, "Median number of functions in a file: %d\n", median)

	largest := LargestUnits(plan, 10)

	total := 0
	for _, u := range largest {
		total += u.Functions
	}

	fmt.Fprintf(w, "10 largest files contain %d functions\n", total)

	for _, u := range largest {
		fmt.Fprintf(w, "  %s - %d functions\n", u.ObjectFile, u.Functions)
	}

	fmt.Fprintf(w, "Total number of dependencies in plan: %d\n", TotalDependencies(plan))

	fmt.Fprintf(w, "%d out of %d returned pointers may not be NULL\n",
		annotationStats.MayNotReturnNull, len(annotationStats.FunctionsReturningPointer))

	fmt.Fprintf(w, "%d out of %d parameters are pointers\n", annotationStats.Pointers, annotationStats.Parameters)
	fmt.Fprintf(w, "%d pointer parameters always cause NULL dereference when NULL\n", annotationStats.MustDeref)
	fmt.Fprintf(w, "%d pointer parameters may cause NULL dereference when NULL\n", annotationStats.MayDeref)
	fmt.Fprintf(w, "%d pointer parameters can not cause NULL dereference when NULL\n", annotationStats.NoDeref)

	badFiles := UnanalysedFiles(plan, annotationStats)

	if len(badFiles) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Files that could not be analysed:")

		for _, f := range badFiles {
			fmt.Fprintf(w, "  %s - %d functions\n", f.ObjectFile, f.Functions)
		}
	}
}
