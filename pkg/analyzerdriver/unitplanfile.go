package analyzerdriver

import (
	"fmt"
	"os"
	"strings"

	"github.com/prokopk1n/nullannotate/pkg/unitplan"
)

// WriteUnitPlanFile renders a single unit to the ad hoc plain-text format the
// analyzer reads (§6):
//
//	File <object_file>
//	Function <name>
//	  Calls <callee_name> <callee_object_file>
//	  ...
//	Function <name>
//	  ...
func WriteUnitPlanFile(path string, unit unitplan.PlanUnit) error {
	var b strings.Builder

	fmt.Fprintf(&b, "File %s\n", unit.ObjectFile)

	for _, fn := range unit.Functions {
		fmt.Fprintf(&b, "Function %s\n", fn.Name)

		for _, call := range fn.CalledFunctions {
			fmt.Fprintf(&b, "  Calls %s %s\n", call.Name, call.ObjectFile)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write unit plan file %s: %w", path, err)
	}

	return nil
}

// FilterFunctions returns a copy of unit containing only the named
// functions, preserving their original relative order — used by the
// incremental fixpoint controller (§4.I) to re-analyse a subset.
func FilterFunctions(unit unitplan.PlanUnit, selected map[string]bool) unitplan.PlanUnit {
	out := unitplan.PlanUnit{ObjectFile: unit.ObjectFile}

	for _, fn := range unit.Functions {
		if selected[fn.Name] {
			out.Functions = append(out.Functions, fn)
		}
	}

	return out
}
