package aspects

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
)

// Report prints the "drivers calling annotated functions" summary
// (aspects.py's report_drivers): total driver count, total call count, and
// each driver ranked by how many annotated functions it calls, with driver
// paths highlighted.
func Report(w io.Writer, functions map[string]*Function, onlyAspected bool) {
	drivers := CallingDrivers(functions)

	descr := "all functions with pointer arguments"
	if onlyAspected {
		drivers = FilterAspected(drivers, functions)
		descr = "functions with aspects"
	}

	fmt.Fprintf(w, "Looking at drivers that call %s.\n", descr)

	totalCalls := 0
	for _, names := range drivers {
		totalCalls += len(names)
	}

	fmt.Fprintf(w, "Total number of drivers: %d\n", len(drivers))
	fmt.Fprintf(w, "Total number of calls: %d\n", totalCalls)
	fmt.Fprintf(w, "Most calling drivers:\n\n")

	type driverCount struct {
		path  string
		names []string
	}

	ranked := make([]driverCount, 0, len(drivers))
	for path, names := range drivers {
		ranked = append(ranked, driverCount{path: path, names: names})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if len(ranked[i].names) != len(ranked[j].names) {
			return len(ranked[i].names) > len(ranked[j].names)
		}

		return ranked[i].path < ranked[j].path
	})

	driverLabel := color.New(color.FgCyan)

	for _, dc := range ranked {
		driverLabel.Fprintf(w, "  %s", dc.path)
		fmt.Fprintf(w, ": %d calls\n", len(dc.names))

		for _, name := range dc.names {
			fmt.Fprintf(w, "    %s\n", name)
		}

		fmt.Fprintln(w)
	}
}
