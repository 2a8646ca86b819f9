// Package aspects emits CIL aspect files instrumenting must-deref
// parameters and return values for annotated functions (§4.N).
package aspects

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
	"github.com/prokopk1n/nullannotate/pkg/projectmap"
)

// nondetFunctions maps a C scalar return type's spelling to the
// nondeterministic-value generator the aspect stubs in for it, mirroring
// aspects.py's table exactly.
var nondetFunctions = map[string]string{
	"char":               "__VERIFIER_nondet_char",
	"int":                "__VERIFIER_nondet_int",
	"float":              "__VERIFIER_nondet_float",
	"long":               "__VERIFIER_nondet_long",
	"size_t":             "__VERIFIER_nondet_size_t",
	"loff_t":             "__VERIFIER_nondet_loff_t",
	"u32":                "__VERIFIER_nondet_u32",
	"u16":                "__VERIFIER_nondet_u16",
	"u8":                 "__VERIFIER_nondet_u8",
	"unsigned char":      "__VERIFIER_nondet_uchar",
	"unsigned int":       "__VERIFIER_nondet_uint",
	"unsigned short":     "__VERIFIER_nondet_ushort",
	"unsigned":           "__VERIFIER_nondet_unsigned",
	"unsigned long":      "__VERIFIER_nondet_ulong",
	"unsigned long long": "__VERIFIER_nondet_ulonglong",
}

// Function is one function instrumented (or considered for instrumentation)
// by the aspect emitter.
type Function struct {
	Name        string
	SourceFile  string
	CalledFiles map[string]bool
	Aspect      string // empty if no must-deref parameter produced one
}

// Build selects every annotated function with at least one pointer
// parameter, resolves it against the project map, and builds its aspect
// text (if it has a must-deref parameter) plus the set of files that call
// it (§4.N; aspects.py's get_functions).
func Build(pm *projectmap.ProjectMap, db *annotation.Database) map[string]*Function {
	functions := make(map[string]*Function)

	for _, name := range sortedNames(db) {
		byFile := db.BySourceFile(name)
		sourceFile, record := minEntry(byFile)

		if !hasPointerParam(record) {
			continue
		}

		byFileEntries, ok := pm.Functions[name]
		if !ok {
			continue
		}

		entry, ok := byFileEntries[sourceFile]
		if !ok {
			entry = minFunctionEntry(byFileEntries)
		}

		fn := &Function{Name: name, SourceFile: sourceFile, CalledFiles: make(map[string]bool)}

		for _, files := range entry.CalledIn {
			for _, f := range files {
				fn.CalledFiles[f] = true
			}
		}

		if aspect, ok := buildAspect(name, record); ok {
			fn.Aspect = aspect
		}

		functions[name] = fn
	}

	return functions
}

func sortedNames(db *annotation.Database) []string {
	seen := make(map[string]bool)

	var names []string

	for _, r := range db.All() {
		if !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}

	sort.Strings(names)

	return names
}

// minEntry picks the lexicographically smallest source file, matching
// Python's min() over a dict's items (tuple comparison starting with the
// key).
func minEntry(byFile map[string]*annotation.Record) (string, *annotation.Record) {
	var best string

	var bestRecord *annotation.Record

	for file, r := range byFile {
		if bestRecord == nil || file < best {
			best = file
			bestRecord = r
		}
	}

	return best, bestRecord
}

func minFunctionEntry(byFile map[string]*projectmap.FunctionEntry) *projectmap.FunctionEntry {
	var best string

	var bestEntry *projectmap.FunctionEntry

	for file, e := range byFile {
		if bestEntry == nil || file < best {
			best = file
			bestEntry = e
		}
	}

	return bestEntry
}

func hasPointerParam(r *annotation.Record) bool {
	for _, p := range r.Params {
		if p.IsPointer {
			return true
		}
	}

	return false
}

// signaturePattern extracts the return-type text preceding "<name>(...)"
// from a record's stored signature.
func signaturePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^(.*)` + regexp.QuoteMeta(name) + `\(.*\)$`)
}

func buildAspect(name string, r *annotation.Record) (string, bool) {
	var lines []string

	for i, p := range r.Params {
		if p.IsPointer && p.MustDeref {
			lines = append(lines, fmt.Sprintf("  null_deref_NULLDEREFCHECKTYPE_check($arg%d);", i+1))
		}
	}

	if len(lines) == 0 {
		return "", false
	}

	match := signaturePattern(name).FindStringSubmatch(r.Signature)

	retType := ""
	if len(match) == 2 {
		retType = strings.TrimSpace(match[1])
	}

	signature := fmt.Sprintf("%s %s(..)", retType, name)

	switch {
	case strings.Contains(retType, "*"):
		lines = append(lines, "  return external_allocated_data();")
	case strings.HasPrefix(retType, "struct "):
		lines = append(lines, fmt.Sprintf("  %s *retp = external_allocated_data();", retType))
		lines = append(lines, "  return *retp;")
	default:
		if gen, ok := nondetFunctions[retType]; ok {
			lines = append(lines, fmt.Sprintf("  return %s();", gen))
		} else if retType != "void" {
			lines = append(lines, fmt.Sprintf("  return (%s) __VERIFIER_nondet_ulonglong();", retType))
		}
	}

	return fmt.Sprintf("around: call(%s)\n{\n%s\n}\n\n", signature, strings.Join(lines, "\n")), true
}

// CallingDrivers groups every function by the driver source files (under
// drivers/ but outside drivers/base/) that call it (aspects.py's
// get_calling_drivers), sorted for determinism.
func CallingDrivers(functions map[string]*Function) map[string][]string {
	drivers := make(map[string][]string)

	for name, fn := range functions {
		for file := range fn.CalledFiles {
			if strings.HasPrefix(file, "drivers/") && !strings.HasPrefix(file, "drivers/base/") {
				drivers[file] = append(drivers[file], name)
			}
		}
	}

	for file := range drivers {
		sort.Strings(drivers[file])
	}

	return drivers
}

// FilterAspected keeps only the (driver, names) pairs where at least one
// called name actually produced an aspect.
func FilterAspected(drivers map[string][]string, functions map[string]*Function) map[string][]string {
	filtered := make(map[string][]string)

	for driver, names := range drivers {
		for _, name := range names {
			if functions[name].Aspect != "" {
				filtered[driver] = append(filtered[driver], name)
			}
		}
	}

	return filtered
}
