// Package projectmap loads the external cross-reference index (the
// "project map") that this system treats as ground truth about a C
// project's functions, source files, object files, and call edges.
package projectmap

// Linkage is a function's linkage tag.
type Linkage int

// Linkage values. Unknown is the zero value so a project map entry that
// omits "type" defaults to it, matching the Python loader's tolerant
// treatment of absent fields.
const (
	LinkageUnknown Linkage = iota
	LinkageGlobal
	LinkageStatic
)

func parseLinkage(s string) Linkage {
	switch s {
	case "global":
		return LinkageGlobal
	case "static":
		return LinkageStatic
	default:
		return LinkageUnknown
	}
}

// FunctionEntry is one (name, source_file) function's project-map record.
type FunctionEntry struct {
	Name    string
	File    string
	Linkage Linkage

	// Calls maps callee name to the set of source files it is defined in —
	// a call site can resolve to more than one definition when the callee
	// name is not unique (distinct statics, weak symbols).
	Calls map[string][]string

	// CalledIn maps caller name to the set of source files the call occurs
	// in. Only consumed by the aspect emitter (§4.N), which needs to know
	// which files call a given function, not which functions it calls.
	CalledIn map[string][]string
}

// SourceFile is one source-file project-map record.
type SourceFile struct {
	Path       string
	CompiledTo []string
}

// ObjectFile is one object-file project-map record.
type ObjectFile struct {
	Path         string
	CompiledFrom []string
}

// ProjectMap is the fully-decoded project map: functions keyed by name then
// source file, source files and object files keyed by path.
type ProjectMap struct {
	Functions   map[string]map[string]*FunctionEntry
	SourceFiles map[string]*SourceFile
	ObjectFiles map[string]*ObjectFile
}

// Function looks up a function by (name, file).
func (m *ProjectMap) Function(name, file string) (*FunctionEntry, bool) {
	byFile, ok := m.Functions[name]
	if !ok {
		return nil, false
	}

	entry, ok := byFile[file]

	return entry, ok
}

// IsCompiled reports whether a source file has a non-empty compiled-to set,
// i.e. whether it is visible to the planner at all (§3 "Source file").
func (m *ProjectMap) IsCompiled(file string) bool {
	sf, ok := m.SourceFiles[file]

	return ok && len(sf.CompiledTo) > 0
}

// CandidateObjectFiles returns the object files a source file compiles to.
func (m *ProjectMap) CandidateObjectFiles(file string) []string {
	sf, ok := m.SourceFiles[file]
	if !ok {
		return nil
	}

	return sf.CompiledTo
}
