package projectmap

import "github.com/prokopk1n/nullannotate/pkg/callgraph"

// FromGraph reduces pm to the functions actually present as nodes in g,
// plus the source/object files those functions reference, so the result
// can be written back out (Encode/Write) and re-Decode-d as the input to a
// later planning pass — this is the `preplan` command's pruned output
// (§6 "preplan <project_map> <preplan_out>").
func FromGraph(pm *ProjectMap, g *callgraph.Graph) *ProjectMap {
	pruned := &ProjectMap{
		Functions:   make(map[string]map[string]*FunctionEntry),
		SourceFiles: make(map[string]*SourceFile),
		ObjectFiles: make(map[string]*ObjectFile),
	}

	for _, node := range g.Nodes() {
		id := g.FunctionID(node)

		entry, ok := pm.Function(id.Name, id.File)
		if !ok {
			continue
		}

		if _, ok := pruned.Functions[id.Name]; !ok {
			pruned.Functions[id.Name] = make(map[string]*FunctionEntry)
		}

		pruned.Functions[id.Name][id.File] = entry

		includeSourceFile(pruned, pm, id.File)

		for _, file := range entry.CalledIn {
			for _, f := range file {
				includeSourceFile(pruned, pm, f)
			}
		}
	}

	return pruned
}

func includeSourceFile(pruned, pm *ProjectMap, file string) {
	if _, ok := pruned.SourceFiles[file]; ok {
		return
	}

	sf, ok := pm.SourceFiles[file]
	if !ok {
		return
	}

	pruned.SourceFiles[file] = sf

	for _, objectFile := range sf.CompiledTo {
		if _, ok := pruned.ObjectFiles[objectFile]; ok {
			continue
		}

		if of, ok := pm.ObjectFiles[objectFile]; ok {
			pruned.ObjectFiles[objectFile] = of
		}
	}
}
