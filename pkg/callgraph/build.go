package callgraph

import "github.com/prokopk1n/nullannotate/pkg/projectmap"

// BuildOptions controls how Build restricts the call graph.
type BuildOptions struct {
	// PruneStatics keeps only the forward-reachable closure from global
	// functions, dropping static functions no global function can reach
	// (directly or transitively). This is the newer preplan.py behavior;
	// the older monolithic plan.py never pruned (§9 Open Question #2).
	PruneStatics bool
}

// Build constructs the call graph restricted to compiled source files
// (§4.B). A node exists iff its source file has a non-empty compiled-to
// set; an edge exists iff both endpoints exist as project-map function
// entries whose source files are compiled. Self-edges are preserved.
func Build(pm *projectmap.ProjectMap, opts BuildOptions) *Graph {
	g := NewGraph()

	for name, byFile := range pm.Functions {
		for file := range byFile {
			if pm.IsCompiled(file) {
				g.EnsureNode(FunctionID{Name: name, File: file})
			}
		}
	}

	for name, byFile := range pm.Functions {
		for file, entry := range byFile {
			if !pm.IsCompiled(file) {
				continue
			}

			caller, _ := g.Lookup(FunctionID{Name: name, File: file})

			for calleeName, calleeFiles := range entry.Calls {
				for _, calleeFile := range calleeFiles {
					if !pm.IsCompiled(calleeFile) {
						continue
					}

					if _, ok := pm.Function(calleeName, calleeFile); !ok {
						continue
					}

					callee, _ := g.Lookup(FunctionID{Name: calleeName, File: calleeFile})
					g.AddEdge(caller, callee)
				}
			}
		}
	}

	if opts.PruneStatics {
		g = prune(g, pm)
	}

	return g
}

// prune keeps only nodes forward-reachable from global functions, following
// call edges (caller -> callee), matching preplan.py's "mark" closure. The
// traversal is an explicit-stack DFS: whole-project call graphs can exceed
// default native stack depths with a recursive walk (Design Notes §9).
func prune(g *Graph, pm *projectmap.ProjectMap) *Graph {
	reached := make([]bool, g.NodeCount())
	mark := func(root int) {
		if reached[root] {
			return
		}

		stack := []int{root}
		reached[root] = true

		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			for _, callee := range g.Forward().Successors(node) {
				if !reached[callee] {
					reached[callee] = true
					stack = append(stack, callee)
				}
			}
		}
	}

	for _, node := range g.Nodes() {
		id := g.FunctionID(node)

		entry, ok := pm.Function(id.Name, id.File)
		if ok && entry.Linkage == projectmap.LinkageGlobal {
			mark(node)
		}
	}

	pruned := NewGraph()
	remap := make(map[int]int, g.NodeCount())

	for _, node := range g.Nodes() {
		if reached[node] {
			remap[node] = pruned.EnsureNode(g.FunctionID(node))
		}
	}

	for _, node := range g.Nodes() {
		if !reached[node] {
			continue
		}

		for _, callee := range g.Forward().Successors(node) {
			if reached[callee] {
				pruned.AddEdge(remap[node], remap[callee])
			}
		}
	}

	return pruned
}
