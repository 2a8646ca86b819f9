package callgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokopk1n/nullannotate/pkg/projectmap"
)

func twoFunctionChain(t *testing.T) *projectmap.ProjectMap {
	t.Helper()

	pm, err := projectmap.Decode([]byte(`{
      "functions": {
        "f1": {"a.c": {"type": "global", "calls": {"f2": ["a.c"]}}},
        "f2": {"a.c": {"type": "static"}}
      },
      "source files": {"a.c": {"compiled to": ["a.o"]}},
      "object files": {"a.o": {"compiled from": ["a.c"]}}
    }`))
	require.NoError(t, err)

	return pm
}

func TestBuildEdgeExistsBetweenCompiledFunctions(t *testing.T) {
	pm := twoFunctionChain(t)
	g := Build(pm, BuildOptions{})

	assert.Equal(t, 2, g.NodeCount())

	f1, ok := g.Lookup(FunctionID{Name: "f1", File: "a.c"})
	require.True(t, ok)
	f2, ok := g.Lookup(FunctionID{Name: "f2", File: "a.c"})
	require.True(t, ok)

	assert.Contains(t, g.Forward().Successors(f1), f2)
	assert.Contains(t, g.Reverse().Successors(f2), f1)
}

func TestBuildDropsEdgesToUncompiledFiles(t *testing.T) {
	pm, err := projectmap.Decode([]byte(`{
      "functions": {
        "f1": {"a.c": {"type": "global", "calls": {"f2": ["b.c"]}}},
        "f2": {"b.c": {"type": "global"}}
      },
      "source files": {
        "a.c": {"compiled to": ["a.o"]},
        "b.c": {}
      },
      "object files": {"a.o": {"compiled from": ["a.c"]}}
    }`))
	require.NoError(t, err)

	g := Build(pm, BuildOptions{})

	assert.Equal(t, 1, g.NodeCount(), "b.c has no compiled-to set, so f2 must be invisible")

	f1, ok := g.Lookup(FunctionID{Name: "f1", File: "a.c"})
	require.True(t, ok)
	assert.Empty(t, g.Forward().Successors(f1))
}

func TestBuildPreservesSelfEdges(t *testing.T) {
	pm, err := projectmap.Decode([]byte(`{
      "functions": {
        "f1": {"a.c": {"type": "global", "calls": {"f1": ["a.c"]}}}
      },
      "source files": {"a.c": {"compiled to": ["a.o"]}},
      "object files": {"a.o": {"compiled from": ["a.c"]}}
    }`))
	require.NoError(t, err)

	g := Build(pm, BuildOptions{})
	f1, ok := g.Lookup(FunctionID{Name: "f1", File: "a.c"})
	require.True(t, ok)

	assert.Contains(t, g.Forward().Successors(f1), f1)
}

func TestBuildPruneStaticsDropsUnreachableStatic(t *testing.T) {
	pm, err := projectmap.Decode([]byte(`{
      "functions": {
        "f1": {"a.c": {"type": "global"}},
        "dead": {"a.c": {"type": "static"}}
      },
      "source files": {"a.c": {"compiled to": ["a.o"]}},
      "object files": {"a.o": {"compiled from": ["a.c"]}}
    }`))
	require.NoError(t, err)

	pruned := Build(pm, BuildOptions{PruneStatics: true})
	assert.Equal(t, 1, pruned.NodeCount())

	_, ok := pruned.Lookup(FunctionID{Name: "dead", File: "a.c"})
	assert.False(t, ok)

	unpruned := Build(pm, BuildOptions{PruneStatics: false})
	assert.Equal(t, 2, unpruned.NodeCount())
}

func TestBuildPruneStaticsKeepsReachableStatic(t *testing.T) {
	pm := twoFunctionChain(t)

	pruned := Build(pm, BuildOptions{PruneStatics: true})
	assert.Equal(t, 2, pruned.NodeCount())
}
