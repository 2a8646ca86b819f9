package projectmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokopk1n/nullannotate/pkg/callgraph"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pm, err := Decode([]byte(sampleMap))
	require.NoError(t, err)

	data, err := Encode(pm)
	require.NoError(t, err)

	reloaded, err := Decode(data)
	require.NoError(t, err)

	f1, ok := reloaded.Function("f1", "a.c")
	require.True(t, ok)
	assert.Equal(t, LinkageGlobal, f1.Linkage)
	assert.Equal(t, []string{"a.c"}, f1.Calls["f2"])

	sf, ok := reloaded.SourceFiles["a.c"]
	require.True(t, ok)
	assert.Equal(t, []string{"a.o"}, sf.CompiledTo)
}

func TestFromGraphKeepsOnlyGraphNodesAndTheirFiles(t *testing.T) {
	pm, err := Decode([]byte(sampleMap))
	require.NoError(t, err)

	g := callgraph.NewGraph()
	node := g.EnsureNode(callgraph.FunctionID{Name: "f1", File: "a.c"})
	_ = node

	pruned := FromGraph(pm, g)

	_, ok := pruned.Function("f1", "a.c")
	assert.True(t, ok)

	_, ok = pruned.Function("f2", "a.c")
	assert.False(t, ok)

	_, ok = pruned.SourceFiles["a.c"]
	assert.True(t, ok)

	_, ok = pruned.ObjectFiles["a.o"]
	assert.True(t, ok)
}
