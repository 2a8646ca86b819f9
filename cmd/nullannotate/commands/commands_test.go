package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProjectMap = `{
	"functions": {
		"f1": {"a.c": {"type": "global", "calls": {"f2": ["a.c"]}}},
		"f2": {"a.c": {"type": "global"}}
	},
	"source files": {
		"a.c": {"compiled to": ["a.o"]}
	},
	"object files": {
		"a.o": {"compiled from": ["a.c"]}
	}
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestPreplanPlanCollectJoinStatsAspectsPipeline drives the full CLI chain
// end to end against a tiny two-function project map: preplan prunes the
// map, plan assigns and orders it, collect parses annotation text into a
// database, join merges that database with itself, stats reports on the
// result, and aspects emits an assert file for the must-deref parameter.
func TestPreplanPlanCollectJoinStatsAspectsPipeline(t *testing.T) {
	dir := t.TempDir()

	mapPath := filepath.Join(dir, "map.json")
	writeFile(t, mapPath, sampleProjectMap)

	preplanOutPath := filepath.Join(dir, "preplan.json")
	preplan := NewPreplanCommand()
	preplan.SetArgs([]string{mapPath, preplanOutPath})
	require.NoError(t, preplan.Execute())
	assert.FileExists(t, preplanOutPath)

	planOutPath := filepath.Join(dir, "plan.json")
	plan := NewPlanCommand()
	plan.SetArgs([]string{preplanOutPath, planOutPath})
	require.NoError(t, plan.Execute())
	assert.FileExists(t, planOutPath)

	annotationsDir := filepath.Join(dir, "annotations")
	writeFile(t, filepath.Join(annotationsDir, "a.o", "functions", "f1.txt"),
		"Function f1\nstruct foo *f1(void *p)\nParam p Pointer MustDeref\nReturns Pointer MayBeNull NotError\n")
	writeFile(t, filepath.Join(annotationsDir, "a.o", "functions", "f2.txt"),
		"Function f2\nvoid f2(int n)\nParam n NonPointer\nReturns Other\n")

	dbPath := filepath.Join(dir, "db.json")
	collect := NewCollectCommand()
	collect.SetArgs([]string{"--project-map", mapPath, planOutPath, annotationsDir, dbPath})
	require.NoError(t, collect.Execute())
	assert.FileExists(t, dbPath)

	joinedPath := filepath.Join(dir, "joined.json")
	join := NewJoinCommand()
	join.SetArgs([]string{dbPath, dbPath, joinedPath})
	require.NoError(t, join.Execute())
	assert.FileExists(t, joinedPath)

	stats := NewStatsCommand()
	stats.SetArgs([]string{planOutPath, joinedPath})
	require.NoError(t, stats.Execute())

	assertOutPath := filepath.Join(dir, "assert.cil")
	assumeOutPath := filepath.Join(dir, "assume.cil")
	aspects := NewAspectsCommand()
	aspects.SetArgs([]string{mapPath, joinedPath, assertOutPath, assumeOutPath})
	require.NoError(t, aspects.Execute())

	assertContents, err := os.ReadFile(assertOutPath)
	require.NoError(t, err)
	assert.Contains(t, string(assertContents), "f1")

	assumeContents, err := os.ReadFile(assumeOutPath)
	require.NoError(t, err)
	assert.Contains(t, string(assumeContents), "f1")
}

func TestCollectRequiresProjectMapFlag(t *testing.T) {
	dir := t.TempDir()

	planPath := filepath.Join(dir, "plan.json")
	writeFile(t, planPath, `[]`)

	collect := NewCollectCommand()
	collect.SetArgs([]string{planPath, dir, filepath.Join(dir, "out.json")})
	require.Error(t, collect.Execute())
}

func TestExploreRunsScriptedCommandsFromCmdsFile(t *testing.T) {
	dir := t.TempDir()

	dbPath := filepath.Join(dir, "db.json")

	cmdsPath := filepath.Join(dir, "cmds.txt")
	writeFile(t, cmdsPath, "-q\n")

	explore := NewExploreCommand()
	explore.SetArgs([]string{"--cmds", cmdsPath, dbPath})
	require.NoError(t, explore.Execute())
}

func TestPlanRejectsUnknownHeuristic(t *testing.T) {
	dir := t.TempDir()

	mapPath := filepath.Join(dir, "map.json")
	writeFile(t, mapPath, sampleProjectMap)

	plan := NewPlanCommand()
	plan.SetArgs([]string{"--heuristic", "bogus", mapPath, filepath.Join(dir, "plan.json")})
	require.Error(t, plan.Execute())
}

func TestPlanRejectsNonPositiveAttempts(t *testing.T) {
	dir := t.TempDir()

	mapPath := filepath.Join(dir, "map.json")
	writeFile(t, mapPath, sampleProjectMap)

	plan := NewPlanCommand()
	plan.SetArgs([]string{"--attempts", "0", mapPath, filepath.Join(dir, "plan.json")})
	require.Error(t, plan.Execute())
}

func TestLoadConfigFallsBackToDefaultsWhenConfigFlagUnset(t *testing.T) {
	cobraCmd := &cobra.Command{}
	cobraCmd.Flags().String("config", "", "")

	cfg, err := loadConfig(cobraCmd)
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

// TestRunCompletesOneGenerationWhenAnalyzerBinaryIsMissing exercises the
// controller wiring without a real analyzer: cpa.sh does not exist under
// the configured analyzer root, so every selected function classifies as
// AnalyzerError (§5) and the run reaches fixpoint after its first
// generation with no function ever reported New.
func TestRunCompletesOneGenerationWhenAnalyzerBinaryIsMissing(t *testing.T) {
	dir := t.TempDir()

	planPath := filepath.Join(dir, "plan.json")
	writeFile(t, planPath, `[{"object file": "a.o", "functions": [{"name": "f1", "called functions": []}]}]`)

	sourcesRoot := filepath.Join(dir, "sources")
	require.NoError(t, os.MkdirAll(sourcesRoot, 0o755))

	workDir := filepath.Join(dir, "work")

	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, "analyzer:\n  root: "+filepath.Join(dir, "no-such-analyzer")+"\n")

	run := NewRunCommand()
	run.Flags().String("config", "", "")
	run.Flags().Bool("verbose", false, "")
	run.Flags().Bool("quiet", false, "")
	run.SetArgs([]string{"--config", configPath, planPath, sourcesRoot, workDir})
	require.NoError(t, run.Execute())

	assert.FileExists(t, filepath.Join(workDir, "changelog.jsonl"))
}
