package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	oldwd, err := os.Getwd()
	require.NoError(t, err)

	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(oldwd)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "ldv-deref", cfg.Analyzer.ConfigProfile)
	assert.Equal(t, "min-cycle-edges", cfg.Plan.Heuristic)
	assert.Equal(t, "json", cfg.Store.Backend)
	assert.Equal(t, -1, cfg.Run.FromFile)
	assert.Equal(t, 10, cfg.Run.MaxGenerations)
}

func TestLoadConfigReadsExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")

	require.NoError(t, os.WriteFile(path, []byte("plan:\n  heuristic: most-functions\nrun:\n  max_generations: 3\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "most-functions", cfg.Plan.Heuristic)
	assert.Equal(t, 3, cfg.Run.MaxGenerations)
}

func TestLoadConfigRejectsUnknownHeuristic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	require.NoError(t, os.WriteFile(path, []byte("plan:\n  heuristic: bogus\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidHeuristic)
}

func TestLoadConfigRejectsNegativeFromFileBelowSentinel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	require.NoError(t, os.WriteFile(path, []byte("run:\n  from_file: -5\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidFromFile)
}
