package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()

	annotations := filepath.Join(dir, "annotations.json")
	require.NoError(t, os.WriteFile(annotations, []byte(`{"f":{"a.c":{}}}`), 0o644))

	changelog := filepath.Join(dir, "changelog.jsonl")
	require.NoError(t, os.WriteFile(changelog, []byte("{\"gen\":1}\n"), 0o644))

	snapshotPath := filepath.Join(dir, "snapshot.lz4")
	require.NoError(t, WriteSnapshot(snapshotPath, annotations, changelog))

	destDir := t.TempDir()
	annotationsOut, changelogOut, err := ReadSnapshot(snapshotPath, destDir)
	require.NoError(t, err)
	assert.NotEmpty(t, changelogOut)

	data, err := os.ReadFile(annotationsOut)
	require.NoError(t, err)
	assert.JSONEq(t, `{"f":{"a.c":{}}}`, string(data))

	data, err = os.ReadFile(changelogOut)
	require.NoError(t, err)
	assert.Equal(t, "{\"gen\":1}\n", string(data))
}

func TestWriteReadSnapshotWithoutChangelog(t *testing.T) {
	dir := t.TempDir()

	annotations := filepath.Join(dir, "annotations.json")
	require.NoError(t, os.WriteFile(annotations, []byte(`{}`), 0o644))

	snapshotPath := filepath.Join(dir, "snapshot.lz4")
	require.NoError(t, WriteSnapshot(snapshotPath, annotations, ""))

	destDir := t.TempDir()
	annotationsOut, changelogOut, err := ReadSnapshot(snapshotPath, destDir)
	require.NoError(t, err)
	assert.Empty(t, changelogOut)
	assert.FileExists(t, annotationsOut)
}
