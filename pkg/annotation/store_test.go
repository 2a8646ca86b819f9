package annotation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.json")

	store, err := OpenJSONStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(sampleRecord("f1", "a.c")))
	require.NoError(t, store.Close())

	reopened, err := OpenJSONStore(path)
	require.NoError(t, err)

	r, ok, err := reopened.Get("f1", "a.c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.o", r.ObjectFile)

	all, err := reopened.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestJSONStoreStartsEmptyWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	store, err := OpenJSONStore(path)
	require.NoError(t, err)

	all, err := store.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteStorePutGetAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.sqlite")

	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(sampleRecord("f1", "a.c")))
	require.NoError(t, store.Put(sampleRecord("f2", "b.c")))

	r, ok, err := store.Get("f1", "a.c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.o", r.ObjectFile)
	assert.True(t, r.Params[0].MustDeref)

	_, ok, err = store.Get("missing", "z.c")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := store.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOpenStoreDispatchesByBackend(t *testing.T) {
	jsonStore, err := OpenStore("json", filepath.Join(t.TempDir(), "a.json"))
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, jsonStore)

	sqliteStore, err := OpenStore("sqlite", filepath.Join(t.TempDir(), "a.sqlite"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, sqliteStore)
	sqliteStore.Close()

	_, err = OpenStore("bogus", "")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestLoadAndSaveStoreDatabaseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")

	store, err := OpenStore("json", path)
	require.NoError(t, err)
	require.NoError(t, SaveStoreDatabase(store, func() *Database {
		db := NewDatabase()
		db.Put(sampleRecord("f1", "a.c"))
		return db
	}()))
	require.NoError(t, store.Close())

	reopened, err := OpenStore("json", path)
	require.NoError(t, err)

	db, err := LoadStoreDatabase(reopened)
	require.NoError(t, err)
	assert.Equal(t, 1, db.Len())
}

func TestSQLiteStorePutOverwritesOnConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotations.sqlite")

	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(paramRecord("f", "a.c", true, false)))
	require.NoError(t, store.Put(paramRecord("f", "a.c", true, true)))

	r, ok, err := store.Get("f", "a.c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.Params[0].MustDeref)

	all, err := store.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
