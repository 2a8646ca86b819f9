package annotation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(name, file string) *Record {
	return &Record{
		Name:       name,
		SourceFile: file,
		ObjectFile: "a.o",
		Signature:  "int " + name + "(void *p)",
		Params: []Param{
			{Name: "p", IsPointer: true, MayDeref: true, MustDeref: true},
		},
		ReturnKind:    ReturnPointer,
		MayReturnNull: true,
	}
}

func TestDatabasePutGetAll(t *testing.T) {
	db := NewDatabase()
	db.Put(sampleRecord("f1", "a.c"))
	db.Put(sampleRecord("f2", "a.c"))

	r, ok := db.Get("f1", "a.c")
	require.True(t, ok)
	assert.Equal(t, "f1", r.Name)

	_, ok = db.Get("missing", "a.c")
	assert.False(t, ok)

	assert.Equal(t, 2, db.Len())
	all := db.All()
	require.Len(t, all, 2)
	assert.Equal(t, "f1", all[0].Name)
	assert.Equal(t, "f2", all[1].Name)
}

func TestDatabaseMarshalUsesCollectorWireShape(t *testing.T) {
	db := NewDatabase()
	db.Put(sampleRecord("f1", "a.c"))

	data, err := json.Marshal(db)
	require.NoError(t, err)

	var generic map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))

	record := generic["f1"]["a.c"]
	assert.Equal(t, "a.o", record["object file"])
	assert.Equal(t, true, record["returns pointer"])
	assert.Equal(t, false, record["returns signed"])
	assert.Equal(t, true, record["may return null"])
	assert.Equal(t, false, record["may return errptr"], "errptr key is written as false for pointer returns")
	assert.NotContains(t, record, "may return negative")
}

func TestDatabaseRoundTripJSON(t *testing.T) {
	db := NewDatabase()
	db.Put(sampleRecord("f1", "a.c"))
	db.Put(&Record{Name: "noop", SourceFile: "b.c", ObjectFile: "b.o", Signature: "void noop(void)"})

	data, err := json.MarshalIndent(db, "", "    ")
	require.NoError(t, err)

	restored := NewDatabase()
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, db.Len(), restored.Len())

	original, _ := db.Get("f1", "a.c")
	got, ok := restored.Get("f1", "a.c")
	require.True(t, ok)
	assert.Equal(t, original.Params, got.Params)
	assert.Equal(t, original.ReturnKind, got.ReturnKind)
	assert.Equal(t, original.MayReturnNull, got.MayReturnNull)

	noop, ok := restored.Get("noop", "b.c")
	require.True(t, ok)
	assert.Equal(t, ReturnOther, noop.ReturnKind)
}

func TestDatabaseWellFormedRejectsMustWithoutMay(t *testing.T) {
	db := NewDatabase()
	db.Put(&Record{
		Name:       "bad",
		SourceFile: "a.c",
		Params:     []Param{{Name: "p", IsPointer: true, MustDeref: true, MayDeref: false}},
	})

	err := db.WellFormed()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestDatabaseWellFormedAcceptsValidRecords(t *testing.T) {
	db := NewDatabase()
	db.Put(sampleRecord("f1", "a.c"))

	assert.NoError(t, db.WellFormed())
}
