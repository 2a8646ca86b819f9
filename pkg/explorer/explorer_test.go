package explorer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/prokopk1n/nullannotate/pkg/annotation"
	"github.com/stretchr/testify/assert"
)

func sampleDB() *annotation.Database {
	db := annotation.NewDatabase()
	db.Put(&annotation.Record{
		Name:          "alloc_thing",
		SourceFile:    "a.c",
		ObjectFile:    "a.o",
		Signature:     "struct thing *alloc_thing(void *ctx)",
		Params:        []annotation.Param{{Name: "ctx", IsPointer: true, MayDeref: true, MustDeref: false}},
		ReturnKind:    annotation.ReturnPointer,
		MayReturnNull: true,
	})
	db.Put(&annotation.Record{
		Name:       "compute",
		SourceFile: "b.c",
		ObjectFile: "b.o",
		Signature:  "int compute(int x)",
		ReturnKind: annotation.ReturnSigned,
	})

	return db
}

func TestBuildModelIndexesAllThreeWays(t *testing.T) {
	model := BuildModel(sampleDB())

	assert.Len(t, model.LookupFunction("alloc_thing"), 1)
	assert.Len(t, model.LookupObjectFile("a.o"), 1)
	assert.Len(t, model.LookupSourceFile("b.c"), 1)
	assert.Empty(t, model.LookupFunction("missing"))
}

func TestReturnDescriptionCoversEveryBranch(t *testing.T) {
	cases := []struct {
		name string
		r    *annotation.Record
		want string
	}{
		{"pointer valid", &annotation.Record{ReturnKind: annotation.ReturnPointer}, "valid pointer"},
		{"pointer null only", &annotation.Record{ReturnKind: annotation.ReturnPointer, MayReturnNull: true}, "valid pointer or NULL"},
		{"pointer errptr only", &annotation.Record{ReturnKind: annotation.ReturnPointer, MayReturnErrPtr: true}, "valid pointer or ERR_PTR"},
		{"pointer any", &annotation.Record{ReturnKind: annotation.ReturnPointer, MayReturnNull: true, MayReturnErrPtr: true}, "any pointer"},
		{"signed zero", &annotation.Record{ReturnKind: annotation.ReturnSigned}, "signed == 0"},
		{"signed nonneg", &annotation.Record{ReturnKind: annotation.ReturnSigned, MayReturnPositive: true}, "signed >= 0"},
		{"signed nonpos", &annotation.Record{ReturnKind: annotation.ReturnSigned, MayReturnNegative: true}, "signed <= 0"},
		{"signed any", &annotation.Record{ReturnKind: annotation.ReturnSigned, MayReturnNegative: true, MayReturnPositive: true}, "any signed"},
		{"other", &annotation.Record{ReturnKind: annotation.ReturnOther}, "other"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReturnDescription(tc.r))
		})
	}
}

func TestParamDescriptionCoversEveryBranch(t *testing.T) {
	assert.Equal(t, "other", ParamDescription(annotation.Param{IsPointer: false}))
	assert.Equal(t, "no deref pointer", ParamDescription(annotation.Param{IsPointer: true}))
	assert.Equal(t, "may deref pointer", ParamDescription(annotation.Param{IsPointer: true, MayDeref: true}))
	assert.Equal(t, "must deref pointer", ParamDescription(annotation.Param{IsPointer: true, MayDeref: true, MustDeref: true}))
}

func TestREPLHandlesLookupsHelpAndQuit(t *testing.T) {
	color.NoColor = true

	model := BuildModel(sampleDB())

	script := "-f alloc_thing\n-o missing.o\n-h\n-q\n"
	var out bytes.Buffer

	repl := NewREPL(model, strings.NewReader(script), &out, false)
	repl.Run()

	text := out.String()
	assert.Contains(t, text, "Found 1 annotation")
	assert.Contains(t, text, "alloc_thing")
	assert.Contains(t, text, "Found 0 annotations")
	assert.Contains(t, text, "Show this help")
}

func TestREPLReportsInvalidCommand(t *testing.T) {
	color.NoColor = true

	model := BuildModel(sampleDB())

	var out bytes.Buffer
	repl := NewREPL(model, strings.NewReader("-x bogus\n-q\n"), &out, false)
	repl.Run()

	assert.Contains(t, out.String(), "Invalid command.")
}

func TestREPLEchoesCommandsFromCmdsFile(t *testing.T) {
	color.NoColor = true

	model := BuildModel(sampleDB())

	var out bytes.Buffer
	repl := NewREPL(model, strings.NewReader("-f compute\n-q\n"), &out, true)
	repl.Run()

	assert.Contains(t, out.String(), "-f compute")
}
