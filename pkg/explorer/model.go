// Package explorer implements the interactive annotation lookup REPL and
// its MCP tool equivalents (§4.O).
package explorer

import (
	"sort"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
)

// Model indexes a loaded annotation database by function name, object
// file, and source file, each bucket sorted by function name — the shape
// explorer.py's build_model produces.
type Model struct {
	byFunction   map[string][]*annotation.Record
	byObjectFile map[string][]*annotation.Record
	bySourceFile map[string][]*annotation.Record
}

// BuildModel indexes every record in db three ways.
func BuildModel(db *annotation.Database) *Model {
	m := &Model{
		byFunction:   make(map[string][]*annotation.Record),
		byObjectFile: make(map[string][]*annotation.Record),
		bySourceFile: make(map[string][]*annotation.Record),
	}

	for _, r := range db.All() {
		m.byFunction[r.Name] = append(m.byFunction[r.Name], r)
		m.byObjectFile[r.ObjectFile] = append(m.byObjectFile[r.ObjectFile], r)
		m.bySourceFile[r.SourceFile] = append(m.bySourceFile[r.SourceFile], r)
	}

	sortByName := func(buckets map[string][]*annotation.Record) {
		for key := range buckets {
			records := buckets[key]
			sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
		}
	}

	sortByName(m.byFunction)
	sortByName(m.byObjectFile)
	sortByName(m.bySourceFile)

	return m
}

// LookupFunction returns every annotation recorded for function name.
func (m *Model) LookupFunction(name string) []*annotation.Record { return m.byFunction[name] }

// LookupObjectFile returns every annotation compiled into objectFile.
func (m *Model) LookupObjectFile(objectFile string) []*annotation.Record {
	return m.byObjectFile[objectFile]
}

// LookupSourceFile returns every annotation declared in sourceFile.
func (m *Model) LookupSourceFile(sourceFile string) []*annotation.Record {
	return m.bySourceFile[sourceFile]
}
