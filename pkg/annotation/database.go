package annotation

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Database is the mapping name -> source_file -> record (§3 "Annotation
// database"). It is the in-memory representation every component (collect,
// join, stats, aspects, explore) operates on; durability is delegated to a
// Store implementation (§4.P).
type Database struct {
	byName map[string]map[string]*Record
}

// NewDatabase creates an empty annotation database.
func NewDatabase() *Database {
	return &Database{byName: make(map[string]map[string]*Record)}
}

// Put inserts or replaces the record for (name, source_file).
func (d *Database) Put(r *Record) {
	byFile, ok := d.byName[r.Name]
	if !ok {
		byFile = make(map[string]*Record)
		d.byName[r.Name] = byFile
	}

	byFile[r.SourceFile] = r
}

// Get looks up a record by (name, source_file).
func (d *Database) Get(name, sourceFile string) (*Record, bool) {
	byFile, ok := d.byName[name]
	if !ok {
		return nil, false
	}

	r, ok := byFile[sourceFile]

	return r, ok
}

// BySourceFile returns every record for a function name, keyed by source
// file — the shape explorer.py's "-f" lookup needs.
func (d *Database) BySourceFile(name string) map[string]*Record {
	return d.byName[name]
}

// All returns every record, ordered by (name, source_file) for determinism.
func (d *Database) All() []*Record {
	records := make([]*Record, 0, len(d.byName))

	for _, byFile := range d.byName {
		for _, r := range byFile {
			records = append(records, r)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}

		return records[i].SourceFile < records[j].SourceFile
	})

	return records
}

// Len reports the total number of records.
func (d *Database) Len() int {
	n := 0
	for _, byFile := range d.byName {
		n += len(byFile)
	}

	return n
}

// WellFormed returns an error naming the first record, in All order, whose
// must_deref => may_deref invariant is violated (§3's well-formedness
// condition), and nil when every record holds it.
func (d *Database) WellFormed() error {
	for _, r := range d.All() {
		if !r.Valid() {
			return fmt.Errorf("%w: %s (%s): must_deref without may_deref", ErrMalformedInput, r.Name, r.SourceFile)
		}
	}

	return nil
}

// jsonRecord is the wire shape collect.py/join.py produce: field order
// here is declared alphabetically by JSON key, matching
// json.dump(..., sort_keys=True)'s recursive key sort, since
// encoding/json preserves Go struct declaration order rather than sorting
// it. Optional fields are *bool so an absent Python key round-trips to a
// nil pointer instead of a false literal.
type jsonRecord struct {
	MayReturnErrPtr   *bool       `json:"may return errptr,omitempty"`
	MayReturnNegative *bool       `json:"may return negative,omitempty"`
	MayReturnNull     *bool       `json:"may return null,omitempty"`
	MayReturnPositive *bool       `json:"may return positive,omitempty"`
	ObjectFile        string      `json:"object file"`
	Params            []jsonParam `json:"params"`
	ReturnsPointer    bool        `json:"returns pointer"`
	ReturnsSigned     bool        `json:"returns signed"`
	Signature         string      `json:"signature"`
}

type jsonParam struct {
	IsPointer bool   `json:"is pointer"`
	MayDeref  *bool  `json:"may deref,omitempty"`
	MustDeref *bool  `json:"must deref,omitempty"`
	Name      string `json:"name"`
}

func boolPtr(v bool) *bool { return &v }

func toJSONRecord(r *Record) jsonRecord {
	jr := jsonRecord{
		ObjectFile: r.ObjectFile,
		Signature:  r.Signature,
		Params:     make([]jsonParam, len(r.Params)),
	}

	for i, p := range r.Params {
		jp := jsonParam{Name: p.Name, IsPointer: p.IsPointer}
		if p.IsPointer {
			jp.MayDeref = boolPtr(p.MayDeref)
			jp.MustDeref = boolPtr(p.MustDeref)
		}

		jr.Params[i] = jp
	}

	switch r.ReturnKind {
	case ReturnPointer:
		jr.ReturnsPointer = true
		jr.MayReturnNull = boolPtr(r.MayReturnNull)
		jr.MayReturnErrPtr = boolPtr(r.MayReturnErrPtr)
	case ReturnSigned:
		jr.ReturnsSigned = true
		jr.MayReturnNegative = boolPtr(r.MayReturnNegative)
		jr.MayReturnPositive = boolPtr(r.MayReturnPositive)
	}

	return jr
}

func fromJSONRecord(name, sourceFile string, jr jsonRecord) *Record {
	r := &Record{
		Name:       name,
		SourceFile: sourceFile,
		ObjectFile: jr.ObjectFile,
		Signature:  jr.Signature,
		Params:     make([]Param, len(jr.Params)),
	}

	for i, jp := range jr.Params {
		p := Param{Name: jp.Name, IsPointer: jp.IsPointer}
		if jp.MayDeref != nil {
			p.MayDeref = *jp.MayDeref
		}

		if jp.MustDeref != nil {
			p.MustDeref = *jp.MustDeref
		}

		r.Params[i] = p
	}

	switch {
	case jr.ReturnsPointer:
		r.ReturnKind = ReturnPointer
		if jr.MayReturnNull != nil {
			r.MayReturnNull = *jr.MayReturnNull
		}

		if jr.MayReturnErrPtr != nil {
			r.MayReturnErrPtr = *jr.MayReturnErrPtr
		}
	case jr.ReturnsSigned:
		r.ReturnKind = ReturnSigned
		if jr.MayReturnNegative != nil {
			r.MayReturnNegative = *jr.MayReturnNegative
		}

		if jr.MayReturnPositive != nil {
			r.MayReturnPositive = *jr.MayReturnPositive
		}
	default:
		r.ReturnKind = ReturnOther
	}

	return r
}

// MarshalJSON renders the database as name -> source_file -> record; Go's
// encoding/json sorts map keys at both nesting levels automatically,
// matching sort_keys=True.
func (d *Database) MarshalJSON() ([]byte, error) {
	wire := make(map[string]map[string]jsonRecord, len(d.byName))

	for name, byFile := range d.byName {
		inner := make(map[string]jsonRecord, len(byFile))
		for sourceFile, r := range byFile {
			inner[sourceFile] = toJSONRecord(r)
		}

		wire[name] = inner
	}

	return json.Marshal(wire)
}

// UnmarshalJSON populates the database from collect.py/join.py's wire
// format.
func (d *Database) UnmarshalJSON(data []byte) error {
	var wire map[string]map[string]jsonRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	d.byName = make(map[string]map[string]*Record, len(wire))

	for name, byFile := range wire {
		inner := make(map[string]*Record, len(byFile))
		for sourceFile, jr := range byFile {
			inner[sourceFile] = fromJSONRecord(name, sourceFile, jr)
		}

		d.byName[name] = inner
	}

	return nil
}

// Save writes the database to path with sorted keys and 4-space
// indentation (§6).
func (d *Database) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal annotation database: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write annotation database %s: %w", path, err)
	}

	return nil
}

// LoadDatabase reads an annotation database from path.
func LoadDatabase(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read annotation database %s: %w", path, err)
	}

	d := NewDatabase()
	if err := json.Unmarshal(data, d); err != nil {
		return nil, err
	}

	return d, nil
}
