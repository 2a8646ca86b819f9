package annotation

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// ErrUnknownBackend is returned by OpenStore for a backend name neither
// "json" nor "sqlite" (matching internal/config's store.backend validation).
var ErrUnknownBackend = errors.New("annotation: unknown store backend")

// OpenStore dispatches to OpenJSONStore or OpenSQLiteStore by backend name,
// so callers (join, stats, collect) can accept either through the Store
// interface without their own switch (§4.P).
func OpenStore(backend, path string) (Store, error) {
	switch backend {
	case "json", "":
		return OpenJSONStore(path)
	case "sqlite":
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Store is the pluggable annotation-database backend (§4.P). JSONStore is
// the default, matching collect.py/join.py's single-document layout;
// SQLiteStore scales to databases too large to hold comfortably as one
// in-memory JSON document.
type Store interface {
	Put(r *Record) error
	Get(name, sourceFile string) (*Record, bool, error)
	All() ([]*Record, error)
	Close() error
}

// JSONStore wraps an in-memory Database, persisting it as a single JSON
// document on Close — the collect.py/join.py shape.
type JSONStore struct {
	path string
	db   *Database
}

// OpenJSONStore loads path if it exists, or starts from an empty database.
func OpenJSONStore(path string) (*JSONStore, error) {
	db, err := LoadDatabase(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		db = NewDatabase()
	}

	return &JSONStore{path: path, db: db}, nil
}

func (s *JSONStore) Put(r *Record) error {
	s.db.Put(r)
	return nil
}

func (s *JSONStore) Get(name, sourceFile string) (*Record, bool, error) {
	r, ok := s.db.Get(name, sourceFile)
	return r, ok, nil
}

func (s *JSONStore) All() ([]*Record, error) {
	return s.db.All(), nil
}

// Close persists the database to its backing file.
func (s *JSONStore) Close() error {
	return s.db.Save(s.path)
}

// LoadStoreDatabase reads every record out of s into an in-memory Database,
// letting callers (join, stats) run backend-agnostic logic that needs
// random access or the Database's own bucketed lookups.
func LoadStoreDatabase(s Store) (*Database, error) {
	records, err := s.All()
	if err != nil {
		return nil, fmt.Errorf("read store records: %w", err)
	}

	db := NewDatabase()
	for _, r := range records {
		db.Put(r)
	}

	return db, nil
}

// SaveStoreDatabase writes every record of db into s.
func SaveStoreDatabase(s Store, db *Database) error {
	for _, r := range db.All() {
		if err := s.Put(r); err != nil {
			return fmt.Errorf("write record %s (%s): %w", r.Name, r.SourceFile, err)
		}
	}

	return nil
}

// SQLiteStore persists annotation records in a single table keyed by
// (name, source_file), via the modernc.org/sqlite pure-Go driver (no cgo).
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a SQLite-backed annotation
// store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite annotation store %s: %w", path, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS annotations (
    name TEXT NOT NULL,
    source_file TEXT NOT NULL,
    record TEXT NOT NULL,
    PRIMARY KEY (name, source_file)
)`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize sqlite annotation store %s: %w", path, err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(r *Record) error {
	data, err := json.Marshal(toJSONRecord(r))
	if err != nil {
		return fmt.Errorf("encode record %s (%s): %w", r.Name, r.SourceFile, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO annotations (name, source_file, record) VALUES (?, ?, ?)
		 ON CONFLICT(name, source_file) DO UPDATE SET record = excluded.record`,
		r.Name, r.SourceFile, string(data))
	if err != nil {
		return fmt.Errorf("put record %s (%s): %w", r.Name, r.SourceFile, err)
	}

	return nil
}

func (s *SQLiteStore) Get(name, sourceFile string) (*Record, bool, error) {
	var data string

	err := s.db.QueryRow(
		`SELECT record FROM annotations WHERE name = ? AND source_file = ?`,
		name, sourceFile).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("get record %s (%s): %w", name, sourceFile, err)
	}

	var jr jsonRecord
	if err := json.Unmarshal([]byte(data), &jr); err != nil {
		return nil, false, fmt.Errorf("decode record %s (%s): %w", name, sourceFile, err)
	}

	return fromJSONRecord(name, sourceFile, jr), true, nil
}

func (s *SQLiteStore) All() ([]*Record, error) {
	rows, err := s.db.Query(`SELECT name, source_file, record FROM annotations ORDER BY name, source_file`)
	if err != nil {
		return nil, fmt.Errorf("list annotation records: %w", err)
	}
	defer rows.Close()

	var records []*Record

	for rows.Next() {
		var name, sourceFile, data string
		if err := rows.Scan(&name, &sourceFile, &data); err != nil {
			return nil, fmt.Errorf("scan annotation record: %w", err)
		}

		var jr jsonRecord
		if err := json.Unmarshal([]byte(data), &jr); err != nil {
			return nil, fmt.Errorf("decode record %s (%s): %w", name, sourceFile, err)
		}

		records = append(records, fromJSONRecord(name, sourceFile, jr))
	}

	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
