package fixpoint

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Record is one changelog line: one JSON object per unit processed within a
// generation, compact separators (§6). Functions holds only the selected
// subset's resulting status — skipped units have an empty map.
type Record struct {
	Gen        int               `json:"gen"`
	FileIndex  int               `json:"file index"`
	ObjectFile string            `json:"object file"`
	Functions  map[string]Status `json:"functions"`
}

// readChangelog reads every record in path in order. A missing file is
// treated as an empty changelog (first run).
func readChangelog(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("open changelog %s: %w", path, err)
	}
	defer f.Close()

	var records []Record

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("parse changelog %s: %w", path, err)
		}

		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read changelog %s: %w", path, err)
	}

	return records, nil
}

// rewriteChangelog truncates path and writes records back in order —
// used when --from-file rewinds the latest generation.
func rewriteChangelog(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("truncate changelog %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)

	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("rewrite changelog %s: %w", path, err)
		}
	}

	return f.Sync()
}

// changelogWriter appends records to path, flushing after every append per
// §5's "changelog is append-only; each append is flushed before the next
// unit begins."
type changelogWriter struct {
	f *os.File
}

func openChangelogWriter(path string) (*changelogWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open changelog %s for append: %w", path, err)
	}

	return &changelogWriter{f: f}, nil
}

func (w *changelogWriter) Append(r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode changelog record: %w", err)
	}

	data = append(data, '\n')

	if _, err := w.f.Write(data); err != nil {
		return fmt.Errorf("append changelog record: %w", err)
	}

	return w.f.Sync()
}

func (w *changelogWriter) Close() error {
	return w.f.Close()
}
