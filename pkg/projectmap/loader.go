package projectmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// rawFunctionInfo mirrors one (name, file) entry's JSON shape exactly,
// including fields this loader does not use yet (via json.RawMessage-free
// plain decoding, so unknown keys are simply dropped instead of erroring —
// tolerant of forward-compatible project-map producers).
type rawFunctionInfo struct {
	Calls    map[string][]string `json:"calls"`
	CalledIn map[string][]string `json:"called in"`
	Type     string              `json:"type"`
}

type rawSourceFile struct {
	CompiledTo []string `json:"compiled to"`
}

type rawObjectFile struct {
	CompiledFrom []string `json:"compiled from"`
}

type rawProjectMap struct {
	Functions   map[string]map[string]rawFunctionInfo `json:"functions"`
	SourceFiles map[string]rawSourceFile               `json:"source files"`
	ObjectFiles map[string]rawObjectFile               `json:"object files"`
}

// Load reads and decodes a project-map file from path.
func Load(path string) (*ProjectMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project map %s: %w", path, err)
	}

	return Decode(data)
}

// Decode parses project-map bytes already read into memory. It validates
// the top-level shape against schemaDocument first (failing fast with
// ErrMalformedInput), then does a single-pass streaming decode of the
// (typically multi-megabyte) document into the structured ProjectMap — the
// planner touches every field exactly once after this, per the Design Notes.
func Decode(data []byte) (*ProjectMap, error) {
	if err := validateShape(data); err != nil {
		return nil, err
	}

	var raw rawProjectMap

	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&raw); err != nil {
		return nil, malformedf("decode project map: %v", err)
	}

	return convert(raw)
}

func convert(raw rawProjectMap) (*ProjectMap, error) {
	pm := &ProjectMap{
		Functions:   make(map[string]map[string]*FunctionEntry, len(raw.Functions)),
		SourceFiles: make(map[string]*SourceFile, len(raw.SourceFiles)),
		ObjectFiles: make(map[string]*ObjectFile, len(raw.ObjectFiles)),
	}

	for path, sf := range raw.SourceFiles {
		pm.SourceFiles[path] = &SourceFile{Path: path, CompiledTo: sf.CompiledTo}
	}

	for path, of := range raw.ObjectFiles {
		pm.ObjectFiles[path] = &ObjectFile{Path: path, CompiledFrom: of.CompiledFrom}
	}

	for name, byFile := range raw.Functions {
		if name == "" {
			return nil, malformedf("functions: empty function name")
		}

		entries := make(map[string]*FunctionEntry, len(byFile))

		for file, info := range byFile {
			if file == "" {
				return nil, malformedf("functions[%s]: empty source file", name)
			}

			entries[file] = &FunctionEntry{
				Name:     name,
				File:     file,
				Linkage:  parseLinkage(info.Type),
				Calls:    info.Calls,
				CalledIn: info.CalledIn,
			}
		}

		pm.Functions[name] = entries
	}

	return pm, nil
}
