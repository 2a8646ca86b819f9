package projectmap

import (
	"encoding/json"
	"fmt"
	"os"
)

// Encode serializes a ProjectMap back to the wire format Load/Decode
// accept, with sorted keys and 4-space indentation (matching the sorted-
// keys convention the rest of this tool's file formats share, §6).
// encoding/json already sorts map keys when marshalling, so no explicit
// sort is needed here.
func Encode(pm *ProjectMap) ([]byte, error) {
	raw := rawProjectMap{
		Functions:   make(map[string]map[string]rawFunctionInfo, len(pm.Functions)),
		SourceFiles: make(map[string]rawSourceFile, len(pm.SourceFiles)),
		ObjectFiles: make(map[string]rawObjectFile, len(pm.ObjectFiles)),
	}

	for path, sf := range pm.SourceFiles {
		raw.SourceFiles[path] = rawSourceFile{CompiledTo: sf.CompiledTo}
	}

	for path, of := range pm.ObjectFiles {
		raw.ObjectFiles[path] = rawObjectFile{CompiledFrom: of.CompiledFrom}
	}

	for name, byFile := range pm.Functions {
		entries := make(map[string]rawFunctionInfo, len(byFile))

		for file, entry := range byFile {
			entries[file] = rawFunctionInfo{
				Calls:    entry.Calls,
				CalledIn: entry.CalledIn,
				Type:     linkageString(entry.Linkage),
			}
		}

		raw.Functions[name] = entries
	}

	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode project map: %w", err)
	}

	return data, nil
}

// Write encodes pm and writes it to path.
func Write(pm *ProjectMap, path string) error {
	data, err := Encode(pm)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project map %s: %w", path, err)
	}

	return nil
}

func linkageString(l Linkage) string {
	switch l {
	case LinkageGlobal:
		return "global"
	case LinkageStatic:
		return "static"
	default:
		return ""
	}
}
