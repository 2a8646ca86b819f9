package projectmap

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// schemaDocument is the minimal JSON Schema for the project-map's top-level
// shape (§6 "Project-map file"). It only pins down the three required
// top-level maps; everything nested is intentionally left permissive so
// unknown per-function/per-file fields pass through untouched, matching the
// Python loader's forward-compatible tolerance of extra keys.
const schemaDocument = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["functions", "source files", "object files"],
  "properties": {
    "functions": {"type": "object"},
    "source files": {"type": "object"},
    "object files": {"type": "object"}
  }
}`

var compiledSchema *gojsonschema.Schema

func schema() (*gojsonschema.Schema, error) {
	if compiledSchema != nil {
		return compiledSchema, nil
	}

	loader := gojsonschema.NewStringLoader(schemaDocument)

	s, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("compile project map schema: %w", err)
	}

	compiledSchema = s

	return compiledSchema, nil
}

// validateShape checks raw project-map bytes against schemaDocument before
// any structural decoding happens, so a document missing one of the three
// top-level maps fails fast with a precise error instead of a nil-map panic
// deep in the converter.
func validateShape(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return malformedf("invalid JSON: %v", err)
	}

	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return malformedf("%s", errs[0].String())
		}

		return malformedf("schema validation failed")
	}

	return nil
}
