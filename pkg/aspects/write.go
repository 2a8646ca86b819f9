package aspects

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// WriteAspects writes the aspect file at path using checkType ("assert" or
// "assume") in place of every NULLDEREFCHECKTYPE placeholder (§4.N,
// aspects.py's write_aspects).
func WriteAspects(functions map[string]*Function, path, checkType string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "before: file (\"$this\")\n")
	fmt.Fprintf(&b, "{\n")
	fmt.Fprintf(&b, "#include <null_deref_%s.h>\n", checkType)
	fmt.Fprintf(&b, "}\n\n")

	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fn := functions[name]
		if fn.Aspect == "" {
			continue
		}

		b.WriteString(strings.ReplaceAll(fn.Aspect, "NULLDEREFCHECKTYPE", checkType))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write aspect file %s: %w", path, err)
	}

	return nil
}
