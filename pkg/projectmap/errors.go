package projectmap

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is the sentinel for project-map documents that fail
// schema validation or are missing a required field. It is always wrapped
// with the offending path for diagnostics.
var ErrMalformedInput = errors.New("malformed project map")

// malformedf wraps ErrMalformedInput with a formatted, path-qualified
// message.
func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}
