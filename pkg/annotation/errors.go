package annotation

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is the annotation-codec taxonomy entry for a text
// record that fails the §4.F grammar (§7 "MalformedInput").
var ErrMalformedInput = errors.New("annotation: malformed record")

// ErrJoinMismatch is the §7 "JoinMismatch" taxonomy entry: two records for
// the same (name, source_file) disagree on parameter arity, name, or
// pointer-ness.
var ErrJoinMismatch = errors.New("annotation: join mismatch")

func parsef(path string, line int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %w: %s", path, line, ErrMalformedInput, fmt.Sprintf(format, args...))
}
