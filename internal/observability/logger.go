// Package observability supplies the ambient logging, tracing, and metrics
// stack for nullannotate (§4.K): log/slog throughout, an OTel span per unit
// invocation, and a Prometheus scrape endpoint for watching a multi-hour
// run from outside the process.
package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide structured logger, matching the
// teacher's buildLogger: JSON to stderr when jsonOutput is set, text
// otherwise, at the given level.
func NewLogger(level slog.Level, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
