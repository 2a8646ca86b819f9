// Package budget resolves the analyzer driver's resource caps — heap size,
// CPU time, and wall-clock timeout — from human-readable CLI/config strings.
package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrInvalidSizeFormat is returned when a size string cannot be parsed by
// humanize (e.g. "512MB", "2GiB").
var ErrInvalidSizeFormat = errors.New("invalid size format")

// ErrInvalidDuration is returned when a duration string cannot be parsed.
var ErrInvalidDuration = errors.New("invalid duration")

// Caps bounds a single analyzer invocation: heap size, CPU time, and an
// externally enforced wall-clock timeout (§4.H).
type Caps struct {
	HeapBytes int64
	CPUTime   time.Duration
	WallClock time.Duration
}

// DefaultCaps mirrors the analyzer's own historical defaults: a generous
// heap, no CPU cap, and a ten-minute wall-clock timeout per unit.
func DefaultCaps() Caps {
	return Caps{
		HeapBytes: 2 << 30, // 2GiB
		CPUTime:   0,
		WallClock: 10 * time.Minute,
	}
}

// ParseHeap parses a humanize-format size string ("256MB", "1GiB") into a
// byte count. An empty string leaves the default untouched (returns 0, nil).
func ParseHeap(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	bytes, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w for heap size %q: %w", ErrInvalidSizeFormat, s, err)
	}

	return SafeInt64(bytes), nil
}

// ParseDuration parses a Go duration string ("90s", "5m"). An empty string
// leaves the default untouched (returns 0, nil).
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidDuration, s, err)
	}

	return d, nil
}

// WithOverrides returns a copy of c with any non-zero override applied.
func (c Caps) WithOverrides(heapBytes int64, cpuTime, wallClock time.Duration) Caps {
	out := c

	if heapBytes > 0 {
		out.HeapBytes = heapBytes
	}

	if cpuTime > 0 {
		out.CPUTime = cpuTime
	}

	if wallClock > 0 {
		out.WallClock = wallClock
	}

	return out
}

// SafeInt64 clamps a uint64 byte count to the range representable by int64,
// guarding against humanize ever returning a value that would overflow on
// platforms where int64 conversion wraps.
func SafeInt64(v uint64) int64 {
	const maxInt64 = int64(^uint64(0) >> 1)

	if v > uint64(maxInt64) {
		return maxInt64
	}

	return int64(v)
}
