package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeapAcceptsHumanizeFormats(t *testing.T) {
	bytes, err := ParseHeap("256MB")
	require.NoError(t, err)
	assert.Equal(t, int64(256_000_000), bytes)
}

func TestParseHeapEmptyReturnsZero(t *testing.T) {
	bytes, err := ParseHeap("")
	require.NoError(t, err)
	assert.Zero(t, bytes)
}

func TestParseHeapRejectsGarbage(t *testing.T) {
	_, err := ParseHeap("not-a-size")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSizeFormat)
}

func TestParseDurationRoundTrips(t *testing.T) {
	d, err := ParseDuration("90s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
}

func TestParseDurationRejectsGarbage(t *testing.T) {
	_, err := ParseDuration("soon")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestWithOverridesOnlyAppliesNonZero(t *testing.T) {
	base := DefaultCaps()

	overridden := base.WithOverrides(0, 30*time.Second, 0)

	assert.Equal(t, base.HeapBytes, overridden.HeapBytes)
	assert.Equal(t, 30*time.Second, overridden.CPUTime)
	assert.Equal(t, base.WallClock, overridden.WallClock)
}
