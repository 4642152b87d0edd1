package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "hello world", SanitizeString("hello\x00 world\x07"))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
	assert.Equal(t, "", SanitizeString("   "))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "exact", TruncateString("exact", 5))

	long := strings.Repeat("x", 20)
	truncated := TruncateString(long, 10)
	assert.Len(t, truncated, 10)
	assert.True(t, strings.HasSuffix(truncated, "..."))

	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestTruncateString_RuneBoundary(t *testing.T) {
	// Two-byte runes: a byte-index cut would split one in half.
	long := strings.Repeat("é", 300)
	truncated := TruncateString(long, 500)
	assert.True(t, utf8.ValidString(truncated))
	assert.LessOrEqual(t, len(truncated), 500)
	assert.True(t, strings.HasSuffix(truncated, "..."))

	// Four-byte runes with a tiny budget, no suffix appended.
	emoji := strings.Repeat("\U0001F525", 4)
	truncated = TruncateString(emoji, 3)
	assert.True(t, utf8.ValidString(truncated))
	assert.Empty(t, truncated)
}

func TestHaversineKm(t *testing.T) {
	// Same point
	assert.InDelta(t, 0, HaversineKm(52.52, 13.405, 52.52, 13.405), 0.001)

	// Berlin to Hamburg is roughly 255 km
	d := HaversineKm(52.52, 13.405, 53.55, 9.993)
	assert.InDelta(t, 255, d, 10)

	// Symmetric
	assert.InDelta(t, d, HaversineKm(53.55, 9.993, 52.52, 13.405), 0.001)
}
