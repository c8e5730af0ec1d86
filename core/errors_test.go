package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParseError_TruncatesFragmentOnRuneBoundary(t *testing.T) {
	// Byte 120 lands in the middle of the three-byte rune.
	fragment := strings.Repeat("x", 119) + "日本語"

	perr := NewParseError(PlatformSentinelOne, FormatS1QL, "unbalanced parentheses", fragment)

	assert.True(t, utf8.ValidString(perr.Fragment))
	assert.Equal(t, strings.Repeat("x", 119)+"...", perr.Fragment)
	assert.True(t, utf8.ValidString(perr.Error()))
}

func TestNewParseError_ShortFragmentKeptWhole(t *testing.T) {
	perr := NewParseError(PlatformSentinelOne, FormatS1QL, "bad operator", "a = b")
	assert.Equal(t, "a = b", perr.Fragment)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "abc", 10, "abc"},
		{"exactly max", "abcd", 4, "abcd"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"backs off multibyte rune", "ab日", 3, "ab"},
		{"keeps whole rune at boundary", "ab日", 5, "ab日"},
		{"zero max", "abc", 0, ""},
		{"negative max", "abc", -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			require.True(t, utf8.ValidString(got))
		})
	}
}
