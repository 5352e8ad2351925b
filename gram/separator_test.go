package gram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSeparator(t *testing.T) {
	sep := []rune{' ', '\t', '\n', '\v', '\f', '\r', '.', ',', ':', '[', '{', '~', 0x3000, 0x3001, 0xFF01, 0xFF1F}
	for _, r := range sep {
		assert.Truef(t, IsSeparator(r), "IsSeparator(%q) = false, want true", r)
	}

	// '_' (0x5F) falls in the 0x5B..0x60 punctuation range and is a
	// separator, unlike most word-splitting heuristics.
	notSep := []rune{'a', 'Z', '0', '9', 0x4E2D, 0x00E9}
	for _, r := range notSep {
		assert.Falsef(t, IsSeparator(r), "IsSeparator(%q) = true, want false", r)
	}
}
