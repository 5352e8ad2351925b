package gram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lalinsky/ngramidx/textutil"
)

func splitAll(text string, n int) []Gram {
	buf := textutil.UTF8Codec{}.Decode([]byte(text))
	sp := NewSplitter(buf, n)
	var out []Gram
	for {
		g, ok := sp.Next()
		if !ok {
			break
		}
		out = append(out, g)
	}
	return out
}

func TestSplitterScenario(t *testing.T) {
	// spec.md §8 scenario 1: N=2, "ab cd" -> "ab"@0, "b"@1, "cd"@3, "d"@4.
	got := splitAll("ab cd", 2)
	want := []Gram{
		{Start: 0, Length: 2},
		{Start: 1, Length: 1},
		{Start: 3, Length: 2},
		{Start: 4, Length: 1},
	}
	assert.Equal(t, want, got)

	buf := textutil.UTF8Codec{}.Decode([]byte("ab cd"))
	assert.Equal(t, "ab", string(got[0].Text(buf)))
	assert.Equal(t, "cd", string(got[2].Text(buf)))
}

func TestSplitterAllSeparators(t *testing.T) {
	got := splitAll("   ", 3)
	assert.Empty(t, got)
}

func TestSplitterIndexModeFiltersTail(t *testing.T) {
	got := splitAll("ab cd", 2)
	var kept []Gram
	for _, g := range got {
		if g.Length == 2 {
			kept = append(kept, g)
		}
	}
	want := []Gram{{Start: 0, Length: 2}, {Start: 3, Length: 2}}
	assert.Equal(t, want, kept)
}

func TestSplitterUnicode(t *testing.T) {
	// A CJK sentence with a fullwidth comma separator (0xFF0C).
	got := splitAll("中文，测试", 2)
	buf := textutil.UTF8Codec{}.Decode([]byte("中文，测试"))
	var texts []string
	for _, g := range got {
		if g.Length == 2 {
			texts = append(texts, string(g.Text(buf)))
		}
	}
	want := []string{"中文", "测试"}
	assert.Equal(t, want, texts)
}
