package gram

import "github.com/lalinsky/ngramidx/textutil"

// Gram is one N-gram window: Start is the code-point index at which it
// begins (this doubles as the token's Position, per the data model),
// Length is the number of code points it covers (1..N).
type Gram struct {
	Start  int
	Length int
}

// Splitter is a lazy cursor over a decoded code-point buffer, yielding
// overlapping windows of up to N consecutive non-separator code
// points. It never allocates beyond the Gram values it returns.
type Splitter struct {
	buf    []rune
	n      int
	cursor int
}

// NewSplitter returns a splitter over buf with window size n. n must
// be >= 1.
func NewSplitter(buf []rune, n int) *Splitter {
	if n < 1 {
		n = 1
	}
	return &Splitter{buf: buf, n: n}
}

// Next advances the cursor and returns the next window, or ok=false
// once the buffer is exhausted. Callers that need query-mode tail
// tokens should keep every result; index-mode callers should discard
// results with Length < N.
func (s *Splitter) Next() (g Gram, ok bool) {
	for s.cursor < len(s.buf) && IsSeparator(s.buf[s.cursor]) {
		s.cursor++
	}
	if s.cursor >= len(s.buf) {
		return Gram{}, false
	}

	start := s.cursor
	length := 0
	for i := start; i < len(s.buf) && length < s.n; i++ {
		if IsSeparator(s.buf[i]) {
			break
		}
		length++
	}

	s.cursor++
	return Gram{Start: start, Length: length}, true
}

// Text re-encodes the code points covered by g back to UTF-8. buf must
// be the same buffer the splitter was created over.
func (g Gram) Text(buf []rune) []byte {
	return textutil.EncodeRange(buf, g.Start, g.Length)
}
