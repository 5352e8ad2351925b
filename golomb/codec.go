// Package golomb implements the parameterized Golomb code used to
// compress gap sequences in posting lists (C5 in spec.md §4.5): a
// unary quotient followed by a truncated-binary remainder.
package golomb

import (
	"math/bits"

	"github.com/lalinsky/ngramidx/bitio"
	"github.com/pkg/errors"
)

// ErrTruncated is returned when the bit stream ends before a code
// finishes decoding.
var ErrTruncated = errors.New("golomb: truncated code")

// Params holds the derived constants for a given modulus m: b is the
// smallest number of bits such that 2^b >= m, and t = 2^b - m.
type Params struct {
	M uint32
	B uint
	T uint32
}

// NewParams derives (b, t) for modulus m. m must be >= 1; a smaller
// value is clamped to 1.
func NewParams(m uint32) Params {
	if m < 1 {
		m = 1
	}
	if m == 1 {
		return Params{M: 1, B: 0, T: 0}
	}
	b := uint(bits.Len32(m - 1))
	t := (uint32(1) << b) - m
	return Params{M: m, B: b, T: t}
}

// Encode appends the Golomb code for n to w.
func (p Params) Encode(w *bitio.Buffer, n uint32) {
	q := n / p.M
	for i := uint32(0); i < q; i++ {
		w.AppendBit(1)
	}
	w.AppendBit(0)

	if p.M == 1 {
		return
	}

	r := n % p.M
	if r < p.T {
		w.AppendBits(uint64(r), int(p.B-1))
	} else {
		w.AppendBits(uint64(r+p.T), int(p.B))
	}
}

// Decode reads one Golomb code from r.
func (p Params) Decode(r *bitio.Reader) (uint32, error) {
	var q uint32
	for {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, errors.Wrap(ErrTruncated, "reading unary quotient")
		}
		if bit == 0 {
			break
		}
		q++
	}
	n := q * p.M

	if p.M == 1 {
		return n, nil
	}

	rem, err := r.ReadBits(int(p.B - 1))
	if err != nil {
		return 0, errors.Wrap(ErrTruncated, "reading remainder prefix")
	}
	if uint32(rem) >= p.T {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, errors.Wrap(ErrTruncated, "reading remainder extra bit")
		}
		rem = (rem<<1 | uint64(bit)) - uint64(p.T)
	}
	return n + uint32(rem), nil
}
