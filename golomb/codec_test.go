package golomb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalinsky/ngramidx/bitio"
)

func TestParamsDerivation(t *testing.T) {
	cases := []struct {
		m uint32
		b uint
		t uint32
	}{
		{1, 0, 0},
		{2, 1, 0},
		{5, 3, 3},
		{8, 3, 0},
		{10, 4, 6},
	}
	for _, c := range cases {
		p := NewParams(c.m)
		assert.Equalf(t, c.b, p.B, "NewParams(%d).B", c.m)
		assert.Equalf(t, c.t, p.T, "NewParams(%d).T", c.m)
	}
}

func TestUnaryReduction(t *testing.T) {
	p := NewParams(1)
	for _, n := range []uint32{0, 1, 5, 100} {
		buf := bitio.NewBuffer(0)
		p.Encode(buf, n)
		buf.Flush()

		wantBits := n + 1 // n one-bits then a zero-bit
		gotBits := uint32(len(buf.Bytes())) * 8
		assert.GreaterOrEqualf(t, gotBits, wantBits, "encode(%d)", n)
		assert.Lessf(t, gotBits-wantBits, uint32(8), "encode(%d) padding", n)

		r := bitio.NewReader(buf.Bytes())
		got, err := p.Decode(r)
		require.NoError(t, err)
		assert.Equalf(t, n, got, "decode(encode(%d))", n)
	}
}

func TestEncodeZeroIsSingleZeroBit(t *testing.T) {
	p := NewParams(1)
	buf := bitio.NewBuffer(0)
	p.Encode(buf, 0)
	buf.Flush()
	assert.EqualValues(t, 0x00, buf.Bytes()[0])
}

func TestRoundTripAllParams(t *testing.T) {
	for _, m := range []uint32{1, 2, 3, 4, 5, 6, 7, 8, 10, 16, 17, 100} {
		p := NewParams(m)
		for n := uint32(0); n < 300; n++ {
			buf := bitio.NewBuffer(0)
			p.Encode(buf, n)
			buf.Flush()
			r := bitio.NewReader(buf.Bytes())
			got, err := p.Decode(r)
			require.NoErrorf(t, err, "m=%d n=%d", m, n)
			assert.Equalf(t, n, got, "m=%d n=%d", m, n)
		}
	}
}

func TestGolombScenario3(t *testing.T) {
	// spec.md §8 scenario 3: m=5 -> b=3, t=3; gaps [0,1].
	p := NewParams(5)
	require.EqualValues(t, 3, p.B)
	require.EqualValues(t, 3, p.T)

	buf := bitio.NewBuffer(0)
	p.Encode(buf, 0)
	p.Encode(buf, 1)
	buf.Flush()

	r := bitio.NewReader(buf.Bytes())
	g0, err := p.Decode(r)
	require.NoError(t, err)
	assert.EqualValues(t, 0, g0)

	g1, err := p.Decode(r)
	require.NoError(t, err)
	assert.EqualValues(t, 1, g1)
}

func TestDecodeTruncatedUnary(t *testing.T) {
	p := NewParams(5)
	// All-ones tail with no terminating zero bit.
	data := []byte{0xFF, 0xFF}
	r := bitio.NewReader(data)
	_, err := p.Decode(r)
	assert.Error(t, err)
}
