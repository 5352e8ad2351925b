package postings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokenService assigns ids in first-seen order, per token bytes.
type fakeTokenService struct {
	ids    map[string]uint32
	counts map[uint32]int
	next   uint32
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{ids: make(map[string]uint32), counts: make(map[uint32]int)}
}

func (f *fakeTokenService) GetTokenID(_ context.Context, token []byte, docID uint32) (uint32, int, error) {
	key := string(token)
	id, ok := f.ids[key]
	if !ok {
		f.next++
		id = f.next
		f.ids[key] = id
	}
	if docID != 0 {
		f.counts[id]++
	}
	return id, f.counts[id], nil
}

func TestAddOccurrenceBuildsEntry(t *testing.T) {
	svc := newFakeTokenService()
	acc := NewAccumulator(svc)
	idx := NewIndex()

	require.NoError(t, acc.AddOccurrence(context.Background(), idx, 7, []byte("ab"), 0))
	require.NoError(t, acc.AddOccurrence(context.Background(), idx, 7, []byte("ab"), 4))

	entry, ok := idx.Get(1)
	require.True(t, ok, "expected entry for token 1")
	assert.Equal(t, 1, entry.DocsCount)
	assert.Equal(t, 2, entry.PositionsCount)
	require.Len(t, entry.Postings, 1)
	assert.EqualValues(t, 7, entry.Postings[0].DocID)
	assert.Equal(t, []uint32{0, 4}, entry.Postings[0].Positions)
}

func TestMergePostingsDisjoint(t *testing.T) {
	// spec.md §8 scenario 4.
	base := List{{DocID: 1, Positions: []uint32{0}}, {DocID: 5, Positions: []uint32{2}}}
	other := List{{DocID: 3, Positions: []uint32{1}}}

	merged, err := MergePostings(base, other)
	require.NoError(t, err)
	require.Len(t, merged, 3)
	for i := 1; i < len(merged); i++ {
		assert.Less(t, merged[i-1].DocID, merged[i].DocID, "merged not strictly ascending: %v", merged)
	}
	want := []uint32{1, 3, 5}
	for i, w := range want {
		assert.Equal(t, w, merged[i].DocID)
	}
}

func TestMergePostingsOverlapIsError(t *testing.T) {
	a := List{{DocID: 1, Positions: []uint32{0}}}
	b := List{{DocID: 1, Positions: []uint32{1}}}
	_, err := MergePostings(a, b)
	assert.Equal(t, ErrOverlappingDomains, err)
}

func TestMergeCombinesIndexes(t *testing.T) {
	base := NewIndex()
	base.entries[1] = &Entry{TokenID: 1, DocsCount: 2, PositionsCount: 2, Postings: List{
		{DocID: 1, Positions: []uint32{0}},
		{DocID: 5, Positions: []uint32{2}},
	}}

	other := NewIndex()
	other.entries[1] = &Entry{TokenID: 1, DocsCount: 1, PositionsCount: 1, Postings: List{
		{DocID: 3, Positions: []uint32{1}},
	}}
	other.entries[2] = &Entry{TokenID: 2, DocsCount: 1, PositionsCount: 1, Postings: List{
		{DocID: 3, Positions: []uint32{0}},
	}}

	require.NoError(t, Merge(base, other))
	assert.Equal(t, 0, other.Len())
	require.Equal(t, 2, base.Len())

	e1, ok := base.Get(1)
	require.True(t, ok)
	assert.Equal(t, 3, e1.DocsCount)
	assert.Len(t, e1.Postings, 3)
}

func TestMergeBuilderOrdersByTokenID(t *testing.T) {
	mb := NewMergeBuilder()
	for _, tid := range []uint32{5, 1, 3} {
		idx := NewIndex()
		idx.entries[tid] = &Entry{TokenID: tid, DocsCount: 1, PositionsCount: 1, Postings: List{{DocID: 1, Positions: []uint32{0}}}}
		require.NoError(t, mb.Add(idx))
	}

	var order []uint32
	err := mb.Flush(func(e *Entry) error {
		order = append(order, e.TokenID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3, 5}, order)
}
