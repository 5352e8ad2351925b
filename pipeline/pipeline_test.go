package pipeline

import (
	"testing"

	"golang.org/x/net/context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalinsky/ngramidx/postings"
	"github.com/lalinsky/ngramidx/store"
)

func newTestPipeline(n int) (*Pipeline, *store.MemBlobStore) {
	tokens := store.NewMemTokenService()
	blobs := store.NewMemBlobStore(0)
	bridge := store.NewBridge(blobs, postings.Golomb)
	return New(n, postings.NewAccumulator(tokens), bridge), blobs
}

func TestIndexDocumentDiscardsShortTail(t *testing.T) {
	p, blobs := newTestPipeline(2)
	ctx := context.Background()
	blobs.SetDocumentCount(1)

	require.NoError(t, p.IndexDocument(ctx, 1, []byte("ab cd")))

	// "ab" and "cd" survive (length==2); "b" and "d" are discarded
	// tail windows, per spec.md §8 scenario 1.
	var tokenCount int
	for id := uint32(1); id < 100; id++ {
		docsCount, blob, err := blobs.GetPostings(ctx, id)
		require.NoError(t, err)
		if blob == nil {
			continue
		}
		tokenCount++
		assert.Equalf(t, 1, docsCount, "token %d docsCount", id)
	}
	assert.Equal(t, 2, tokenCount, `indexed distinct tokens, want "ab" and "cd"`)
}

func TestIndexDocumentRejectsDocIDZero(t *testing.T) {
	p, _ := newTestPipeline(2)
	err := p.IndexDocument(context.Background(), 0, []byte("ab"))
	assert.Equal(t, ErrReservedDocID, err)
}

func TestIndexQueryKeepsShortTail(t *testing.T) {
	p, _ := newTestPipeline(2)
	idx, err := p.IndexQuery(context.Background(), []byte("ab cd"))
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len(), `"ab", "b", "cd", "d"`)
	for _, e := range idx.Entries() {
		require.Len(t, e.Postings, 1)
		assert.EqualValues(t, 0, e.Postings[0].DocID)
	}
}

func TestIndexDocumentThenSecondDocumentMerges(t *testing.T) {
	p, blobs := newTestPipeline(2)
	ctx := context.Background()

	blobs.SetDocumentCount(1)
	require.NoError(t, p.IndexDocument(ctx, 1, []byte("ab")))
	blobs.SetDocumentCount(2)
	require.NoError(t, p.IndexDocument(ctx, 2, []byte("ab")))

	docsCount, blob, err := blobs.GetPostings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, docsCount)

	list, err := postings.Decode(blob, postings.Golomb, docsCount)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.EqualValues(t, 1, list[0].DocID)
	assert.EqualValues(t, 2, list[1].DocID)
}
