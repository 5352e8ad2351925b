package store

import (
	"testing"

	"golang.org/x/net/context"

	"github.com/lalinsky/ngramidx/postings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeFetchEmpty(t *testing.T) {
	blobs := NewMemBlobStore(0)
	bridge := NewBridge(blobs, postings.Golomb)

	list, docsCount, err := bridge.Fetch(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, docsCount)
}

func TestBridgeUpdateThenFetch(t *testing.T) {
	blobs := NewMemBlobStore(10)
	bridge := NewBridge(blobs, postings.Golomb)
	ctx := context.Background()

	entry := &postings.Entry{
		TokenID: 42,
		Postings: postings.List{
			{DocID: 1, Positions: []uint32{0}},
			{DocID: 5, Positions: []uint32{2}},
		},
	}
	require.NoError(t, bridge.Update(ctx, 10, entry))

	list, docsCount, err := bridge.Fetch(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, docsCount)
	require.Len(t, list, 2)
	assert.Equal(t, uint32(1), list[0].DocID)
	assert.Equal(t, uint32(5), list[1].DocID)
}

func TestBridgeUpdateMergesWithExisting(t *testing.T) {
	// spec.md §8 scenario 4: persistent [(1,[0]),(5,[2])] merged with
	// transient [(3,[1])] -> [(1,[0]),(3,[1]),(5,[2])], docs_count=3.
	blobs := NewMemBlobStore(10)
	bridge := NewBridge(blobs, postings.Golomb)
	ctx := context.Background()

	require.NoError(t, bridge.Update(ctx, 10, &postings.Entry{
		TokenID: 7,
		Postings: postings.List{
			{DocID: 1, Positions: []uint32{0}},
			{DocID: 5, Positions: []uint32{2}},
		},
	}))

	require.NoError(t, bridge.Update(ctx, 10, &postings.Entry{
		TokenID: 7,
		Postings: postings.List{
			{DocID: 3, Positions: []uint32{1}},
		},
	}))

	list, docsCount, err := bridge.Fetch(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, docsCount)
	require.Len(t, list, 3)
	assert.Equal(t, []uint32{1, 3, 5}, []uint32{list[0].DocID, list[1].DocID, list[2].DocID})
}

func TestBridgeRawMode(t *testing.T) {
	blobs := NewMemBlobStore(0)
	bridge := NewBridge(blobs, postings.Raw)
	ctx := context.Background()

	entry := &postings.Entry{
		TokenID:  1,
		Postings: postings.List{{DocID: 9, Positions: []uint32{3, 8}}},
	}
	require.NoError(t, bridge.Update(ctx, 0, entry))

	list, docsCount, err := bridge.Fetch(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, docsCount)
	require.Len(t, list, 1)
	assert.Equal(t, []uint32{3, 8}, list[0].Positions)
}

type failingBlobStore struct{}

func (failingBlobStore) GetPostings(context.Context, uint32) (int, []byte, error) {
	return 0, nil, assertError
}
func (failingBlobStore) PutPostings(context.Context, uint32, int, []byte) error { return nil }
func (failingBlobStore) DocumentCount(context.Context) (int, error)             { return 0, nil }

var assertError = errNotAvailable{}

type errNotAvailable struct{}

func (errNotAvailable) Error() string { return "blob store not available" }

func TestBridgeUpdateLogsFetchFailureWithoutError(t *testing.T) {
	bridge := NewBridge(failingBlobStore{}, postings.Golomb)
	err := bridge.Update(context.Background(), 10, &postings.Entry{
		TokenID:  1,
		Postings: postings.List{{DocID: 1, Positions: []uint32{0}}},
	})
	assert.NoError(t, err)
}
