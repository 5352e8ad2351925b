package store

import (
	"log"

	"golang.org/x/net/context"

	"github.com/lalinsky/ngramidx/metrics"
	"github.com/lalinsky/ngramidx/postings"
	"github.com/pkg/errors"
)

// ErrBlobStoreFailed wraps failures from the blob store collaborator,
// per the error kinds of spec.md §7. The token service's counterpart
// is postings.ErrTokenServiceFailed: the bridge never talks to the
// token service directly, only postings.Accumulator does.
var ErrBlobStoreFailed = errors.New("store: blob store failed")

// Bridge is the persistence bridge of spec.md §4.7: it fetches an
// encoded posting list, merges it with an in-memory one, and stores
// the result. It is the only place in the core that talks to the
// external BlobStore.
type Bridge struct {
	Blobs postings.BlobStore
	Mode  postings.Mode
}

// NewBridge returns a Bridge over the given blob store and wire mode.
// The same mode must be used consistently, per spec.md §6.
func NewBridge(blobs postings.BlobStore, mode postings.Mode) *Bridge {
	return &Bridge{Blobs: blobs, Mode: mode}
}

// Fetch loads and decodes the posting list currently stored for
// tokenID. An empty blob (never written, or docs_count 0) decodes to
// an empty list.
func (br *Bridge) Fetch(ctx context.Context, tokenID uint32) (postings.List, int, error) {
	docsCount, blob, err := br.Blobs.GetPostings(ctx, tokenID)
	if err != nil {
		return nil, 0, errors.Wrap(ErrBlobStoreFailed, err.Error())
	}
	if len(blob) == 0 {
		return nil, 0, nil
	}
	list, err := postings.Decode(blob, br.Mode, docsCount)
	if err != nil {
		metrics.DecodeError()
		return nil, 0, err
	}
	return list, docsCount, nil
}

// Update merges entry's postings into whatever is currently stored
// for entry.TokenID and writes the combined list back. If the fetch
// fails, the update fails and is logged rather than raised further,
// per spec.md §4.7 ("If fetch fails, the update fails and is logged;
// it does not raise").
//
// After a successful Update, the stored blob decodes to a list whose
// length equals the stored docs_count header, satisfying the
// invariant in spec.md §4.7.
func (br *Bridge) Update(ctx context.Context, totalDocuments int, entry *postings.Entry) error {
	existing, _, err := br.Fetch(ctx, entry.TokenID)
	if err != nil {
		log.Printf("store: fetch failed for token %d, skipping update: %v", entry.TokenID, err)
		return nil
	}

	merged, err := postings.MergePostings(existing, entry.Postings)
	if err != nil {
		return errors.Wrapf(err, "merging postings for token %d", entry.TokenID)
	}

	docsCount := len(merged)
	blob, err := postings.Encode(merged, br.Mode, docsCount, totalDocuments)
	if err != nil {
		return errors.Wrapf(err, "encoding postings for token %d", entry.TokenID)
	}

	if err := br.Blobs.PutPostings(ctx, entry.TokenID, docsCount, blob); err != nil {
		return errors.Wrap(ErrBlobStoreFailed, err.Error())
	}
	return nil
}
