// Package pipeline wires the indexing core's components together
// into the two operations spec.md §3 describes: indexing a document
// (doc_id != 0, short tail tokens discarded) and building a
// query-mode index (doc_id == 0, all tail tokens kept). Everything
// downstream of tokenization -- the token service, the blob store,
// the text codec -- is an external collaborator, injected here rather
// than constructed by the pipeline itself.
package pipeline

import (
	"golang.org/x/net/context"

	"github.com/lalinsky/ngramidx/gram"
	"github.com/lalinsky/ngramidx/metrics"
	"github.com/lalinsky/ngramidx/postings"
	"github.com/lalinsky/ngramidx/store"
	"github.com/lalinsky/ngramidx/textutil"
	"github.com/pkg/errors"
)

// ErrReservedDocID is returned when IndexDocument is called with
// doc id 0, which spec.md §3 reserves as the query-mode sentinel.
var ErrReservedDocID = errors.New("pipeline: document id 0 is reserved for query mode")

// Pipeline is the single-threaded, cooperative indexing pipeline of
// spec.md §5: one document is processed to completion before the
// next begins, and every call is synchronous.
type Pipeline struct {
	N    int
	Text textutil.Codec

	Accumulator *postings.Accumulator
	Bridge      *store.Bridge
}

// New returns a Pipeline with the default UTF-8 text codec.
func New(n int, accumulator *postings.Accumulator, bridge *store.Bridge) *Pipeline {
	return &Pipeline{N: n, Text: textutil.UTF8Codec{}, Accumulator: accumulator, Bridge: bridge}
}

// IndexDocument tokenizes text into overlapping N-grams, accumulates
// them into a transient per-document index, and merges that index
// into the persistent one via the persistence bridge. Tail windows
// shorter than N are discarded, per spec.md §3/§4.2's index-mode tail
// policy.
func (p *Pipeline) IndexDocument(ctx context.Context, docID uint32, text []byte) error {
	idx, err := p.BuildDocumentIndex(ctx, docID, text)
	if err != nil {
		return err
	}
	return p.Persist(ctx, idx)
}

// BuildDocumentIndex tokenizes text into a transient per-document
// index without touching the persistence bridge. It is the building
// half of IndexDocument, split out so a batch importer can accumulate
// many documents' indexes (e.g. through a postings.MergeBuilder)
// before a single deferred Persist pass.
func (p *Pipeline) BuildDocumentIndex(ctx context.Context, docID uint32, text []byte) (*postings.Index, error) {
	if docID == 0 {
		return nil, ErrReservedDocID
	}

	idx, err := p.buildIndex(ctx, docID, text, false)
	if err != nil {
		return nil, err
	}
	metrics.DocumentIndexed(idx.Len())
	return idx, nil
}

// Persist merges every entry of idx into the persistent index via the
// persistence bridge, using the corpus-wide document count in effect
// at the time of the call to derive Golomb mode's m_doc.
func (p *Pipeline) Persist(ctx context.Context, idx *postings.Index) error {
	totalDocuments, err := p.Bridge.Blobs.DocumentCount(ctx)
	if err != nil {
		return errors.Wrap(store.ErrBlobStoreFailed, err.Error())
	}

	for _, entry := range idx.Entries() {
		if err := p.Bridge.Update(ctx, totalDocuments, entry); err != nil {
			return errors.Wrapf(err, "updating token %d", entry.TokenID)
		}
	}
	return nil
}

// PersistEntry merges a single entry into the persistent index,
// against the given corpus-wide document count. It is the per-token
// counterpart of Persist, used when flushing a postings.MergeBuilder
// that has already combined many documents' entries in token order.
func (p *Pipeline) PersistEntry(ctx context.Context, totalDocuments int, entry *postings.Entry) error {
	if err := p.Bridge.Update(ctx, totalDocuments, entry); err != nil {
		return errors.Wrapf(err, "updating token %d", entry.TokenID)
	}
	return nil
}

// IndexQuery tokenizes text the same way, but keeps every window
// (including a shorter-than-N tail one) and never touches the
// persistence bridge -- it returns the transient index for the caller
// to search against directly. Every occurrence is recorded under
// doc id 0, the query-mode sentinel.
func (p *Pipeline) IndexQuery(ctx context.Context, text []byte) (*postings.Index, error) {
	return p.buildIndex(ctx, 0, text, true)
}

func (p *Pipeline) buildIndex(ctx context.Context, docID uint32, text []byte, queryMode bool) (*postings.Index, error) {
	buf := p.Text.Decode(text)
	idx := postings.NewIndex()

	sp := gram.NewSplitter(buf, p.N)
	for {
		g, ok := sp.Next()
		if !ok {
			break
		}
		if g.Length < p.N && !queryMode {
			continue
		}

		token := g.Text(buf)
		if err := p.Accumulator.AddOccurrence(ctx, idx, docID, token, uint32(g.Start)); err != nil {
			return nil, err
		}
	}

	return idx, nil
}
