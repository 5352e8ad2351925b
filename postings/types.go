// Package postings implements in-memory posting accumulation (C3) and
// the posting-list wire codec (C6) described in spec.md §3-4. It has
// no dependency on any concrete storage or token-interning backend;
// those are named as external collaborators via the TokenService and
// BlobStore interfaces below, and are implemented in package store.
package postings

import "golang.org/x/net/context"

// Posting is one document's contribution to a token: the document id
// and its strictly ascending, duplicate-free positions.
type Posting struct {
	DocID     uint32
	Positions []uint32
}

// List is an ordered sequence of Postings, sorted strictly ascending
// by DocID with no two entries sharing a document id.
type List []Posting

// Entry is one inverted-index entry: a token id plus its posting
// list and the out-of-band counts spec.md §3 requires be kept
// alongside it.
type Entry struct {
	TokenID        uint32
	DocsCount      int
	PositionsCount int
	Postings       List
}

// Index is the in-memory inverted index of spec.md §3: a map from
// token id to inverted-index entry. Zero value is an empty index.
type Index struct {
	entries map[uint32]*Entry
}

// NewIndex returns an empty in-memory index.
func NewIndex() *Index {
	return &Index{entries: make(map[uint32]*Entry)}
}

// Len reports the number of distinct tokens in the index.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Get returns the entry for tokenID, if any.
func (idx *Index) Get(tokenID uint32) (*Entry, bool) {
	e, ok := idx.entries[tokenID]
	return e, ok
}

// Entries returns every entry in the index. Order is unspecified.
func (idx *Index) Entries() []*Entry {
	out := make([]*Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, e)
	}
	return out
}

// TokenService is the external token-interning collaborator of
// spec.md §6: it assigns a monotonic 32-bit id to each distinct
// token, and reports the token's current persistent docs_count. A
// docID of 0 means "lookup only", per spec.md §6.
type TokenService interface {
	GetTokenID(ctx context.Context, token []byte, docID uint32) (tokenID uint32, currentDocsCount int, err error)
}

// BlobStore is the external posting-blob collaborator of spec.md §6.
type BlobStore interface {
	GetPostings(ctx context.Context, tokenID uint32) (docsCount int, blob []byte, err error)
	PutPostings(ctx context.Context, tokenID uint32, docsCount int, blob []byte) error
	DocumentCount(ctx context.Context) (int, error)
}
