package postings

import (
	"golang.org/x/net/context"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/pkg/errors"
)

// ErrOverlappingDomains is returned by MergePostings when the two
// input lists share a document id. spec.md §4.3 treats this as a
// programming error on the caller's part: callers merging a
// per-document accumulator into a fetched persistent list must
// guarantee disjoint doc-id domains.
var ErrOverlappingDomains = errors.New("postings: merge inputs share a document id")

// ErrTokenServiceFailed wraps a failure from the external TokenService
// collaborator, per the error kinds of spec.md §7, so callers can
// errors.Is against it regardless of the underlying backend's error.
var ErrTokenServiceFailed = errors.New("postings: token service failed")

// Accumulator builds a transient in-memory Index for one document (or
// query) and merges it into a larger index, per spec.md §4.3.
type Accumulator struct {
	tokens TokenService
}

// NewAccumulator returns an Accumulator backed by the given token
// service.
func NewAccumulator(tokens TokenService) *Accumulator {
	return &Accumulator{tokens: tokens}
}

// AddOccurrence records one occurrence of tokenUTF8 at position within
// document docID, creating idx's entry for the token if necessary.
// docID == 0 marks a query-mode index (see spec.md §3); it looks the
// token up without incrementing the token service's stored doc count.
func (a *Accumulator) AddOccurrence(ctx context.Context, idx *Index, docID uint32, tokenUTF8 []byte, position uint32) error {
	tokenID, currentDocsCount, err := a.tokens.GetTokenID(ctx, tokenUTF8, docID)
	if err != nil {
		return errors.Wrap(ErrTokenServiceFailed, err.Error())
	}

	entry, ok := idx.entries[tokenID]
	if !ok {
		docsCount := 1
		if docID == 0 {
			// Query mode: no document is being contributed, so the
			// entry's docs_count starts at whatever the token service
			// currently reports (typically unused by the caller, but
			// kept for symmetry with a real index entry).
			docsCount = currentDocsCount
		}
		entry = &Entry{
			TokenID:   tokenID,
			DocsCount: docsCount,
			Postings:  List{{DocID: docID, Positions: []uint32{position}}},
		}
		entry.PositionsCount = 1
		idx.entries[tokenID] = entry
		return nil
	}

	last := &entry.Postings[len(entry.Postings)-1]
	last.Positions = append(last.Positions, position)
	entry.PositionsCount++
	return nil
}

// Merge destructively merges other into base: every entry in other is
// removed and either moved into base (if base lacks the token) or
// combined with base's existing entry via MergePostings, summing
// docs_count. other is empty on return.
func Merge(base, other *Index) error {
	for tokenID, entry := range other.entries {
		delete(other.entries, tokenID)

		existing, ok := base.entries[tokenID]
		if !ok {
			base.entries[tokenID] = entry
			continue
		}

		merged, err := MergePostings(existing.Postings, entry.Postings)
		if err != nil {
			return errors.Wrapf(err, "merging token %d", tokenID)
		}
		existing.Postings = merged
		existing.DocsCount = existing.DocsCount + entry.DocsCount
		existing.PositionsCount = existing.PositionsCount + entry.PositionsCount
	}
	return nil
}

// MergePostings returns a single list ordered ascending by document
// id, combining two already-sorted lists with disjoint doc-id
// domains. Overlap is reported as ErrOverlappingDomains rather than
// silently resolved, per spec.md §4.3.
func MergePostings(a, b List) (List, error) {
	if len(a) == 0 {
		return b, nil
	}
	if len(b) == 0 {
		return a, nil
	}

	if overlaps(a, b) {
		return nil, ErrOverlappingDomains
	}

	out := make(List, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].DocID < b[j].DocID {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out, nil
}

// overlaps reports whether a and b share any document id. It uses a
// Roaring bitmap for the smaller list so large merges stay close to
// linear even though the lists are usually tiny (one document worth
// of postings against a large persistent list).
func overlaps(a, b List) bool {
	small, large := a, b
	if len(large) < len(small) {
		small, large = large, small
	}

	set := roaring.New()
	for _, p := range small {
		set.Add(p.DocID)
	}
	for _, p := range large {
		if set.Contains(p.DocID) {
			return true
		}
	}
	return false
}
