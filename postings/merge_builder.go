package postings

import "github.com/huandu/skiplist"

// tokenIDComparable orders skiplist keys as plain uint32 token ids.
type tokenIDComparable struct{}

func (tokenIDComparable) Compare(lhs, rhs interface{}) int {
	l, r := lhs.(uint32), rhs.(uint32)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func (tokenIDComparable) CalcScore(key interface{}) float64 {
	return float64(key.(uint32))
}

// MergeBuilder accumulates entries from many per-document indexes
// (e.g. the batch importer, one Index per file) keyed
// by token id, kept in ascending order so a subsequent flush to the
// persistence bridge visits tokens deterministically. This is the
// "ordered document index during multi-source merge" named in
// SPEC_FULL.md's domain stack: unlike Merge, which combines exactly
// two indexes, MergeBuilder is meant to absorb an unbounded stream of
// them before a single flush.
type MergeBuilder struct {
	list *skiplist.SkipList
}

// NewMergeBuilder returns an empty builder.
func NewMergeBuilder() *MergeBuilder {
	return &MergeBuilder{list: skiplist.New(tokenIDComparable{})}
}

// Add merges idx into the builder, consuming it (idx is empty on
// return, matching Merge's contract).
func (mb *MergeBuilder) Add(idx *Index) error {
	for tokenID, entry := range idx.entries {
		delete(idx.entries, tokenID)

		if existing, ok := mb.list.GetValue(tokenID); ok {
			e := existing.(*Entry)
			merged, err := MergePostings(e.Postings, entry.Postings)
			if err != nil {
				return err
			}
			e.Postings = merged
			e.DocsCount += entry.DocsCount
			e.PositionsCount += entry.PositionsCount
			continue
		}
		mb.list.Set(tokenID, entry)
	}
	return nil
}

// Flush drains the builder in ascending token-id order, invoking fn
// for each accumulated entry.
func (mb *MergeBuilder) Flush(fn func(*Entry) error) error {
	for el := mb.list.Front(); el != nil; el = el.Next() {
		if err := fn(el.Value.(*Entry)); err != nil {
			return err
		}
	}
	mb.list.Init()
	return nil
}

// Len reports the number of distinct tokens currently held.
func (mb *MergeBuilder) Len() int {
	return mb.list.Len()
}
