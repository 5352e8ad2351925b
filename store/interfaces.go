// Package store implements the persistence bridge (C7 in spec.md
// §4.7) and provides concrete backends for the TokenService and
// BlobStore collaborators named in spec.md §6. postings.TokenService
// and postings.BlobStore are the contracts; everything here is one
// possible implementation of them, the way util/vfs in the teacher
// repo is one possible implementation of a filesystem abstraction.
package store

import "golang.org/x/net/context"

// DocumentCounter is implemented by BlobStore backends that can track
// the corpus-wide document count themselves (MemBlobStore,
// FileBlobStore, RedisBlobStore). Callers that add a new document to
// the corpus use it to keep DocumentCount current, which in turn
// keeps Golomb mode's m_doc (spec.md §6) meaningful.
type DocumentCounter interface {
	IncrDocumentCount(ctx context.Context) error
}
