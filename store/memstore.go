package store

import (
	"sync"

	"golang.org/x/net/context"

	farmhash "github.com/leemcloughlin/gofarmhash"
)

// MemTokenService is an in-memory reference TokenService, the
// indexing-core equivalent of the teacher's MemDir: a backend good
// enough for tests and small corpora, with no persistence.
//
// Tokens are kept in a fixed array of 64 chained buckets indexed by
// FarmHash of the UTF-8 bytes rather than in a Go built-in map. Ids
// are handed out in first-seen order, so the same sequence of tokens
// always gets the same ids.
type MemTokenService struct {
	mu       sync.Mutex
	buckets  [][]memToken
	nbuckets uint32
	nextID   uint32
}

type memToken struct {
	token     []byte
	id        uint32
	docsCount int
}

// NewMemTokenService returns an empty in-memory token service.
func NewMemTokenService() *MemTokenService {
	const initialBuckets = 64
	return &MemTokenService{
		buckets:  make([][]memToken, initialBuckets),
		nbuckets: initialBuckets,
	}
}

func (s *MemTokenService) bucketFor(token []byte) uint32 {
	return farmhash.Hash32(token) % s.nbuckets
}

// GetTokenID implements postings.TokenService.
func (s *MemTokenService) GetTokenID(_ context.Context, token []byte, docID uint32) (uint32, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bi := s.bucketFor(token)
	bucket := s.buckets[bi]
	for i := range bucket {
		if string(bucket[i].token) == string(token) {
			if docID != 0 {
				bucket[i].docsCount++
			}
			return bucket[i].id, bucket[i].docsCount, nil
		}
	}

	s.nextID++
	docsCount := 0
	if docID != 0 {
		docsCount = 1
	}
	entry := memToken{token: append([]byte(nil), token...), id: s.nextID, docsCount: docsCount}
	s.buckets[bi] = append(s.buckets[bi], entry)
	return entry.id, docsCount, nil
}

// MemBlobStore is an in-memory reference BlobStore.
type MemBlobStore struct {
	mu    sync.Mutex
	blobs map[uint32]memBlob
	ndocs int
}

type memBlob struct {
	docsCount int
	data      []byte
}

// NewMemBlobStore returns an empty in-memory blob store. ndocs is the
// total document count reported by DocumentCount, used by the Golomb
// codec to derive m_doc (spec.md §6).
func NewMemBlobStore(ndocs int) *MemBlobStore {
	return &MemBlobStore{blobs: make(map[uint32]memBlob), ndocs: ndocs}
}

// SetDocumentCount updates the corpus-wide document count.
func (s *MemBlobStore) SetDocumentCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ndocs = n
}

// IncrDocumentCount bumps the corpus-wide document count by one,
// meant to be called once per newly indexed document.
func (s *MemBlobStore) IncrDocumentCount(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ndocs++
	return nil
}

// GetPostings implements postings.BlobStore.
func (s *MemBlobStore) GetPostings(_ context.Context, tokenID uint32) (int, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[tokenID]
	if !ok {
		return 0, nil, nil
	}
	return b.docsCount, b.data, nil
}

// PutPostings implements postings.BlobStore, replacing the blob for
// tokenID atomically (a single map write under lock).
func (s *MemBlobStore) PutPostings(_ context.Context, tokenID uint32, docsCount int, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[tokenID] = memBlob{docsCount: docsCount, data: append([]byte(nil), blob...)}
	return nil
}

// DocumentCount implements postings.BlobStore.
func (s *MemBlobStore) DocumentCount(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ndocs, nil
}
