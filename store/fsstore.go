package store

import (
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/net/context"

	"github.com/dchest/safefile"
	"github.com/pkg/errors"
)

// FileBlobStore is a filesystem-backed BlobStore: one file per token
// id, replaced atomically on every write via safefile (rename-based
// atomic replacement, the same primitive util/vfs.fsDir.CreateFile
// uses in the teacher). This gives PutPostings the "atomic
// replacement of the blob for a given token id" spec.md §7 requires.
type FileBlobStore struct {
	dir   string
	mu    sync.Mutex
	ndocs int
}

// NewFileBlobStore opens (creating if necessary) a directory of blob
// files.
func NewFileBlobStore(dir string, ndocs int) (*FileBlobStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, errors.Wrap(err, "creating blob directory")
	}
	return &FileBlobStore{dir: dir, ndocs: ndocs}, nil
}

func (s *FileBlobStore) path(tokenID uint32) string {
	return filepath.Join(s.dir, fmt.Sprintf("%08x.postings", tokenID))
}

// GetPostings implements postings.BlobStore.
func (s *FileBlobStore) GetPostings(_ context.Context, tokenID uint32) (int, []byte, error) {
	data, err := ioutil.ReadFile(s.path(tokenID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, nil
		}
		return 0, nil, errors.Wrapf(err, "reading blob for token %d", tokenID)
	}
	if len(data) < 4 {
		return 0, nil, errors.Errorf("blob for token %d missing docs_count header", tokenID)
	}
	docsCount := int(binary.LittleEndian.Uint32(data[:4]))
	return docsCount, data[4:], nil
}

// PutPostings implements postings.BlobStore. The docs_count header is
// stored as a 4-byte prefix outside the codec's own payload, since
// Raw-mode blobs (unlike Golomb-mode ones) don't embed it themselves.
func (s *FileBlobStore) PutPostings(_ context.Context, tokenID uint32, docsCount int, blob []byte) error {
	file, err := safefile.Create(s.path(tokenID), 0644)
	if err != nil {
		return errors.Wrapf(err, "creating blob file for token %d", tokenID)
	}
	defer file.Close()

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(docsCount))
	if _, err := file.Write(header[:]); err != nil {
		return errors.Wrap(err, "writing blob header")
	}
	if _, err := file.Write(blob); err != nil {
		return errors.Wrap(err, "writing blob payload")
	}
	return file.Commit()
}

// DocumentCount implements postings.BlobStore.
func (s *FileBlobStore) DocumentCount(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ndocs, nil
}

// SetDocumentCount updates the corpus-wide document count tracked by
// this store.
func (s *FileBlobStore) SetDocumentCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ndocs = n
}

// IncrDocumentCount bumps the corpus-wide document count by one,
// meant to be called once per newly indexed document.
func (s *FileBlobStore) IncrDocumentCount(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ndocs++
	return nil
}
