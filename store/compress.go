package store

import (
	"bytes"
	"io/ioutil"

	"golang.org/x/net/context"

	"github.com/klauspost/compress/flate"
	"github.com/lalinsky/ngramidx/postings"
	"github.com/pkg/errors"
)

// CompressingBlobStore wraps another BlobStore with a whole-blob
// DEFLATE pass, orthogonal to the Golomb gap coding C6 already does:
// Golomb squeezes the integer sequences themselves, while this
// squeezes whatever byte-level redundancy is left in the result (most
// visible on Raw-mode blobs, or on corpora with many short posting
// lists that share common gap patterns). It is a separate on/off
// switch from the compress=none/golomb environment flag, controlled
// independently by config.Config.CompressBlobs.
type CompressingBlobStore struct {
	inner postings.BlobStore
	level int
}

// NewCompressingBlobStore wraps inner with DEFLATE at level.
func NewCompressingBlobStore(inner postings.BlobStore, level int) *CompressingBlobStore {
	if level == 0 {
		level = flate.DefaultCompression
	}
	return &CompressingBlobStore{inner: inner, level: level}
}

// GetPostings implements postings.BlobStore.
func (s *CompressingBlobStore) GetPostings(ctx context.Context, tokenID uint32) (int, []byte, error) {
	docsCount, data, err := s.inner.GetPostings(ctx, tokenID)
	if err != nil || len(data) == 0 {
		return docsCount, data, err
	}
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := ioutil.ReadAll(r)
	if err != nil {
		return 0, nil, errors.Wrap(err, "inflating blob")
	}
	return docsCount, out, nil
}

// PutPostings implements postings.BlobStore.
func (s *CompressingBlobStore) PutPostings(ctx context.Context, tokenID uint32, docsCount int, blob []byte) error {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, s.level)
	if err != nil {
		return errors.Wrap(err, "creating deflate writer")
	}
	if _, err := w.Write(blob); err != nil {
		return errors.Wrap(err, "deflating blob")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "flushing deflate writer")
	}
	return s.inner.PutPostings(ctx, tokenID, docsCount, buf.Bytes())
}

// DocumentCount implements postings.BlobStore.
func (s *CompressingBlobStore) DocumentCount(ctx context.Context) (int, error) {
	return s.inner.DocumentCount(ctx)
}
