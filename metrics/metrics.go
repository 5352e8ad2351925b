// Package metrics instruments the indexing core with Prometheus
// counters and histograms, decorating a postings.BlobStore the same
// way store.CompressingBlobStore decorates one, so instrumentation is
// opt-in and composable with the rest of the store stack.
package metrics

import (
	"time"

	"golang.org/x/net/context"

	"github.com/lalinsky/ngramidx/postings"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ngramidx_blobstore_fetch_seconds",
		Help: "Latency of BlobStore.GetPostings calls.",
	}, []string{"outcome"})

	updateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ngramidx_blobstore_put_seconds",
		Help: "Latency of BlobStore.PutPostings calls.",
	}, []string{"outcome"})

	documentsIndexed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ngramidx_documents_indexed_total",
		Help: "Number of documents successfully indexed.",
	})

	tokensPerDocument = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "ngramidx_tokens_per_document",
		Help: "Distinct tokens contributed by each indexed document.",
		Buckets: prometheus.ExponentialBuckets(4, 2, 12),
	})

	decodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ngramidx_decode_errors_total",
		Help: "Posting-list decode failures (spec.md decode-corrupt).",
	})
)

// Register adds all collectors to reg. Call once at process startup.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(fetchDuration, updateDuration, documentsIndexed, tokensPerDocument, decodeErrors)
}

// DocumentIndexed records one successfully indexed document
// contributing numTokens distinct tokens.
func DocumentIndexed(numTokens int) {
	documentsIndexed.Inc()
	tokensPerDocument.Observe(float64(numTokens))
}

// DecodeError records one posting-list decode failure.
func DecodeError() {
	decodeErrors.Inc()
}

// InstrumentedBlobStore wraps a postings.BlobStore, recording latency
// histograms for every GetPostings and PutPostings call. DocumentCount
// is passed through unobserved.
type InstrumentedBlobStore struct {
	inner postings.BlobStore
}

// Instrument wraps inner with Prometheus latency observations.
func Instrument(inner postings.BlobStore) *InstrumentedBlobStore {
	return &InstrumentedBlobStore{inner: inner}
}

func (s *InstrumentedBlobStore) GetPostings(ctx context.Context, tokenID uint32) (int, []byte, error) {
	start := time.Now()
	docsCount, blob, err := s.inner.GetPostings(ctx, tokenID)
	fetchDuration.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
	return docsCount, blob, err
}

func (s *InstrumentedBlobStore) PutPostings(ctx context.Context, tokenID uint32, docsCount int, blob []byte) error {
	start := time.Now()
	err := s.inner.PutPostings(ctx, tokenID, docsCount, blob)
	updateDuration.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
	return err
}

func (s *InstrumentedBlobStore) DocumentCount(ctx context.Context) (int, error) {
	return s.inner.DocumentCount(ctx)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
