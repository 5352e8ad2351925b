// Command ngramidx drives the indexing pipeline from the filesystem:
// an `index` subcommand walks a corpus directory and indexes every
// file it finds, and a `serve` subcommand exposes the /stats admin
// endpoint. CLI surface, exit codes, and file layout are explicitly
// out of the indexing core's scope (spec.md §6); this is one possible
// caller of that core, in the teacher's cmd/aindex idiom.
package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/net/context"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/lalinsky/ngramidx/config"
	"github.com/lalinsky/ngramidx/httpapi"
	"github.com/lalinsky/ngramidx/metrics"
	"github.com/lalinsky/ngramidx/pipeline"
	"github.com/lalinsky/ngramidx/postings"
	"github.com/lalinsky/ngramidx/store"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

func redisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func main() {
	app := &cli.App{
		Name:  "ngramidx",
		Usage: "N-gram inverted index CLI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "ngramidx.yaml", Usage: "path to config file"},
		},
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "index every file under a corpus directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "corpus", Usage: "overrides corpus_dir from the config file"},
				},
				Action: runIndex,
			},
			{
				Name:   "serve",
				Usage:  "serve the /stats and /healthz admin endpoints",
				Action: runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if corpus := c.String("corpus"); corpus != "" {
		cfg.CorpusDir = corpus
	}
	return cfg, nil
}

func buildBackend(cfg config.Config) (postings.BlobStore, postings.TokenService, error) {
	switch cfg.Backend {
	case config.BackendFile:
		blobs, err := store.NewFileBlobStore(cfg.DataDir, 0)
		if err != nil {
			return nil, nil, err
		}
		return blobs, store.NewMemTokenService(), nil
	case config.BackendRedis:
		client := redisClient(cfg.RedisAddr)
		return store.NewRedisBlobStore(client, cfg.RedisPrefix), store.NewRedisTokenService(client, cfg.RedisPrefix), nil
	default:
		return store.NewMemBlobStore(0), store.NewMemTokenService(), nil
	}
}

func wrapBlobs(cfg config.Config, blobs postings.BlobStore) postings.BlobStore {
	if cfg.CompressBlobs {
		blobs = store.NewCompressingBlobStore(blobs, 0)
	}
	return metrics.Instrument(blobs)
}

func runIndex(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return err
	}

	rawBlobs, tokens, err := buildBackend(cfg)
	if err != nil {
		return err
	}
	counter, _ := rawBlobs.(store.DocumentCounter)
	blobs := wrapBlobs(cfg, rawBlobs)

	bridge := store.NewBridge(blobs, mode)
	p := pipeline.New(cfg.NgramSize, postings.NewAccumulator(tokens), bridge)

	files, err := listFiles(cfg.CorpusDir)
	if err != nil {
		return err
	}

	return indexFiles(context.Background(), p, blobs, counter, files, cfg)
}

func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// indexFiles reads files with bounded concurrency (a
// golang.org/x/sync/semaphore.Weighted limits how many are open at
// once) but builds each document's
// index one at a time from a single goroutine, honoring spec.md §5's
// single-threaded-per-pipeline rule: only file I/O runs ahead of the
// index, never the token allocation/accumulation itself. Built
// indexes are absorbed into a postings.MergeBuilder rather than
// persisted immediately, so the whole batch is written back to the
// persistence bridge in a single ascending-token-id pass. counter, if
// non-nil, is bumped once per document before it's built, keeping the
// backend's DocumentCount current so Golomb mode's m_doc is derived
// from the corpus size rather than staying clamped to 1.
func indexFiles(ctx context.Context, p *pipeline.Pipeline, blobs postings.BlobStore, counter store.DocumentCounter, files []string, cfg config.Config) error {
	concurrency := cfg.ImportConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	var limiter *rate.Limiter
	if cfg.ImportRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ImportRateLimit), 1)
	}

	type loaded struct {
		docID uint32
		path  string
		data  []byte
		err   error
	}

	results := make(chan loaded, concurrency)
	var nextDocID uint32

	go func() {
		defer close(results)
		for _, path := range files {
			sem.Acquire(ctx, 1)
			docID := atomic.AddUint32(&nextDocID, 1)
			go func(path string, docID uint32) {
				defer sem.Release(1)
				data, err := ioutil.ReadFile(path)
				results <- loaded{docID: docID, path: path, data: data, err: err}
			}(path, docID)
		}
	}()

	mb := postings.NewMergeBuilder()

	// Results may arrive out of the docID order they were requested
	// in; that's fine, since document ordering carries no semantics
	// in spec.md beyond "processed to completion before the next
	// begins" and each doc id is independent.
	for r := range results {
		if r.err != nil {
			return fmt.Errorf("reading %s: %w", r.path, r.err)
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if counter != nil {
			if err := counter.IncrDocumentCount(ctx); err != nil {
				return fmt.Errorf("updating document count for %s: %w", r.path, err)
			}
		}
		idx, err := p.BuildDocumentIndex(ctx, r.docID, r.data)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", r.path, err)
		}
		if err := mb.Add(idx); err != nil {
			return fmt.Errorf("merging %s: %w", r.path, err)
		}
		log.Printf("indexed %s as doc %d (%d tokens pending flush)", r.path, r.docID, mb.Len())
	}

	totalDocuments, err := blobs.DocumentCount(ctx)
	if err != nil {
		return fmt.Errorf("reading document count: %w", err)
	}
	return mb.Flush(func(entry *postings.Entry) error {
		return p.PersistEntry(ctx, totalDocuments, entry)
	})
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return err
	}

	blobs, _, err := buildBackend(cfg)
	if err != nil {
		return err
	}

	reg := prom.NewRegistry()
	metrics.Register(reg)

	source := &statsSource{blobs: blobs, mode: mode}
	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewServer(source))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.Printf("serving on %s", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, mux)
}

type statsSource struct {
	blobs postings.BlobStore
	mode  postings.Mode
}

func (s *statsSource) DocumentCount(ctx context.Context) (int, error) {
	return s.blobs.DocumentCount(ctx)
}

func (s *statsSource) CompressMode() postings.Mode {
	return s.mode
}
