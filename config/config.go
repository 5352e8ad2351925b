// Package config loads the process-wide configuration described in
// SPEC_FULL.md's ambient stack: the compress environment flag of
// spec.md §6, the corpus and persistence backend selection, and
// backend addresses, all from a YAML file (as in the
// Adithya-Monish-Kumar-K platform repo in the retrieval pack),
// overridable by CLI flags.
package config

import (
	"os"

	"github.com/lalinsky/ngramidx/postings"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Backend selects which BlobStore/TokenService implementation the
// pipeline uses.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendRedis  Backend = "redis"
)

// Config is the top-level configuration document.
type Config struct {
	// Compress is spec.md §6's environment flag: "none" or "golomb".
	// It must not change across the lifetime of a database.
	Compress string `yaml:"compress"`

	// CompressBlobs additionally wraps every blob in DEFLATE,
	// independent of Compress (see store.CompressingBlobStore).
	CompressBlobs bool `yaml:"compress_blobs"`

	// NgramSize is N in spec.md §4.2.
	NgramSize int `yaml:"ngram_size"`

	Backend Backend `yaml:"backend"`

	CorpusDir string `yaml:"corpus_dir"`
	DataDir   string `yaml:"data_dir"`

	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`

	ListenAddr string `yaml:"listen_addr"`

	// ImportConcurrency bounds the batch importer's read-ahead gate
	// (see cmd/ngramidx). It does not change the core's
	// single-document-at-a-time processing rule.
	ImportConcurrency int `yaml:"import_concurrency"`

	// ImportRateLimit caps documents indexed per second; 0 disables
	// the limiter.
	ImportRateLimit float64 `yaml:"import_rate_limit"`
}

// Default returns a Config with the teacher-idiom defaults: an
// in-memory backend, Golomb-coded postings with no DEFLATE wrapper,
// trigram indexing.
func Default() Config {
	return Config{
		Compress:          "golomb",
		NgramSize:         3,
		Backend:           BackendMemory,
		DataDir:           "./data",
		RedisPrefix:       "ngramidx",
		ListenAddr:        ":8081",
		ImportConcurrency: 4,
	}
}

// Load reads and parses a YAML config file at path, applying defaults
// for any field left unset.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parsing config file")
	}
	return cfg, nil
}

// Mode maps the Compress flag to a postings.Mode, failing on an
// unrecognized value rather than silently defaulting.
func (c Config) Mode() (postings.Mode, error) {
	switch c.Compress {
	case "none":
		return postings.Raw, nil
	case "golomb":
		return postings.Golomb, nil
	default:
		return 0, errors.Errorf("config: unknown compress mode %q", c.Compress)
	}
}
