// Package krank fetches curated dream report corpora. It downloads,
// caches, and validates versioned corpus files described by a central
// registry, and exposes each corpus as normalized reports and authors
// tables.
package krank

import (
	"context"

	"github.com/krankdata/krank/internal/aggregate"
	"github.com/krankdata/krank/internal/corpus"
	"github.com/krankdata/krank/internal/fetch"
	"github.com/krankdata/krank/internal/model"
	"github.com/krankdata/krank/internal/registry"
)

// Re-exported types so callers never import internal packages.
type (
	// Metadata describes one corpus at one version.
	Metadata = model.CorpusMetadata
	// Table is an ordered, string-celled tabular structure.
	Table = model.Table
	// Config holds all tunable settings.
	Config = model.Config

	// UnknownCorpusError reports a corpus name absent from the registry.
	UnknownCorpusError = model.UnknownCorpusError
	// UnknownVersionError reports a version absent from a known corpus.
	UnknownVersionError = model.UnknownVersionError
	// IntegrityError reports a content-hash mismatch on a corpus file.
	IntegrityError = model.IntegrityError
	// FormatError reports an unparsable tabular file.
	FormatError = model.FormatError
	// SchemaError reports a registry column_map that does not match the file.
	SchemaError = model.SchemaError
	// ValidationError reports table contents violating a role contract.
	ValidationError = model.ValidationError
	// EncodingError reports text that normalization could not repair.
	EncodingError = model.EncodingError
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return model.DefaultConfig()
}

// Client is the entry point to the corpus catalog. Construct one at
// startup and share it; the registry is loaded once and treated as
// immutable for the process lifetime.
type Client struct {
	cfg      *Config
	store    *registry.Store
	resolver *corpus.Resolver
}

// New creates a Client. A nil config uses defaults. The registry is read
// eagerly (from cfg.RegistryPath, or the embedded catalog); no network
// access happens until a corpus is resolved.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	store, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}
	fetcher := fetch.New(cfg.HTTP, cfg.CacheDir)
	return &Client{
		cfg:      cfg,
		store:    store,
		resolver: corpus.NewResolver(fetcher),
	}, nil
}

// ListCorpora returns all corpus names, alphabetical.
func (c *Client) ListCorpora() []string {
	return c.store.ListNames()
}

// ListCollections returns all collection names, alphabetical.
func (c *Client) ListCollections() []string {
	return c.store.ListCollections()
}

// CollectionCorpora returns the corpus names in a collection.
func (c *Client) CollectionCorpora(name string) ([]string, error) {
	return c.store.CollectionCorpora(name)
}

// ListVersions returns the versions of a corpus, oldest first.
func (c *Client) ListVersions(name string) ([]string, error) {
	return c.store.ListVersions(name)
}

// Resolve returns the metadata for a corpus without fetching any data.
// An empty version selects the latest.
func (c *Client) Resolve(name, version string) (*Metadata, error) {
	return c.store.Resolve(name, version)
}

// Load resolves a corpus's metadata and returns a lazy Corpus. No data
// is fetched until reports, authors, or path are first accessed.
func (c *Client) Load(name, version string) (*Corpus, error) {
	meta, err := c.store.Resolve(name, version)
	if err != nil {
		return nil, err
	}
	return newCorpus(meta, c.resolver), nil
}

// Aggregate concatenates the named corpora (all of them when names is
// empty) at their latest versions into one {corpus, author, report}
// table, validated under the strict aggregate contract. Corpora are
// fetched and parsed concurrently.
func (c *Client) Aggregate(ctx context.Context, names []string) (*Table, error) {
	builder := aggregate.NewBuilder(c.store, c.resolver, c.cfg.Aggregate.Concurrency)
	return builder.Build(ctx, names)
}

// CacheDir returns the directory corpus files are cached under.
func (c *Client) CacheDir() string {
	return c.cfg.CacheDir
}
