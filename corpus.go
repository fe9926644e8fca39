package krank

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/krankdata/krank/internal/corpus"
)

// Corpus is the user-facing handle on one loaded corpus. Metadata is
// available immediately; the reports and authors tables are fetched,
// parsed, and validated on first access and memoized for the object's
// lifetime. A failed resolution leaves the Corpus unresolved, so a later
// access retries from scratch.
//
// The resolution gate is a mutex: with concurrent callers, exactly one
// performs the fetch/parse sequence and the rest observe its result.
type Corpus struct {
	name     string
	meta     *Metadata
	resolver *corpus.Resolver

	mu   sync.Mutex
	data *corpus.BuildResult // nil while unresolved
}

func newCorpus(meta *Metadata, resolver *corpus.Resolver) *Corpus {
	return &Corpus{name: meta.Name, meta: meta, resolver: resolver}
}

// Name returns the corpus name. Never triggers resolution.
func (c *Corpus) Name() string {
	return c.name
}

// Metadata returns the resolved registry metadata. Never triggers
// resolution.
func (c *Corpus) Metadata() *Metadata {
	return c.meta
}

// Reports returns the per-report table: one row per text instance, with
// author plus any report-level columns the corpus declares.
func (c *Corpus) Reports(ctx context.Context) (*Table, error) {
	data, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return data.Reports, nil
}

// Authors returns the deduplicated author table: one row per unique
// author, with any author-level columns the corpus declares.
func (c *Corpus) Authors(ctx context.Context) (*Table, error) {
	data, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return data.Authors, nil
}

// Path returns the local path of the verified cache file.
func (c *Corpus) Path(ctx context.Context) (string, error) {
	data, err := c.resolve(ctx)
	if err != nil {
		return "", err
	}
	return data.Path, nil
}

// NumReports returns the number of report rows.
func (c *Corpus) NumReports(ctx context.Context) (int, error) {
	data, err := c.resolve(ctx)
	if err != nil {
		return 0, err
	}
	return data.Reports.NumRows(), nil
}

// NumAuthors returns the number of unique authors.
func (c *Corpus) NumAuthors(ctx context.Context) (int, error) {
	data, err := c.resolve(ctx)
	if err != nil {
		return 0, err
	}
	return data.Authors.NumRows(), nil
}

// resolve builds the tables at most once. On failure nothing is
// recorded and the next access re-attempts, which lets transient
// network failures recover.
func (c *Corpus) resolve(ctx context.Context) (*corpus.BuildResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data != nil {
		return c.data, nil
	}
	result, err := c.resolver.Build(ctx, c.meta)
	if err != nil {
		return nil, err
	}
	c.data = result
	return result, nil
}

// String renders without triggering resolution.
func (c *Corpus) String() string {
	return fmt.Sprintf("Corpus(%q, version %s)", c.name, c.meta.Version)
}

// Summary renders a human-readable description from metadata alone; no
// data is fetched.
func (c *Corpus) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Corpus: %s\n", c.name)
	fmt.Fprintf(&b, "  Title: %s\n", orNA(c.meta.Title))
	fmt.Fprintf(&b, "  Description: %s\n", orNA(strings.TrimSpace(c.meta.Description)))
	fmt.Fprintf(&b, "  Environment: %s\n", orNA(c.meta.Environment))
	fmt.Fprintf(&b, "  Probe: %s\n", orNA(c.meta.Probe))
	fmt.Fprintf(&b, "  Version: %s\n", orNA(c.meta.Version))
	if c.meta.DOI != "" {
		fmt.Fprintf(&b, "  DOI: %s\n", c.meta.DOI)
	}
	for _, citation := range c.meta.Citations {
		fmt.Fprintf(&b, "  Citation: %s\n", strings.TrimSpace(citation))
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
