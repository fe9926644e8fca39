// Package aggregate concatenates corpora into a single cross-corpus
// table of {corpus, author, report} rows, the shape distributed as a
// release artifact.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/krankdata/krank/internal/corpus"
	"github.com/krankdata/krank/internal/model"
	"github.com/krankdata/krank/internal/registry"
	"github.com/krankdata/krank/internal/schema"
)

// Builder loads corpora concurrently and merges them.
type Builder struct {
	store       *registry.Store
	resolver    *corpus.Resolver
	concurrency int
}

// NewBuilder creates a Builder. Concurrency bounds how many corpora are
// fetched and parsed at once.
func NewBuilder(store *registry.Store, resolver *corpus.Resolver, concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Builder{store: store, resolver: resolver, concurrency: concurrency}
}

// Build aggregates the named corpora at their latest versions. An empty
// name list means every corpus in the registry. Output rows keep
// registry order by corpus name; the merged table is validated under the
// strict aggregate contract before being returned.
//
// Non-recall rows carry no text and are dropped here: the aggregate
// artifact is a text collection, and empty reports would violate its
// contract.
func (b *Builder) Build(ctx context.Context, names []string) (*model.Table, error) {
	if len(names) == 0 {
		names = b.store.ListNames()
	}

	parts := make([]*model.Table, len(names))
	errs := make([]error, len(names))
	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()
			part, err := b.buildOne(ctx, name)
			if err != nil {
				errs[idx] = fmt.Errorf("aggregate %s: %w", name, err)
				return
			}
			parts[idx] = part
		}(i, name)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	merged := model.NewTable(model.ColumnCorpus, model.ColumnAuthor, model.ColumnReport)
	for _, part := range parts {
		merged.Rows = append(merged.Rows, part.Rows...)
	}

	if err := schema.Validate(merged, schema.RoleAggregate, schema.Options{}).Err(); err != nil {
		return nil, err
	}
	return merged, nil
}

// buildOne resolves and builds a single corpus and projects it onto the
// aggregate columns.
func (b *Builder) buildOne(ctx context.Context, name string) (*model.Table, error) {
	meta, err := b.store.Resolve(name, "")
	if err != nil {
		return nil, err
	}
	built, err := b.resolver.Build(ctx, meta)
	if err != nil {
		return nil, err
	}

	authorIdx := built.Reports.ColumnIndex(model.ColumnAuthor)
	reportIdx := built.Reports.ColumnIndex(model.ColumnReport)
	part := model.NewTable(model.ColumnCorpus, model.ColumnAuthor, model.ColumnReport)
	for _, row := range built.Reports.Rows {
		if row[reportIdx] == "" {
			continue // non-recall row
		}
		part.Rows = append(part.Rows, []string{name, row[authorIdx], row[reportIdx]})
	}
	return part, nil
}
