// Package corpus turns registry metadata into validated reports and
// authors tables.
package corpus

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"

	"github.com/krankdata/krank/internal/model"
	"github.com/krankdata/krank/internal/schema"
	"github.com/krankdata/krank/internal/table"
	"github.com/krankdata/krank/internal/textnorm"
)

// FileFetcher is the fetch/cache collaborator: it returns a local path
// for a URL, downloading only when the cache misses, and verifies the
// content hash on every access.
type FileFetcher interface {
	Fetch(ctx context.Context, rawURL, hash, filename string) (string, error)
}

// Resolver builds corpus tables from metadata. Safe for concurrent use.
type Resolver struct {
	fetcher FileFetcher
}

// NewResolver creates a Resolver on top of a fetch/cache collaborator.
func NewResolver(fetcher FileFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// BuildResult holds the outcome of a complete build: both derived tables
// and the cached file location. Builds are all-or-nothing; a BuildResult
// is never partially populated.
type BuildResult struct {
	Reports *model.Table
	Authors *model.Table
	Path    string
}

// Build fetches, parses, projects, splits, normalizes, and validates one
// corpus. Any failure aborts the whole build.
func (r *Resolver) Build(ctx context.Context, meta *model.CorpusMetadata) (*BuildResult, error) {
	localPath, err := r.fetcher.Fetch(ctx, meta.DownloadURL, meta.Hash, CacheFilename(meta))
	if err != nil {
		return nil, err
	}

	raw, err := table.ReadFile(localPath)
	if err != nil {
		return nil, err
	}

	canonical, err := projectCanonical(raw, meta)
	if err != nil {
		return nil, err
	}

	reports, authors, err := split(canonical, meta)
	if err != nil {
		return nil, err
	}

	if err := normalizeReports(reports); err != nil {
		return nil, err
	}

	var violations []string
	recordsRes := schema.Validate(reports, schema.RoleRecords, schema.Options{
		AllowEmptyReport: meta.IncludesNorecall,
	})
	for _, v := range recordsRes.Violations {
		violations = append(violations, "reports: "+v)
	}
	entitiesRes := schema.Validate(authors, schema.RoleEntities, schema.Options{})
	for _, v := range entitiesRes.Violations {
		violations = append(violations, "authors: "+v)
	}
	if len(violations) > 0 {
		return nil, &model.ValidationError{Role: "corpus", Violations: violations}
	}

	return &BuildResult{Reports: reports, Authors: authors, Path: localPath}, nil
}

// CacheFilename names the cached file for a corpus version, keeping
// versions separate in the shared cache.
func CacheFilename(meta *model.CorpusMetadata) string {
	ext := ".csv"
	if parsed, err := url.Parse(meta.DownloadURL); err == nil {
		if e := path.Ext(parsed.Path); e != "" {
			ext = e
		}
	}
	return fmt.Sprintf("%s_v%s%s", meta.Name, meta.Version, ext)
}

// projectCanonical relabels the raw table's columns to canonical names
// via the registry's column_map and drops everything unmapped. A mapped
// source column missing from the file is a registry/data mismatch.
func projectCanonical(raw *model.Table, meta *model.CorpusMetadata) (*model.Table, error) {
	var missing []string
	for _, source := range meta.ColumnMap {
		if !raw.HasColumn(source) {
			missing = append(missing, source)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &model.SchemaError{Corpus: meta.Name, Missing: missing}
	}

	sources := make([]string, 0, len(meta.ColumnMap))
	sourceToCanonical := make(map[string]string, len(meta.ColumnMap))
	for _, canonical := range canonicalOrder(meta) {
		source := meta.ColumnMap[canonical]
		sources = append(sources, source)
		sourceToCanonical[source] = canonical
	}

	projected, err := raw.Project(sources...)
	if err != nil {
		return nil, err
	}
	return projected.Renamed(sourceToCanonical), nil
}

// canonicalOrder fixes a deterministic column order: author, report,
// then the remaining canonical columns alphabetically.
func canonicalOrder(meta *model.CorpusMetadata) []string {
	rest := make([]string, 0, len(meta.ColumnMap))
	for canonical := range meta.ColumnMap {
		if canonical != model.ColumnAuthor && canonical != model.ColumnReport {
			rest = append(rest, canonical)
		}
	}
	sort.Strings(rest)
	return append([]string{model.ColumnAuthor, model.ColumnReport}, rest...)
}

// split divides the canonical table into per-report and per-author
// tables. Authors are deduplicated by identity; when the same author
// appears with conflicting metadata the first occurrence wins, matching
// the upstream curation convention.
func split(canonical *model.Table, meta *model.CorpusMetadata) (reports, authors *model.Table, err error) {
	reportCols := make([]string, 0, len(canonical.Columns))
	for _, col := range canonical.Columns {
		if !meta.IsAuthorColumn(col) {
			reportCols = append(reportCols, col)
		}
	}
	reports, err = canonical.Project(reportCols...)
	if err != nil {
		return nil, nil, err
	}

	authorCols := append([]string{model.ColumnAuthor}, meta.AuthorColumns...)
	allAuthors, err := canonical.Project(authorCols...)
	if err != nil {
		return nil, nil, err
	}
	authors = model.NewTable(authorCols...)
	seen := make(map[string]bool, len(allAuthors.Rows))
	for _, row := range allAuthors.Rows {
		if seen[row[0]] {
			continue
		}
		seen[row[0]] = true
		authors.Rows = append(authors.Rows, row)
	}
	return reports, authors, nil
}

// normalizeReports canonicalizes the report text column in place.
func normalizeReports(reports *model.Table) error {
	idx := reports.ColumnIndex(model.ColumnReport)
	if idx < 0 {
		return fmt.Errorf("reports table missing %q column", model.ColumnReport)
	}
	for i, row := range reports.Rows {
		normalized, err := textnorm.Normalize(row[idx])
		if err != nil {
			return fmt.Errorf("normalize report in row %d: %w", i+1, err)
		}
		row[idx] = normalized
	}
	return nil
}
