package model

import "fmt"

// Canonical column names shared across corpora. Source files label these
// columns however they like; the registry's column_map translates.
const (
	ColumnReport = "report"
	ColumnAuthor = "author"
	ColumnCorpus = "corpus"
)

// CorpusMetadata describes one corpus at one version, fully resolved from
// the registry. Treated as immutable after resolution.
type CorpusMetadata struct {
	Name        string   `json:"name" yaml:"name"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Environment string   `json:"environment,omitempty" yaml:"environment,omitempty"` // e.g. "lab", "home"
	Probe       string   `json:"probe,omitempty" yaml:"probe,omitempty"`             // how reports were elicited
	Citations   []string `json:"citations,omitempty" yaml:"citations,omitempty"`

	// ColumnMap maps canonical column names to the labels used in the
	// source file. Always contains at least "report" and "author".
	ColumnMap map[string]string `json:"column_map" yaml:"column_map"`

	// AuthorColumns lists the canonical columns that describe the author
	// rather than the individual report (e.g. "age", "sex").
	AuthorColumns []string `json:"author_columns,omitempty" yaml:"author_columns,omitempty"`

	// IncludesNorecall marks corpora that record non-recall ("no dream")
	// rows. Those rows have empty report text and must be kept.
	IncludesNorecall bool `json:"includes_norecall,omitempty" yaml:"includes_norecall,omitempty"`

	Version     string `json:"version" yaml:"version"`
	DownloadURL string `json:"download_url" yaml:"download_url"`
	Hash        string `json:"hash" yaml:"hash"` // algorithm-prefixed, e.g. "sha256:..."
	DOI         string `json:"doi,omitempty" yaml:"doi,omitempty"`
}

// Validate checks the structural invariants the rest of the pipeline
// relies on: column_map covers report and author, and author_columns is a
// subset of the mapped canonical columns excluding report.
func (m *CorpusMetadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("metadata missing name")
	}
	if _, ok := m.ColumnMap[ColumnReport]; !ok {
		return fmt.Errorf("corpus %q: column_map missing %q", m.Name, ColumnReport)
	}
	if _, ok := m.ColumnMap[ColumnAuthor]; !ok {
		return fmt.Errorf("corpus %q: column_map missing %q", m.Name, ColumnAuthor)
	}
	for _, col := range m.AuthorColumns {
		if col == ColumnReport {
			return fmt.Errorf("corpus %q: author_columns may not contain %q", m.Name, ColumnReport)
		}
		if _, ok := m.ColumnMap[col]; !ok {
			return fmt.Errorf("corpus %q: author_columns entry %q not in column_map", m.Name, col)
		}
	}
	if m.DownloadURL == "" {
		return fmt.Errorf("corpus %q: missing download_url", m.Name)
	}
	if m.Hash == "" {
		return fmt.Errorf("corpus %q: missing hash", m.Name)
	}
	return nil
}

// IsAuthorColumn reports whether the canonical column belongs to author
// metadata rather than per-report data.
func (m *CorpusMetadata) IsAuthorColumn(canonical string) bool {
	for _, col := range m.AuthorColumns {
		if col == canonical {
			return true
		}
	}
	return false
}
