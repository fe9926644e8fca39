package model

import (
	"fmt"
	"strings"
)

// UnknownCorpusError reports a corpus name absent from the registry.
type UnknownCorpusError struct {
	Name      string
	Available []string
}

func (e *UnknownCorpusError) Error() string {
	return fmt.Sprintf("corpus %q not found in registry (available: %s)",
		e.Name, strings.Join(e.Available, ", "))
}

// UnknownVersionError reports a version absent from a known corpus.
type UnknownVersionError struct {
	Name      string
	Version   string
	Available []string
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("version %q not found for corpus %q (available: %s)",
		e.Version, e.Name, strings.Join(e.Available, ", "))
}

// IntegrityError reports a content-hash mismatch on a fetched or cached
// corpus file. The caller may clear the cache and retry; the core never
// retries integrity failures itself.
type IntegrityError struct {
	URL  string
	Path string
	Want string // algorithm-prefixed expected digest
	Got  string // algorithm-prefixed computed digest
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: want %s, got %s", e.Path, e.Want, e.Got)
}

// FormatError reports a cached file that cannot be parsed as tabular data.
type FormatError struct {
	Path   string
	Line   int // 1-based, 0 when unknown
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("unparsable tabular file %s, line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("unparsable tabular file %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// SchemaError reports a registry/data mismatch: the registry's column_map
// names source columns that the actual file does not carry. This is a
// registry authoring bug, not a user error.
type SchemaError struct {
	Corpus  string
	Missing []string // source column labels absent from the file
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("corpus %q: column_map references columns missing from data file: %s",
		e.Corpus, strings.Join(e.Missing, ", "))
}

// ValidationError reports table contents that violate a role contract. It
// carries every violation found in the pass, not just the first.
type ValidationError struct {
	Role       string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed with %d violation(s): %s",
		e.Role, len(e.Violations), strings.Join(e.Violations, "; "))
}

// EncodingError reports text that normalization could not repair. Offset
// is the byte offset of the offending sequence, or -1 when unknown.
type EncodingError struct {
	Offset int
}

func (e *EncodingError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("undecodable byte sequence at offset %d", e.Offset)
	}
	return "undecodable byte sequence"
}
