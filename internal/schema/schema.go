// Package schema checks derived tables against their role contracts.
// Validation never stops at the first problem: one pass accumulates every
// violation so a single run surfaces the complete defect list.
package schema

import (
	"fmt"
	"strings"

	"github.com/krankdata/krank/internal/model"
)

// Role names the contract a table is validated against.
type Role string

const (
	// RoleRecords is one row per report: non-null author, non-null
	// non-empty report, any other columns allowed.
	RoleRecords Role = "records"
	// RoleEntities is one row per author: non-null unique author, any
	// other columns allowed.
	RoleEntities Role = "entities"
	// RoleAggregate is the cross-corpus concatenation: exactly the
	// columns corpus, author, report, all non-null. Strict, so columns
	// that only make sense within one corpus cannot leak into a merge.
	RoleAggregate Role = "aggregate"
)

// Options tunes per-corpus relaxations.
type Options struct {
	// AllowEmptyReport permits empty report cells. Set for corpora that
	// record non-recall ("no dream") rows, which must be kept.
	AllowEmptyReport bool
}

// Result is the outcome of one validation pass.
type Result struct {
	Role       Role
	Violations []string
}

// OK reports whether the table satisfied its role contract.
func (r *Result) OK() bool {
	return len(r.Violations) == 0
}

// Err returns nil on success, or a ValidationError carrying every
// violation found.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	return &model.ValidationError{Role: string(r.Role), Violations: r.Violations}
}

// Validate checks a table against a role contract and returns the
// accumulated violations.
func Validate(t *model.Table, role Role, opts Options) *Result {
	res := &Result{Role: role}
	switch role {
	case RoleRecords:
		validateRecords(t, opts, res)
	case RoleEntities:
		validateEntities(t, res)
	case RoleAggregate:
		validateAggregate(t, res)
	default:
		res.add("unknown validation role %q", role)
	}
	return res
}

func (r *Result) add(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

func validateRecords(t *model.Table, opts Options, res *Result) {
	authorIdx := requireColumn(t, model.ColumnAuthor, res)
	reportIdx := requireColumn(t, model.ColumnReport, res)
	for i, row := range t.Rows {
		if authorIdx >= 0 && row[authorIdx] == "" {
			res.add("row %d: author must not be null", i+1)
		}
		if reportIdx >= 0 && row[reportIdx] == "" && !opts.AllowEmptyReport {
			res.add("row %d: report must not be empty", i+1)
		}
	}
}

func validateEntities(t *model.Table, res *Result) {
	authorIdx := requireColumn(t, model.ColumnAuthor, res)
	if authorIdx < 0 {
		return
	}
	seen := make(map[string]int, len(t.Rows))
	for i, row := range t.Rows {
		author := row[authorIdx]
		if author == "" {
			res.add("row %d: author must not be null", i+1)
			continue
		}
		if first, dup := seen[author]; dup {
			res.add("row %d: duplicate author %q (first seen in row %d)", i+1, author, first)
			continue
		}
		seen[author] = i + 1
	}
}

func validateAggregate(t *model.Table, res *Result) {
	allowed := []string{model.ColumnCorpus, model.ColumnAuthor, model.ColumnReport}
	indices := make(map[string]int, len(allowed))
	for _, col := range allowed {
		indices[col] = requireColumn(t, col, res)
	}
	for _, col := range t.Columns {
		if _, ok := indices[col]; !ok {
			res.add("column %q not allowed in aggregate table (allowed: %s)",
				col, strings.Join(allowed, ", "))
		}
	}
	for i, row := range t.Rows {
		for _, col := range allowed {
			if idx := indices[col]; idx >= 0 && row[idx] == "" {
				res.add("row %d: %s must not be null", i+1, col)
			}
		}
	}
}

func requireColumn(t *model.Table, name string, res *Result) int {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		res.add("missing required column %q", name)
	}
	return idx
}
