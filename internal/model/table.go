package model

import "fmt"

// Table is an ordered, string-celled tabular structure. It backs the raw
// parsed file as well as the derived reports and authors tables. Cells are
// kept as text; optional columns pass through untyped.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable creates an empty table with the given column order.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns all cells of the named column in row order.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("no such column: %q", name)
	}
	cells := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = row[idx]
	}
	return cells, nil
}

// AppendRow adds a row, which must match the column count.
func (t *Table) AppendRow(cells ...string) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Columns))
	}
	t.Rows = append(t.Rows, cells)
	return nil
}

// Project returns a new table containing only the named columns, in the
// given order. Rows are copied, not shared.
func (t *Table) Project(columns ...string) (*Table, error) {
	indices := make([]int, len(columns))
	for i, col := range columns {
		idx := t.ColumnIndex(col)
		if idx < 0 {
			return nil, fmt.Errorf("no such column: %q", col)
		}
		indices[i] = idx
	}
	out := NewTable(columns...)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(indices))
		for j, idx := range indices {
			cells[j] = row[idx]
		}
		out.Rows[i] = cells
	}
	return out, nil
}

// Renamed returns a table with columns relabeled through the given
// old-to-new mapping. Unmapped columns keep their labels; rows are
// shared with the receiver.
func (t *Table) Renamed(mapping map[string]string) *Table {
	columns := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		if renamed, ok := mapping[col]; ok {
			columns[i] = renamed
		} else {
			columns[i] = col
		}
	}
	out := NewTable(columns...)
	out.Rows = t.Rows
	return out
}
