package table

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when an operation names a column the table
	// does not have.
	ErrMissingColumn = errors.New("missing column")

	// ErrColumnCollision is returned when a join would produce two columns
	// with the same name outside the join key.
	ErrColumnCollision = errors.New("column collision")

	// ErrRowWidth is returned when a row does not have one cell per column.
	ErrRowWidth = errors.New("row width mismatch")
)

// Table is an ordered set of named columns and string rows.
// Missing values are empty strings.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New creates an empty table with the given columns.
// The column slice is copied.
func New(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns a copy of the values of the named column.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Append adds a row. The row must have one cell per column.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("%w: got %d cells, want %d", ErrRowWidth, len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Select returns a new table holding only the named columns, in the given
// order. Names are deduplicated; the first occurrence wins.
func (t *Table) Select(columns []string) (*Table, error) {
	var (
		names []string
		idx   []int
		seen  = make(map[string]bool, len(columns))
	)
	for _, name := range columns {
		if seen[name] {
			continue
		}
		seen[name] = true
		i := t.ColumnIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		names = append(names, name)
		idx = append(idx, i)
	}

	out := New(names)
	out.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		cells := make([]string, len(idx))
		for j, i := range idx {
			cells[j] = row[i]
		}
		out.Rows[r] = cells
	}
	return out, nil
}

// MoveFirst relocates the named column to position 0, keeping the relative
// order of every other column. Rows are rewritten in place.
func (t *Table) MoveFirst(name string) error {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	if idx == 0 {
		return nil
	}
	t.Columns = moveToFront(t.Columns, idx)
	for r, row := range t.Rows {
		t.Rows[r] = moveToFront(row, idx)
	}
	return nil
}

func moveToFront(s []string, idx int) []string {
	out := make([]string, 0, len(s))
	out = append(out, s[idx])
	out = append(out, s[:idx]...)
	return append(out, s[idx+1:]...)
}

// Concat stacks tables row-wise. The result has the union of all columns in
// order of first appearance; cells for columns a table lacks are empty.
// Rows are never deduplicated.
func Concat(tables ...*Table) *Table {
	var (
		columns []string
		pos     = make(map[string]int)
	)
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(columns)
				columns = append(columns, c)
			}
		}
	}

	out := New(columns)
	for _, t := range tables {
		mapping := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			mapping[i] = pos[c]
		}
		for _, row := range t.Rows {
			cells := make([]string, len(columns))
			for i, v := range row {
				cells[mapping[i]] = v
			}
			out.Rows = append(out.Rows, cells)
		}
	}
	return out
}
