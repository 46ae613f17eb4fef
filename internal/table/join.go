package table

import (
	"fmt"
	"strings"
)

// JoinMode selects which keys survive a Join.
type JoinMode string

const (
	// JoinInner keeps keys present in both tables.
	JoinInner JoinMode = "inner"
	// JoinOuter keeps keys present in either table.
	JoinOuter JoinMode = "outer"
	// JoinLeft keeps every key of the left table.
	JoinLeft JoinMode = "left"
	// JoinRight keeps every key of the right table.
	JoinRight JoinMode = "right"
)

// JoinModes lists the recognized join modes.
var JoinModes = []JoinMode{JoinInner, JoinOuter, JoinLeft, JoinRight}

// ParseJoinMode converts a user supplied name to a JoinMode.
// Matching is case-insensitive.
func ParseJoinMode(s string) (JoinMode, error) {
	mode := JoinMode(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range JoinModes {
		if m == mode {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid join mode %q: must be one of %v", s, JoinModes)
}

// Join merges right into left on the key column.
//
// Output columns are the left columns followed by the right columns other
// than the key. A non-key column present in both tables is an
// ErrColumnCollision. Keys matching several rows produce every combination.
//
// Row order: left rows in order (with their matches), then for JoinOuter the
// unmatched right rows in order. JoinRight follows the right table's order.
// Cells of the side that has no match are empty.
func Join(left, right *Table, key string, mode JoinMode) (*Table, error) {
	lk := left.ColumnIndex(key)
	if lk < 0 {
		return nil, fmt.Errorf("%w: join key %q in left table", ErrMissingColumn, key)
	}
	rk := right.ColumnIndex(key)
	if rk < 0 {
		return nil, fmt.Errorf("%w: join key %q in right table", ErrMissingColumn, key)
	}

	columns := make([]string, 0, len(left.Columns)+len(right.Columns)-1)
	columns = append(columns, left.Columns...)
	var rightCols []int
	for i, c := range right.Columns {
		if i == rk {
			continue
		}
		if left.HasColumn(c) {
			return nil, fmt.Errorf("%w: %q", ErrColumnCollision, c)
		}
		columns = append(columns, c)
		rightCols = append(rightCols, i)
	}

	out := New(columns)
	width := len(left.Columns)
	emit := func(l, r []string) {
		row := make([]string, len(columns))
		if l != nil {
			copy(row, l)
		} else {
			row[lk] = r[rk]
		}
		if r != nil {
			for j, i := range rightCols {
				row[width+j] = r[i]
			}
		}
		out.Rows = append(out.Rows, row)
	}

	switch mode {
	case JoinInner, JoinLeft, JoinOuter:
		index := indexRows(right, rk)
		matched := make([]bool, len(right.Rows))
		for _, l := range left.Rows {
			hits := index[l[lk]]
			if len(hits) == 0 {
				if mode != JoinInner {
					emit(l, nil)
				}
				continue
			}
			for _, i := range hits {
				matched[i] = true
				emit(l, right.Rows[i])
			}
		}
		if mode == JoinOuter {
			for i, r := range right.Rows {
				if !matched[i] {
					emit(nil, r)
				}
			}
		}
	case JoinRight:
		index := indexRows(left, lk)
		for _, r := range right.Rows {
			hits := index[r[rk]]
			if len(hits) == 0 {
				emit(nil, r)
				continue
			}
			for _, i := range hits {
				emit(left.Rows[i], r)
			}
		}
	default:
		return nil, fmt.Errorf("invalid join mode %q", mode)
	}

	return out, nil
}

// indexRows maps each key value to the row positions holding it.
func indexRows(t *Table, col int) map[string][]int {
	index := make(map[string][]int, len(t.Rows))
	for i, row := range t.Rows {
		index[row[col]] = append(index[row[col]], i)
	}
	return index
}
