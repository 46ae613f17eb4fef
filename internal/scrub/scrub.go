// Package scrub recodes survey answer codes in assembled datasets.
//
// NHANES questionnaires encode "refused" and "don't know" as 7/9, 77/99 or
// 777/999 depending on the answer width, and yes/no questions as 1/2.
// Each operation rewrites whole columns in place. Missing cells (empty
// strings) stay missing; cells that do not parse as numbers are left alone,
// except by MinusOne which cannot shift them.
package scrub

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pravshot/nhutils/internal/table"
)

// Op names a recode.
type Op string

const (
	OpBinary        Op = "binary"
	OpDrop7And9     Op = "drop-7-9"
	OpDrop77And99   Op = "drop-77-99"
	OpDrop777And999 Op = "drop-777-999"
	OpMinusOne      Op = "minus-one"
)

// Ops lists every recode in the order Apply runs them.
var Ops = []Op{OpBinary, OpDrop7And9, OpDrop77And99, OpDrop777And999, OpMinusOne}

// Step applies one recode to a set of columns.
type Step struct {
	Op      Op
	Columns []string
}

// Apply runs steps in order. It stops at the first error, leaving earlier
// steps applied.
func Apply(t *table.Table, steps ...Step) error {
	for _, s := range steps {
		fn, ok := recodes[s.Op]
		if !ok {
			return fmt.Errorf("unknown recode %q", s.Op)
		}
		if err := apply(t, s.Columns, fn); err != nil {
			return fmt.Errorf("%s: %w", s.Op, err)
		}
	}
	return nil
}

// ConvertToBinary maps yes/no answers 1/2 to 1/0 and drops 7 and 9.
func ConvertToBinary(t *table.Table, columns ...string) error {
	return apply(t, columns, convertToBinary)
}

// Remove7And9 drops the answer codes 7 and 9.
func Remove7And9(t *table.Table, columns ...string) error {
	return apply(t, columns, dropCodes(7, 9))
}

// Remove77And99 drops the answer codes 77 and 99.
func Remove77And99(t *table.Table, columns ...string) error {
	return apply(t, columns, dropCodes(77, 99))
}

// Remove777And999 drops the answer codes 777 and 999.
func Remove777And999(t *table.Table, columns ...string) error {
	return apply(t, columns, dropCodes(777, 999))
}

// MinusOne subtracts 1 from every value, turning RIAGENDR's 1/2 into 0/1.
func MinusOne(t *table.Table, columns ...string) error {
	return apply(t, columns, minusOne)
}

type recode func(cell string) (string, error)

var recodes = map[Op]recode{
	OpBinary:        convertToBinary,
	OpDrop7And9:     dropCodes(7, 9),
	OpDrop77And99:   dropCodes(77, 99),
	OpDrop777And999: dropCodes(777, 999),
	OpMinusOne:      minusOne,
}

// apply validates every column before changing any cell.
func apply(t *table.Table, columns []string, fn recode) error {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.ColumnIndex(c)
		if idx[i] < 0 {
			return fmt.Errorf("%w: %q", table.ErrMissingColumn, c)
		}
	}
	for _, col := range idx {
		for r, row := range t.Rows {
			v, err := fn(row[col])
			if err != nil {
				return fmt.Errorf("column %s row %d: %w", t.Columns[col], r, err)
			}
			row[col] = v
		}
	}
	return nil
}

func parse(cell string) (float64, bool) {
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	return v, err == nil
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func convertToBinary(cell string) (string, error) {
	v, ok := parse(cell)
	if !ok {
		return cell, nil
	}
	switch v {
	case 7, 9:
		return "", nil
	case 2:
		return "0", nil
	}
	return cell, nil
}

func dropCodes(codes ...float64) recode {
	return func(cell string) (string, error) {
		v, ok := parse(cell)
		if !ok {
			return cell, nil
		}
		for _, c := range codes {
			if v == c {
				return "", nil
			}
		}
		return cell, nil
	}
}

func minusOne(cell string) (string, error) {
	if cell == "" {
		return "", nil
	}
	v, ok := parse(cell)
	if !ok {
		return "", fmt.Errorf("%q is not numeric", cell)
	}
	return format(v - 1), nil
}
