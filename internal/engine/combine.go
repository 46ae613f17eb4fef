package engine

import "github.com/pravshot/nhutils/internal/table"

// combine stacks cycle tables in order and moves the identifier to the
// first column. Rows are never merged across cycles.
func combine(years []*table.Table, key string) (*table.Table, error) {
	out := table.Concat(years...)
	if err := out.MoveFirst(key); err != nil {
		return nil, &Error{Code: ErrCodeMissingColumn, Message: "identifier missing from dataset", Err: err}
	}
	return out, nil
}
