package engine

import (
	"errors"
	"fmt"

	"github.com/pravshot/nhutils/internal/table"
)

// assembleYear merges the tables of one cycle. tables[i] is the decoded
// form of files[i]. Each table is restricted to the identifier and its
// requested columns; the first one seeds the result and the rest are joined
// on the identifier.
func assembleYear(files []resolvedFile, tables []*table.Table, key string, mode table.JoinMode) (*table.Table, error) {
	var year *table.Table
	for i, f := range files {
		cols := append([]string{key}, f.columns...)
		part, err := tables[i].Select(cols)
		if err != nil {
			return nil, &Error{
				Code:    ErrCodeMissingColumn,
				Message: "decoded file lacks a catalogued column",
				Year:    f.desc.Year,
				File:    f.desc.File,
				Err:     err,
			}
		}
		if err := checkIdentifier(part, key); err != nil {
			return nil, &Error{
				Code:    ErrCodeDecodeFailure,
				Message: "invalid subject identifier",
				Year:    f.desc.Year,
				File:    f.desc.File,
				Err:     err,
			}
		}

		if year == nil {
			year = part
			continue
		}
		year, err = table.Join(year, part, key, mode)
		if err != nil {
			code := ErrCodeDecodeFailure
			if errors.Is(err, table.ErrColumnCollision) {
				code = ErrCodeColumnCollision
			}
			return nil, &Error{
				Code:    code,
				Message: "cannot merge file",
				Year:    f.desc.Year,
				File:    f.desc.File,
				Err:     err,
			}
		}
	}
	return year, nil
}

// checkIdentifier rejects rows with an empty identifier.
func checkIdentifier(t *table.Table, key string) error {
	ids, err := t.Column(key)
	if err != nil {
		return err
	}
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("row %d has an empty %s", i, key)
		}
	}
	return nil
}
