package testutil

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pravshot/nhutils/internal/table"
	"github.com/pravshot/nhutils/internal/xpt"
)

// EncodeXPT builds a transport file holding one member named after file.
// A column is numeric when every non-empty cell parses as a float.
// Panics on invalid input; fixtures are static.
func EncodeXPT(file string, columns []string, rows ...[]string) []byte {
	tbl := table.New(columns)
	for _, r := range rows {
		if err := tbl.Append(r); err != nil {
			panic(err)
		}
	}

	vars := make([]xpt.Variable, len(columns))
	for i, name := range columns {
		vars[i] = xpt.Variable{Name: name, Numeric: numericColumn(tbl, i)}
	}

	var buf bytes.Buffer
	ds := &xpt.Dataset{
		Name:      strings.TrimSuffix(file, ".XPT"),
		Variables: vars,
		Table:     tbl,
	}
	if err := xpt.Encode(&buf, ds); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func numericColumn(t *table.Table, col int) bool {
	for _, row := range t.Rows {
		if row[col] == "" {
			continue
		}
		if _, err := strconv.ParseFloat(row[col], 64); err != nil {
			return false
		}
	}
	return true
}
