package xpt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// Encode writes ds as a single-member transport file. Numeric cells are
// parsed as floats and empty cells are written as the '.' missing value.
// Character variables with no Length use the widest cell.
func Encode(w io.Writer, ds *Dataset) error {
	if ds.Table == nil {
		return fmt.Errorf("encode %s: no table", ds.Name)
	}
	if len(ds.Variables) != len(ds.Table.Columns) {
		return fmt.Errorf("encode %s: %d variables for %d columns", ds.Name, len(ds.Variables), len(ds.Table.Columns))
	}

	latin1 := charmap.ISO8859_1.NewEncoder()
	vars := make([]Variable, len(ds.Variables))
	cells := make([][][]byte, len(ds.Table.Rows))
	for r := range cells {
		cells[r] = make([][]byte, len(vars))
	}

	pos := 0
	for i, v := range ds.Variables {
		if v.Numeric {
			v.Length = 8
		}
		for r, row := range ds.Table.Rows {
			if v.Numeric {
				b, err := encodeNumber(row[i])
				if err != nil {
					return fmt.Errorf("encode %s row %d: %w", v.Name, r, err)
				}
				cells[r][i] = b
				continue
			}
			b, err := latin1.Bytes([]byte(row[i]))
			if err != nil {
				return fmt.Errorf("encode %s row %d: %w", v.Name, r, err)
			}
			cells[r][i] = b
			if ds.Variables[i].Length == 0 && len(b) > v.Length {
				v.Length = len(b)
			}
		}
		if v.Length == 0 {
			v.Length = 1
		}
		v.Position = pos
		pos += v.Length
		vars[i] = v
	}

	var buf bytes.Buffer
	stamp := strings.ToUpper(time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC).Format("02Jan06:15:04:05"))

	buf.Write(pad(string(libraryHeader)+"000000000000000000000000000000", recordLen))
	buf.Write(pad("SAS     SAS     SASLIB  9.4     X64_7PRO"+blanks(24)+stamp, recordLen))
	buf.Write(pad(stamp, recordLen))
	buf.Write(pad(string(memberHeader)+"000000000000000001600000000140", recordLen))
	buf.Write(pad("HEADER RECORD*******DSCRPTR HEADER RECORD!!!!!!!000000000000000000000000000000", recordLen))
	buf.Write(pad("SAS     "+field(ds.Name, 8)+"SASDATA 9.4     X64_7PRO"+blanks(24)+stamp, recordLen))
	buf.Write(pad(stamp+blanks(16)+field(ds.Label, 40)+blanks(8), recordLen))
	buf.Write(pad(fmt.Sprintf("%s000000%04d00000000000000000000", namestrHeader, len(vars)), recordLen))

	var ns bytes.Buffer
	for i, v := range vars {
		rec := make([]byte, 140)
		ntype := uint16(2)
		if v.Numeric {
			ntype = 1
		}
		binary.BigEndian.PutUint16(rec[0:2], ntype)
		binary.BigEndian.PutUint16(rec[4:6], uint16(v.Length))
		binary.BigEndian.PutUint16(rec[6:8], uint16(i+1))
		copy(rec[8:16], field(v.Name, 8))
		copy(rec[16:56], field(v.Label, 40))
		copy(rec[56:64], blanks(8))
		copy(rec[72:80], blanks(8))
		binary.BigEndian.PutUint32(rec[84:88], uint32(v.Position))
		ns.Write(rec)
	}
	buf.Write(ns.Bytes())
	buf.Write(pad("", padded(ns.Len())-ns.Len()))

	buf.Write(pad(string(obsHeader)+"000000000000000000000000000000", recordLen))

	var obs bytes.Buffer
	for r := range cells {
		for i, v := range vars {
			b := cells[r][i]
			if !v.Numeric {
				if len(b) > v.Length {
					b = b[:v.Length]
				}
				b = append(append([]byte(nil), b...), bytes.Repeat([]byte{' '}, v.Length-len(b))...)
			}
			obs.Write(b)
		}
	}
	buf.Write(obs.Bytes())
	buf.Write(pad("", padded(obs.Len())-obs.Len()))

	_, err := w.Write(buf.Bytes())
	return err
}

func encodeNumber(s string) ([]byte, error) {
	if s == "" {
		return []byte{'.', 0, 0, 0, 0, 0, 0, 0}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	b, err := floatToIBM(v)
	if err != nil {
		return nil, err
	}
	return b[:], nil
}

func pad(s string, n int) []byte {
	b := []byte(s)
	if len(b) >= n {
		return b[:n]
	}
	return append(b, bytes.Repeat([]byte{' '}, n-len(b))...)
}

func field(s string, n int) string {
	return string(pad(s, n))
}

func blanks(n int) string {
	return string(bytes.Repeat([]byte{' '}, n))
}
