package xpt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/pravshot/nhutils/internal/table"
)

// ErrMalformed is wrapped by every error caused by invalid transport data.
var ErrMalformed = errors.New("malformed transport file")

const recordLen = 80

var (
	libraryHeader = []byte("HEADER RECORD*******LIBRARY HEADER RECORD!!!!!!!")
	libraryV8     = []byte("HEADER RECORD*******LIBV8   HEADER RECORD!!!!!!!")
	memberHeader  = []byte("HEADER RECORD*******MEMBER  HEADER RECORD!!!!!!!")
	namestrHeader = []byte("HEADER RECORD*******NAMESTR HEADER RECORD!!!!!!!")
	obsHeader     = []byte("HEADER RECORD*******OBS     HEADER RECORD!!!!!!!")
)

// Variable describes one column of a member, from its NAMESTR entry.
type Variable struct {
	Name     string
	Label    string
	Numeric  bool
	Length   int
	Position int
}

// Dataset is one decoded member.
type Dataset struct {
	Name      string
	Label     string
	Variables []Variable
	Table     *table.Table
}

// Decode decodes the first member of a transport file into a table.
// Numeric values are rendered in shortest round-trip form; missing values
// become empty cells.
func Decode(data []byte) (*table.Table, error) {
	ds, err := Read(data)
	if err != nil {
		return nil, err
	}
	return ds.Table, nil
}

// Read decodes the first member of a transport file.
func Read(data []byte) (*Dataset, error) {
	p := &parser{data: data}
	return p.parse()
}

type parser struct {
	data []byte
	off  int
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// record returns the next 80-byte record.
func (p *parser) record(what string) ([]byte, error) {
	if p.off+recordLen > len(p.data) {
		return nil, malformed("truncated before %s at offset %d", what, p.off)
	}
	rec := p.data[p.off : p.off+recordLen]
	p.off += recordLen
	return rec, nil
}

func (p *parser) expect(prefix []byte, what string) ([]byte, error) {
	rec, err := p.record(what)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(rec, prefix) {
		return nil, malformed("expected %s at offset %d", what, p.off-recordLen)
	}
	return rec, nil
}

func (p *parser) parse() (*Dataset, error) {
	if bytes.HasPrefix(p.data, libraryV8) {
		return nil, malformed("version 8 transport files are not supported")
	}
	if _, err := p.expect(libraryHeader, "library header"); err != nil {
		return nil, err
	}
	// real header and modified date
	for _, what := range []string{"library real header", "library modified header"} {
		if _, err := p.record(what); err != nil {
			return nil, err
		}
	}

	member, err := p.expect(memberHeader, "member header")
	if err != nil {
		return nil, err
	}
	nsize, err := strconv.Atoi(string(member[74:78]))
	if err != nil || (nsize != 140 && nsize != 136) {
		return nil, malformed("invalid NAMESTR size %q", member[74:78])
	}

	if _, err := p.record("descriptor header"); err != nil {
		return nil, err
	}
	desc, err := p.record("member descriptor")
	if err != nil {
		return nil, err
	}
	desc2, err := p.record("member second descriptor")
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Name:  strings.TrimRight(string(desc[8:16]), " "),
		Label: strings.TrimRight(string(desc2[32:72]), " "),
	}

	nsHeader, err := p.expect(namestrHeader, "NAMESTR header")
	if err != nil {
		return nil, err
	}
	nvars, err := strconv.Atoi(strings.TrimSpace(string(nsHeader[54:58])))
	if err != nil || nvars <= 0 {
		return nil, malformed("invalid variable count %q", nsHeader[54:58])
	}

	vars, err := p.namestrs(nvars, nsize)
	if err != nil {
		return nil, err
	}
	ds.Variables = vars

	if _, err := p.expect(obsHeader, "OBS header"); err != nil {
		return nil, err
	}

	t, err := p.observations(vars)
	if err != nil {
		return nil, err
	}
	ds.Table = t
	return ds, nil
}

func (p *parser) namestrs(nvars, nsize int) ([]Variable, error) {
	total := nvars * nsize
	if p.off+total > len(p.data) {
		return nil, malformed("truncated NAMESTR records")
	}
	vars := make([]Variable, nvars)
	for i := range vars {
		ns := p.data[p.off+i*nsize : p.off+(i+1)*nsize]
		ntype := binary.BigEndian.Uint16(ns[0:2])
		if ntype != 1 && ntype != 2 {
			return nil, malformed("variable %d has invalid type %d", i, ntype)
		}
		v := Variable{
			Name:     strings.TrimRight(string(ns[8:16]), " "),
			Label:    strings.TrimRight(string(ns[16:56]), " "),
			Numeric:  ntype == 1,
			Length:   int(binary.BigEndian.Uint16(ns[4:6])),
			Position: int(binary.BigEndian.Uint32(ns[84:88])),
		}
		if v.Name == "" {
			return nil, malformed("variable %d has no name", i)
		}
		if v.Length <= 0 || (v.Numeric && v.Length > 8) {
			return nil, malformed("variable %s has invalid length %d", v.Name, v.Length)
		}
		vars[i] = v
	}

	// NAMESTR block is padded to a whole record
	p.off += padded(total)
	return vars, nil
}

func (p *parser) observations(vars []Variable) (*table.Table, error) {
	rowLen := 0
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
		if end := v.Position + v.Length; end > rowLen {
			rowLen = end
		}
	}
	t := table.New(names)

	region := p.data[p.off:]
	if next := bytes.Index(region, memberHeader); next >= 0 {
		region = region[:next]
	}

	n := len(region) / rowLen
	// trailing blank rows inside the last record are padding
	for n > 0 {
		start := (n - 1) * rowLen
		if start < len(region)-recordLen+1 || !allBlank(region[start:start+rowLen]) {
			break
		}
		n--
	}

	latin1 := charmap.ISO8859_1.NewDecoder()
	for r := 0; r < n; r++ {
		raw := region[r*rowLen : (r+1)*rowLen]
		row := make([]string, len(vars))
		for i, v := range vars {
			field := raw[v.Position : v.Position+v.Length]
			if v.Numeric {
				if isMissing(field) {
					continue
				}
				row[i] = strconv.FormatFloat(ibmToFloat(field), 'g', -1, 64)
				continue
			}
			text, err := latin1.Bytes(bytes.TrimRight(field, " \x00"))
			if err != nil {
				return nil, malformed("row %d variable %s: %v", r, v.Name, err)
			}
			row[i] = string(text)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func allBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' {
			return false
		}
	}
	return true
}

// padded rounds n up to a whole number of records.
func padded(n int) int {
	if rem := n % recordLen; rem != 0 {
		return n + recordLen - rem
	}
	return n
}
