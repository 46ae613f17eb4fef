// Package catalog holds the per-cycle variable directory: which NHANES data
// file contains each variable in each survey cycle.
//
// A Catalog is built once, from the embedded built-in directory or from a
// user supplied YAML or CUE file, and is never mutated afterwards.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultIdentifier is the NHANES respondent sequence number, the key every
// data file carries.
const DefaultIdentifier = "SEQN"

var yearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// Catalog maps (cycle, variable) to the file holding the variable.
type Catalog struct {
	identifier string
	files      map[string]map[string]string // year -> variable -> file
	years      []string
	variables  []string
}

// New builds a catalog from cycle -> file -> variables.
//
// Names are canonicalized (see CanonicalName). Every cycle label must look
// like "YYYY-YYYY" with consecutive years, and a variable may belong to only
// one file per cycle. The identifier is implicitly supported in every cycle
// and is not expected in the file lists.
func New(identifier string, cycles map[string]map[string][]string) (*Catalog, error) {
	identifier = CanonicalName(identifier)
	if identifier == "" {
		identifier = DefaultIdentifier
	}

	c := &Catalog{
		identifier: identifier,
		files:      make(map[string]map[string]string, len(cycles)),
	}
	allVars := map[string]bool{identifier: true}

	for rawYear, files := range cycles {
		year := CanonicalYear(rawYear)
		if err := checkYear(year); err != nil {
			return nil, err
		}
		if _, dup := c.files[year]; dup {
			return nil, fmt.Errorf("cycle %q listed twice", year)
		}
		vars := make(map[string]string)
		for rawFile, names := range files {
			file := strings.TrimSpace(rawFile)
			if file == "" {
				return nil, fmt.Errorf("cycle %s: empty file name", year)
			}
			for _, raw := range names {
				name := CanonicalName(raw)
				if name == "" || name == identifier {
					continue
				}
				if prev, ok := vars[name]; ok && prev != file {
					return nil, fmt.Errorf("cycle %s: variable %s listed in both %s and %s", year, name, prev, file)
				}
				vars[name] = file
				allVars[name] = true
			}
		}
		c.files[year] = vars
		c.years = append(c.years, year)
	}

	if len(c.years) == 0 {
		return nil, fmt.Errorf("catalog has no cycles")
	}
	sort.Strings(c.years)
	for v := range allVars {
		c.variables = append(c.variables, v)
	}
	sort.Strings(c.variables)
	return c, nil
}

func checkYear(year string) error {
	m := yearPattern.FindStringSubmatch(year)
	if m == nil {
		return fmt.Errorf("invalid cycle label %q: want YYYY-YYYY", year)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end != start+1 {
		return fmt.Errorf("invalid cycle label %q: cycles span two consecutive years", year)
	}
	return nil
}

// Identifier returns the subject identifier variable.
func (c *Catalog) Identifier() string {
	return c.identifier
}

// Lookup returns the file holding variable in year.
// The identifier never resolves to a file.
func (c *Catalog) Lookup(year, variable string) (string, bool) {
	vars, ok := c.files[year]
	if !ok {
		return "", false
	}
	file, ok := vars[variable]
	return file, ok
}

// SupportedYears returns every cycle label, sorted.
func (c *Catalog) SupportedYears() []string {
	return append([]string(nil), c.years...)
}

// SupportedVariables returns every variable known in any cycle, including
// the identifier, sorted.
func (c *Catalog) SupportedVariables() []string {
	return append([]string(nil), c.variables...)
}

// HasYear reports whether year is a supported cycle.
func (c *Catalog) HasYear(year string) bool {
	_, ok := c.files[year]
	return ok
}

// HasVariable reports whether name is known in at least one cycle.
func (c *Catalog) HasVariable(name string) bool {
	i := sort.SearchStrings(c.variables, name)
	return i < len(c.variables) && c.variables[i] == name
}

// Variables returns the variables of year held in file, sorted.
func (c *Catalog) Variables(year, file string) []string {
	var out []string
	for v, f := range c.files[year] {
		if f == file {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// CanonicalName normalizes a variable name: NFC, trimmed, upper case.
func CanonicalName(s string) string {
	return strings.ToUpper(norm.NFC.String(strings.TrimSpace(s)))
}

// CanonicalYear normalizes a cycle label: NFC and trimmed.
func CanonicalYear(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
