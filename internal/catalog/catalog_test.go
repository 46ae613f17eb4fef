package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c, err := New("", map[string]map[string][]string{
		"2015-2016": {
			"DIQ_I.XPT":  {"DIQ010", "diq050 "},
			"DEMO_I.XPT": {"RIDAGEYR", "SEQN"},
		},
		"2017-2018": {
			"DIQ_J.XPT": {"DIQ010"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultIdentifier, c.Identifier())
	assert.Equal(t, []string{"2015-2016", "2017-2018"}, c.SupportedYears())
	assert.Equal(t, []string{"DIQ010", "DIQ050", "RIDAGEYR", "SEQN"}, c.SupportedVariables())

	file, ok := c.Lookup("2015-2016", "DIQ050")
	assert.True(t, ok)
	assert.Equal(t, "DIQ_I.XPT", file)

	_, ok = c.Lookup("2017-2018", "RIDAGEYR")
	assert.False(t, ok)

	_, ok = c.Lookup("2015-2016", "SEQN")
	assert.False(t, ok, "identifier never resolves to a file")

	_, ok = c.Lookup("1999-2000", "DIQ010")
	assert.False(t, ok)

	assert.True(t, c.HasYear("2017-2018"))
	assert.False(t, c.HasYear("2019-2020"))
	assert.True(t, c.HasVariable("SEQN"))
	assert.False(t, c.HasVariable("NOTAREALVAR"))
	assert.Equal(t, []string{"DIQ010", "DIQ050"}, c.Variables("2015-2016", "DIQ_I.XPT"))
}

func TestNew_Errors(t *testing.T) {
	tests := map[string]map[string]map[string][]string{
		"no cycles":  {},
		"bad label":  {"2015": {"A.XPT": {"X"}}},
		"wrong span": {"2015-2017": {"A.XPT": {"X"}}},
		"empty file": {"2015-2016": {" ": {"X"}}},
		"two files":  {"2015-2016": {"A.XPT": {"X"}, "B.XPT": {"X"}}},
	}
	for name, cycles := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New("SEQN", cycles)
			assert.Error(t, err)
		})
	}
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "DIQ010", CanonicalName("  diq010\t"))
	// decomposed e + combining acute is composed by NFC
	assert.Equal(t, CanonicalName("\u00e9"), CanonicalName("e\u0301"))
	assert.Equal(t, "2015-2016", CanonicalYear(" 2015-2016 "))
}

func TestBuiltin(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	assert.Len(t, c.SupportedYears(), 10)
	assert.Equal(t, "1999-2000", c.SupportedYears()[0])
	assert.Equal(t, "2017-2018", c.SupportedYears()[9])

	file, ok := c.Lookup("2015-2016", "DIQ010")
	require.True(t, ok)
	assert.Equal(t, "DIQ_I.XPT", file)

	file, ok = c.Lookup("1999-2000", "LBXGH")
	require.True(t, ok)
	assert.Equal(t, "LAB10.XPT", file)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
identifier: SEQN
cycles:
  "2015-2016":
    DIQ_I.XPT: [DIQ010]
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	file, ok := c.Lookup("2015-2016", "DIQ010")
	assert.True(t, ok)
	assert.Equal(t, "DIQ_I.XPT", file)
}

func TestLoad_CUE(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
#diabetes: ["DIQ010", "DIQ050"]
identifier: "SEQN"
cycles: "2015-2016": {
	"DIQ_I.XPT": #diabetes
	"DEMO_I.XPT": ["RIDAGEYR"]
}
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	file, ok := c.Lookup("2015-2016", "RIDAGEYR")
	assert.True(t, ok)
	assert.Equal(t, "DEMO_I.XPT", file)
}

func TestLoad_CUEIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
cycles: "2015-2016": "DIQ_I.XPT": [string]
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "catalog.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = Load(txt)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("cycles: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
