package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/outer_join_two_files.yaml")
	require.NoError(t, err)

	assert.Equal(t, "outer_join_two_files", s.Name)
	assert.Len(t, s.Files, 2)
	assert.Len(t, s.Steps, 2)
	assert.Equal(t, []string{"DIQ010", "RIAGENDR"}, s.Steps[0].Request.Vars)
	require.NotNil(t, s.Steps[0].Expect.Rows)
	assert.Equal(t, 4, *s.Steps[0].Expect.Rows)
	require.NotNil(t, s.Steps[1].Expect.Fetches)
	assert.Equal(t, 0, *s.Steps[1].Expect.Fetches)
	assert.Len(t, s.Assertions, 4)
}

func TestLoadScenario_NotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "misspelled key"
catalog:
  "2015-2016":
    DIQ_I.XPT: [DIQ010]
steps:
  - request:
      vars: [DIQ010]
      years: ["2015-2016"]
assertion: []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `description: d`,
			want: "name is required",
		},
		{
			name: "missing catalog",
			yaml: "name: n\ndescription: d\n",
			want: "catalog is required",
		},
		{
			name: "missing steps",
			yaml: "name: n\ndescription: d\ncatalog: {\"2015-2016\": {DIQ_I.XPT: [DIQ010]}}\n",
			want: "steps list is required",
		},
		{
			name: "ragged rows",
			yaml: `name: n
description: d
catalog: {"2015-2016": {DIQ_I.XPT: [DIQ010]}}
files:
  - {year: "2015-2016", file: DIQ_I.XPT, columns: [SEQN, DIQ010], rows: [["1"]]}
steps:
  - request: {vars: [DIQ010], years: ["2015-2016"]}
`,
			want: "got 1 cells, want 2",
		},
		{
			name: "empty file",
			yaml: `name: n
description: d
catalog: {"2015-2016": {DIQ_I.XPT: [DIQ010]}}
files:
  - {year: "2015-2016", file: DIQ_I.XPT}
steps:
  - request: {vars: [DIQ010], years: ["2015-2016"]}
`,
			want: "one of columns, raw or fail is required",
		},
		{
			name: "unknown assertion",
			yaml: `name: n
description: d
catalog: {"2015-2016": {DIQ_I.XPT: [DIQ010]}}
steps:
  - request: {vars: [DIQ010], years: ["2015-2016"]}
assertions:
  - type: eventually
`,
			want: `unknown assertion type "eventually"`,
		},
		{
			name: "ledger run out of range",
			yaml: `name: n
description: d
catalog: {"2015-2016": {DIQ_I.XPT: [DIQ010]}}
steps:
  - request: {vars: [DIQ010], years: ["2015-2016"]}
assertions:
  - {type: ledger_phase, run: 2, phase: Done}
`,
			want: "run must be between 1 and 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScenarioFiles_AllParse(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		_, err = ParseScenario(data)
		assert.NoError(t, err, p)
	}
}
