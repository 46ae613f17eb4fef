package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// RunWithGolden runs a scenario, requires it to pass and compares the
// dataset of its last successful step with testdata/golden/<name>.golden.
//
// To update golden files: go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	require.NoError(t, err, "scenario setup failed")
	require.True(t, result.Pass, "scenario %s failed: %v", scenario.Name, result.Errors)
	require.NotNil(t, result.Dataset, "scenario %s produced no dataset", scenario.Name)

	var buf bytes.Buffer
	require.NoError(t, result.Dataset.WriteCSV(&buf))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, buf.Bytes())

	return result
}
