package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravshot/nhutils/internal/store"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestAssemble_Stdout(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "assemble", "--vars", "DIQ010,riagendr", "--years", "2015-2016")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "assemble_outer", []byte(stdout))
}

func TestAssemble_Recodes(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "assemble",
		"--vars", "DIQ010", "--vars", "RIAGENDR",
		"--years", "2015-2016",
		"--binary", "diq010",
		"--minus-one", "RIAGENDR")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "assemble_recoded", []byte(stdout))
}

func TestAssemble_InnerJoin(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "assemble", "--vars", "DIQ010,RIAGENDR", "--years", "2015-2016", "--join", "inner")
	require.NoError(t, err)

	assert.Equal(t, "SEQN,DIQ010,RIAGENDR\n83732,1,1\n83733,2,2\n", stdout)
}

func TestAssemble_OutFile(t *testing.T) {
	env := newCLIEnv(t)
	out := filepath.Join(t.TempDir(), "data", "diabetes.csv")

	stdout, _, err := env.run(t, "--format", "json", "assemble",
		"--vars", "DIQ010,RIAGENDR", "--years", "2015-2016", "--out", out)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   AssembleResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.Data.RunID)
	assert.Equal(t, out, resp.Data.Path)
	assert.Equal(t, 3, resp.Data.Rows)
	assert.Equal(t, []string{"SEQN", "DIQ010", "RIAGENDR"}, resp.Data.Columns)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "SEQN,DIQ010,RIAGENDR\n83732,1,1\n83733,2,2\n83734,9,\n", string(data))
}

func TestAssemble_OutFileText(t *testing.T) {
	env := newCLIEnv(t)
	out := filepath.Join(t.TempDir(), "diq.csv")

	stdout, _, err := env.run(t, "assemble", "--vars", "DIQ010", "--years", "2015-2016", "-o", out)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Wrote 3 rows x 2 columns to "+out)
}

func TestAssemble_SecondRunUsesCache(t *testing.T) {
	env := newCLIEnv(t)
	args := []string{"assemble", "--vars", "DIQ010,RIAGENDR", "--years", "2015-2016"}

	first, _, err := env.run(t, args...)
	require.NoError(t, err)
	second, _, err := env.run(t, args...)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, env.fetcher.Calls(), 2, "each file is downloaded once")
	assert.FileExists(t, filepath.Join(env.dir, "2015-2016", "DIQ_I.csv"))
	assert.FileExists(t, filepath.Join(env.dir, "2015-2016", "DIQ_I.XPT"))
}

func TestAssemble_RecordsLedger(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "assemble", "--vars", "DIQ010", "--years", "2015-2016")
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(env.dir, "ledger.db"))
	require.NoError(t, err)
	defer st.Close()

	run, err := st.Run(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Done", run.Phase)
	assert.Equal(t, 3, run.Rows)

	artifacts, err := st.Artifacts(context.Background(), "2015-2016")
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "DIQ_I.XPT", artifacts[0].File)
}

func TestAssemble_NoLedger(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "--no-ledger", "assemble", "--vars", "DIQ010", "--years", "2015-2016")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(env.dir, "ledger.db"))
}

func TestAssemble_InvalidVariable(t *testing.T) {
	env := newCLIEnv(t)

	stdout, stderr, err := env.run(t, "assemble", "--vars", "DIQ010,NOTAREALVAR", "--years", "2015-2016")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error [E201]")
	assert.Contains(t, stderr, "NOTAREALVAR")
	assert.Empty(t, env.fetcher.Calls())
}

func TestAssemble_InvalidYearJSON(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "--format", "json", "assemble", "--vars", "DIQ010", "--years", "2016-2017")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeInvalidYear, resp.Error.Code)
}

func TestAssemble_RetrievalFailure(t *testing.T) {
	env := newCLIEnv(t)
	env.fetcher.FailFile("2015-2016", "DEMO_I.XPT", errors.New("connection reset"))

	_, stderr, err := env.run(t, "assemble", "--vars", "DIQ010,RIAGENDR", "--years", "2015-2016")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E210]")
	assert.FileExists(t, filepath.Join(env.dir, "2015-2016", "DIQ_I.csv"), "partial cache is kept")
}

func TestAssemble_BadRecodeColumn(t *testing.T) {
	env := newCLIEnv(t)

	_, stderr, err := env.run(t, "assemble", "--vars", "DIQ010", "--years", "2015-2016", "--minus-one", "RIAGENDR")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E220]")
}

func TestAssemble_RequiredFlags(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "assemble", "--vars", "DIQ010")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "years")
}

func TestAssemble_BadCatalog(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.WriteFile(env.catalog, []byte("cycles: {\"2015\": {}}\n"), 0o644))

	_, stderr, err := env.run(t, "assemble", "--vars", "DIQ010", "--years", "2015-2016")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E003]")
}
