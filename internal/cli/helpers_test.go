package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pravshot/nhutils/internal/testutil"
)

const testCatalogYAML = `identifier: SEQN
cycles:
  "2013-2014":
    DEMO_H.XPT: [RIAGENDR, RIDAGEYR]
    DIQ_H.XPT: [DIQ010]
  "2015-2016":
    DEMO_I.XPT: [RIAGENDR, RIDAGEYR]
    DIQ_I.XPT: [DIQ010]
`

// cliEnv is a temporary cache directory, catalog file and fake fetcher.
type cliEnv struct {
	dir     string
	catalog string
	fetcher *testutil.FakeFetcher
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(testCatalogYAML), 0o644))

	f := testutil.NewFakeFetcher("")
	f.ServeFile("2015-2016", "DEMO_I.XPT", testutil.EncodeXPT("DEMO_I",
		[]string{"SEQN", "RIAGENDR", "RIDAGEYR"},
		[]string{"83732", "1", "62"},
		[]string{"83733", "2", "53"},
	))
	f.ServeFile("2015-2016", "DIQ_I.XPT", testutil.EncodeXPT("DIQ_I",
		[]string{"SEQN", "DIQ010"},
		[]string{"83732", "1"},
		[]string{"83733", "2"},
		[]string{"83734", "9"},
	))

	return &cliEnv{
		dir:     filepath.Join(dir, "cache"),
		catalog: catalog,
		fetcher: f,
	}
}

// run executes the root command with the environment's cache, catalog and
// fetcher, returning stdout, stderr and the error.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	opts := &RootOptions{
		Fetcher: e.fetcher,
		RunIDs:  testutil.NewSequentialRunIDs(""),
	}
	cmd := newRootCommand(opts)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--cache-dir", e.dir, "--catalog", e.catalog}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
