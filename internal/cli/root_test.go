package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "nhutils", cmd.Use)
	assert.Contains(t, cmd.Long, "SEQN")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"assemble"},
		{"catalog", "years"},
		{"catalog", "vars"},
		{"catalog", "lookup"},
		{"cache", "list"},
		{"cache", "clear"},
		{"serve"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"cache-dir", "catalog", "base-url", "ledger", "no-ledger"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestAssembleCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	assembleCmd, _, err := cmd.Find([]string{"assemble"})
	require.NoError(t, err)

	byFlag := assembleCmd.Flags().Lookup("by")
	require.NotNil(t, byFlag)
	assert.Empty(t, byFlag.DefValue)

	joinFlag := assembleCmd.Flags().Lookup("join")
	require.NotNil(t, joinFlag)
	assert.Equal(t, "outer", joinFlag.DefValue)

	outFlag := assembleCmd.Flags().Lookup("out")
	require.NotNil(t, outFlag)
	assert.Equal(t, "o", outFlag.Shorthand)

	for _, name := range []string{"binary", "drop-7-9", "drop-77-99", "drop-777-999", "minus-one"} {
		assert.NotNil(t, assembleCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "--format", "yaml", "catalog", "years")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInvalidConfiguration(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	env := newCLIEnv(t)

	_, _, err := env.run(t, "catalog", "years")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}
