package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravshot/nhutils/internal/engine"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"rows": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"rows": float64(3)}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeInvalidYear, "bad cycle", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E202", resp.Error.Code)
	assert.Equal(t, "bad cycle", resp.Error.Message)
}

func TestOutputFormatter_TextErrorGoesToErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut, Verbose: true}

	require.NoError(t, formatter.Error("E001", "boom", "more"))

	assert.Empty(t, out.String())
	assert.Equal(t, "Error [E001]: boom\nDetails: more\n", errOut.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	buf := &bytes.Buffer{}
	quiet := &OutputFormatter{Format: "text", Writer: buf}
	quiet.VerboseLog("hidden %d", 1)
	assert.Empty(t, buf.String())

	loud := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}
	loud.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := WrapExitError(ExitFailure, "download failed", errors.New("reset"))
	assert.Equal(t, "download failed: reset", wrapped.Error())
	assert.Equal(t, "reset", errors.Unwrap(wrapped).Error())
}

func TestFailAssembly(t *testing.T) {
	tests := []struct {
		err  error
		code string
		exit int
	}{
		{&engine.Error{Code: engine.ErrCodeInvalidVariable}, ErrCodeInvalidVariable, ExitCommandError},
		{&engine.Error{Code: engine.ErrCodeInvalidYear}, ErrCodeInvalidYear, ExitCommandError},
		{&engine.Error{Code: engine.ErrCodeRetrievalFailure}, ErrCodeRetrieval, ExitFailure},
		{&engine.Error{Code: engine.ErrCodeDecodeFailure}, ErrCodeDecode, ExitFailure},
		{errors.New("unexpected"), ErrCodeGeneric, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			buf := &bytes.Buffer{}
			err := failAssembly(&OutputFormatter{Format: "json", Writer: buf}, tt.err)

			assert.Equal(t, tt.exit, GetExitCode(err))
			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
