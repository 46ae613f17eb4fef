package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pravshot/nhutils/internal/engine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Assembly failed after validation (download, decode, storage)
	ExitCommandError = 2 // Bad request or setup (unknown variable or year, bad flags, unreadable catalog)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Invalid configuration
	ErrCodeCatalog     = "E003" // Catalog file cannot be loaded
	ErrCodeLedger      = "E004" // Ledger cannot be opened
	ErrCodeWriteFailed = "E005" // Output file cannot be written
	ErrCodeCache       = "E006" // Cache directory cannot be read or cleared

	ErrCodeInvalidVariable = "E201"
	ErrCodeInvalidYear     = "E202"
	ErrCodeInvalidRequest  = "E203"
	ErrCodeRetrieval       = "E210"
	ErrCodeDecode          = "E211"
	ErrCodeStorage         = "E212"
	ErrCodeMissingColumn   = "E213"
	ErrCodeColumnCollision = "E214"
	ErrCodeRecode          = "E220" // Scrub recode failed
)

var engineCodes = map[engine.ErrorCode]string{
	engine.ErrCodeInvalidVariable:  ErrCodeInvalidVariable,
	engine.ErrCodeInvalidYear:      ErrCodeInvalidYear,
	engine.ErrCodeInvalidRequest:   ErrCodeInvalidRequest,
	engine.ErrCodeRetrievalFailure: ErrCodeRetrieval,
	engine.ErrCodeDecodeFailure:    ErrCodeDecode,
	engine.ErrCodeStorageFailure:   ErrCodeStorage,
	engine.ErrCodeMissingColumn:    ErrCodeMissingColumn,
	engine.ErrCodeColumnCollision:  ErrCodeColumnCollision,
}

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostic output; keeps datasets and JSON on Writer clean
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E201", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// Text output prints data with fmt; values implementing fmt.Stringer
// control their own rendering.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format. Text errors go to
// ErrWriter so they never mix with a dataset on Writer.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message to ErrWriter only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// fail reports an error through the formatter and returns the matching
// ExitError.
func fail(f *OutputFormatter, exitCode int, code, message string, err error) error {
	var details any
	if err != nil {
		details = err.Error()
	}
	_ = f.Error(code, message, details)
	return WrapExitError(exitCode, fmt.Sprintf("%s: %s", code, message), err)
}

// failAssembly reports an engine error. Request errors exit with
// ExitCommandError, everything else with ExitFailure.
func failAssembly(f *OutputFormatter, err error) error {
	code, ok := engineCodes[engine.CodeOf(err)]
	if !ok {
		code = ErrCodeGeneric
	}
	exit := ExitFailure
	if engine.IsUserError(err) {
		exit = ExitCommandError
	}

	var details any
	var ae *engine.Error
	if errors.As(err, &ae) {
		details = map[string]string{
			"code":     string(ae.Code),
			"year":     ae.Year,
			"file":     ae.File,
			"variable": ae.Variable,
		}
	}
	_ = f.Error(code, err.Error(), details)
	return WrapExitError(exit, code+": assembly failed", err)
}
