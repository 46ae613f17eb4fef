package harness

import "github.com/pravshot/nhutils/internal/table"

// Result contains the outcome of running a scenario.
type Result struct {
	// Pass is true if every step matched its expectation and every
	// assertion passed.
	Pass bool

	// Errors lists every mismatch and failed assertion.
	Errors []string

	// Steps holds the outcome of each step in order.
	Steps []StepResult

	// Dataset is the table produced by the last successful step, or nil.
	Dataset *table.Table
}

// StepResult is the observed outcome of one step.
type StepResult struct {
	RunID   string
	Phase   string
	Code    string
	Err     error
	Columns []string
	Rows    int
	Fetches int
}
