package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pravshot/nhutils/internal/engine"
	"github.com/pravshot/nhutils/internal/table"
)

// Scenario defines an assembly scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Identifier is the subject identifier (default SEQN).
	Identifier string `yaml:"identifier,omitempty"`

	// Catalog maps cycle -> file -> variables.
	Catalog map[string]map[string][]string `yaml:"catalog"`

	// Files are the payloads the fake server holds.
	Files []File `yaml:"files"`

	// Steps are assembly requests run in order on one cache.
	Steps []Step `yaml:"steps"`

	// Assertions validate the cache and ledger after all steps.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// File is one payload served for (Year, File).
type File struct {
	Year string `yaml:"year"`
	File string `yaml:"file"`

	// Columns and Rows are encoded as an XPT transport file.
	// A column is numeric when every non-empty cell parses as a number.
	Columns []string   `yaml:"columns,omitempty"`
	Rows    [][]string `yaml:"rows,omitempty"`

	// Raw is served verbatim instead of an encoded file.
	Raw string `yaml:"raw,omitempty"`

	// Fail makes the download fail with this message.
	Fail string `yaml:"fail,omitempty"`
}

// Step is one assembly request and its expected outcome.
type Step struct {
	Request Request `yaml:"request"`
	Expect  Expect  `yaml:"expect"`
}

// Request mirrors engine.Request in YAML form.
type Request struct {
	Vars  []string `yaml:"vars"`
	Years []string `yaml:"years"`
	By    string   `yaml:"by,omitempty"`
	Join  string   `yaml:"join,omitempty"`
}

func (r Request) engineRequest() engine.Request {
	return engine.Request{
		Variables: r.Vars,
		Years:     r.Years,
		JoinKey:   r.By,
		JoinMode:  table.JoinMode(r.Join),
	}
}

// Expect specifies the outcome of a step. Zero fields are not checked,
// except Phase which defaults to Done.
type Expect struct {
	// Phase is the final engine phase (Done, Invalid or Failed).
	Phase string `yaml:"phase,omitempty"`

	// Error is the expected error code, such as INVALID_VARIABLE.
	Error string `yaml:"error,omitempty"`

	// Columns is the exact column list of the dataset.
	Columns []string `yaml:"columns,omitempty"`

	// Rows is the expected row count.
	Rows *int `yaml:"rows,omitempty"`

	// Fetches is the number of downloads made by this step.
	Fetches *int `yaml:"fetches,omitempty"`
}

// Assertion validates the cache or ledger after all steps.
type Assertion struct {
	// Type is one of cached, not_cached, fetch_count, ledger_phase.
	Type string `yaml:"type"`

	// Year and File select an artifact (cached, not_cached, fetch_count).
	Year string `yaml:"year,omitempty"`
	File string `yaml:"file,omitempty"`

	// Count is the expected number of downloads (fetch_count).
	Count int `yaml:"count,omitempty"`

	// Run is the 1-based step number and Phase its recorded phase
	// (ledger_phase).
	Run   int    `yaml:"run,omitempty"`
	Phase string `yaml:"phase,omitempty"`
}

// Assertion type constants.
const (
	AssertCached      = "cached"
	AssertNotCached   = "not_cached"
	AssertFetchCount  = "fetch_count"
	AssertLedgerPhase = "ledger_phase"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields so typos like "assertion:" fail loudly
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Catalog) == 0 {
		return fmt.Errorf("catalog is required and must be non-empty")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, f := range s.Files {
		if f.Year == "" || f.File == "" {
			return fmt.Errorf("files[%d]: year and file are required", i)
		}
		if f.Raw == "" && f.Fail == "" && len(f.Columns) == 0 {
			return fmt.Errorf("files[%d]: one of columns, raw or fail is required", i)
		}
		for j, row := range f.Rows {
			if len(row) != len(f.Columns) {
				return fmt.Errorf("files[%d].rows[%d]: got %d cells, want %d", i, j, len(row), len(f.Columns))
			}
		}
	}

	for i, step := range s.Steps {
		if len(step.Request.Vars) == 0 && step.Expect.Error == "" {
			return fmt.Errorf("steps[%d]: request.vars is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, len(s.Steps)); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCached, AssertNotCached:
		if a.Year == "" || a.File == "" {
			return fmt.Errorf("assertions[%d]: year and file are required for %s", index, a.Type)
		}
	case AssertFetchCount:
		if a.Year == "" || a.File == "" {
			return fmt.Errorf("assertions[%d]: year and file are required for fetch_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for fetch_count", index)
		}
	case AssertLedgerPhase:
		if a.Run < 1 || a.Run > steps {
			return fmt.Errorf("assertions[%d]: run must be between 1 and %d for ledger_phase", index, steps)
		}
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for ledger_phase", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
