package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pravshot/nhutils/internal/cache"
	"github.com/pravshot/nhutils/internal/catalog"
	"github.com/pravshot/nhutils/internal/engine"
	"github.com/pravshot/nhutils/internal/logging"
	"github.com/pravshot/nhutils/internal/store"
	"github.com/pravshot/nhutils/internal/testutil"
)

// env is the in-process stack a scenario runs against.
type env struct {
	dir     string
	fetcher *testutil.FakeFetcher
	cache   *cache.Cache
	ledger  *store.Store
	engine  *engine.Engine
}

// Run executes a scenario against a fresh cache and ledger.
// Returns an error only if the environment cannot be set up; mismatches
// are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	e, err := newEnv(scenario)
	if err != nil {
		return nil, err
	}
	defer e.close()

	ctx := context.Background()
	result := &Result{Pass: true}

	for i, step := range scenario.Steps {
		before := e.cache.Stats().Fetches
		ds, err := e.engine.Assemble(ctx, step.Request.engineRequest())

		sr := StepResult{
			RunID:   e.engine.LastRunID(),
			Phase:   string(e.engine.Phase()),
			Code:    string(engine.CodeOf(err)),
			Err:     err,
			Fetches: e.cache.Stats().Fetches - before,
		}
		if ds != nil {
			sr.Columns = ds.Columns
			sr.Rows = ds.Len()
			result.Dataset = ds
		}
		result.Steps = append(result.Steps, sr)

		for _, msg := range checkStep(step.Expect, sr) {
			result.Errors = append(result.Errors, fmt.Sprintf("steps[%d]: %s", i, msg))
		}
	}

	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(ctx, e, result, a); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	result.Pass = len(result.Errors) == 0
	return result, nil
}

func newEnv(s *Scenario) (*env, error) {
	cat, err := catalog.New(s.Identifier, s.Catalog)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	dir, err := os.MkdirTemp("", "nhutils-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	ledger, err := store.Open(filepath.Join(dir, "ledger.db"))
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	fetcher := testutil.NewFakeFetcher("")
	for _, f := range s.Files {
		switch {
		case f.Fail != "":
			fetcher.FailFile(f.Year, f.File, errors.New(f.Fail))
		case f.Raw != "":
			fetcher.ServeFile(f.Year, f.File, []byte(f.Raw))
		default:
			fetcher.ServeFile(f.Year, f.File, testutil.EncodeXPT(f.File, f.Columns, f.Rows...))
		}
	}

	logger := logging.Discard()
	c := cache.New(filepath.Join(dir, "downloaded"), fetcher,
		cache.WithRecorder(ledger),
		cache.WithLogger(logger),
	)
	eng := engine.New(cat, c,
		engine.WithLedger(ledger),
		engine.WithRunIDs(testutil.NewSequentialRunIDs("")),
		engine.WithLogger(logger),
	)

	return &env{dir: dir, fetcher: fetcher, cache: c, ledger: ledger, engine: eng}, nil
}

func (e *env) close() {
	e.ledger.Close()
	os.RemoveAll(e.dir)
}

// checkStep compares an observed step outcome with its expectation.
func checkStep(want Expect, got StepResult) []string {
	var errs []string

	phase := want.Phase
	if phase == "" {
		phase = string(engine.PhaseDone)
	}
	if got.Phase != phase {
		errs = append(errs, fmt.Sprintf("phase: expected %s, got %s (err: %v)", phase, got.Phase, got.Err))
	}
	if want.Error != got.Code {
		errs = append(errs, fmt.Sprintf("error: expected %q, got %q", want.Error, got.Code))
	}
	if want.Columns != nil && !slices.Equal(want.Columns, got.Columns) {
		errs = append(errs, fmt.Sprintf("columns: expected %v, got %v", want.Columns, got.Columns))
	}
	if want.Rows != nil && *want.Rows != got.Rows {
		errs = append(errs, fmt.Sprintf("rows: expected %d, got %d", *want.Rows, got.Rows))
	}
	if want.Fetches != nil && *want.Fetches != got.Fetches {
		errs = append(errs, fmt.Sprintf("fetches: expected %d, got %d", *want.Fetches, got.Fetches))
	}
	return errs
}
