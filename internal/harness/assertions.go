package harness

import (
	"context"
	"fmt"

	"github.com/pravshot/nhutils/internal/cache"
)

// AssertionError provides detailed context when an assertion fails.
type AssertionError struct {
	Type     string
	Target   string
	Expected any
	Got      any
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s %s: expected %v, got %v", e.Type, e.Target, e.Expected, e.Got)
}

// evaluateAssertion checks one assertion against the final environment.
func evaluateAssertion(ctx context.Context, e *env, result *Result, a Assertion) error {
	switch a.Type {
	case AssertCached:
		return assertCached(e, a, true)
	case AssertNotCached:
		return assertCached(e, a, false)
	case AssertFetchCount:
		return assertFetchCount(e, a)
	case AssertLedgerPhase:
		return assertLedgerPhase(ctx, e, result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertCached(e *env, a Assertion, want bool) error {
	d := cache.Descriptor{Year: a.Year, File: a.File}
	if got := e.cache.Has(d); got != want {
		return &AssertionError{Type: a.Type, Target: d.String(), Expected: want, Got: got}
	}
	return nil
}

func assertFetchCount(e *env, a Assertion) error {
	got := e.fetcher.CallCount(a.Year, a.File)
	if got != a.Count {
		d := cache.Descriptor{Year: a.Year, File: a.File}
		return &AssertionError{Type: a.Type, Target: d.String(), Expected: a.Count, Got: got}
	}
	return nil
}

func assertLedgerPhase(ctx context.Context, e *env, result *Result, a Assertion) error {
	id := result.Steps[a.Run-1].RunID
	run, err := e.ledger.Run(ctx, id)
	if err != nil {
		return fmt.Errorf("ledger_phase: run %s: %w", id, err)
	}
	if run.Phase != a.Phase {
		return &AssertionError{Type: a.Type, Target: id, Expected: a.Phase, Got: run.Phase}
	}
	return nil
}
