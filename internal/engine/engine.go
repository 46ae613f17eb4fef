package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pravshot/nhutils/internal/cache"
	"github.com/pravshot/nhutils/internal/catalog"
	"github.com/pravshot/nhutils/internal/store"
	"github.com/pravshot/nhutils/internal/table"
)

// Loader materializes the decoded table of one file. Implemented by
// *cache.Cache.
type Loader interface {
	Load(ctx context.Context, d cache.Descriptor) (*table.Table, error)
}

// Ledger records runs. Implemented by *store.Store. Ledger failures are
// logged and never fail an assembly.
type Ledger interface {
	BeginRun(ctx context.Context, run store.Run) error
	FinishRun(ctx context.Context, id, phase string, rows int, runErr error) error
}

// Engine assembles multi-cycle datasets from a catalog and a loader.
//
// Thread-safety: an Engine tracks the phase of its current run and is not
// safe for concurrent use. Callers serialize Assemble.
type Engine struct {
	catalog *catalog.Catalog
	loader  Loader
	ledger  Ledger
	runIDs  RunIDGenerator
	logger  *slog.Logger
	now     func() time.Time

	phase Phase
	runID string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLedger records every run in l.
func WithLedger(l Ledger) Option {
	return func(e *Engine) {
		e.ledger = l
	}
}

// WithRunIDs replaces the UUIDv7 run id generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithLogger sets the progress logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over cat that loads files through loader.
func New(cat *catalog.Catalog, loader Loader, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		loader:  loader,
		runIDs:  UUIDv7Generator{},
		logger:  slog.Default(),
		now:     time.Now,
		phase:   PhaseNotStarted,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog requests are validated against.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Phase returns the phase of the current or last run.
func (e *Engine) Phase() Phase {
	return e.phase
}

// LastRunID returns the id of the current or last run, or "" before the
// first run.
func (e *Engine) LastRunID() string {
	return e.runID
}

// Assemble builds the dataset described by req.
//
// The result holds the identifier first, then the requested variables in
// first-appearance order of their files, with the rows of each cycle in
// request order. Requests are validated in full before any file is loaded.
// Artifacts materialized before a failure stay cached.
func (e *Engine) Assemble(ctx context.Context, req Request) (*table.Table, error) {
	start := e.now()
	e.runID = e.runIDs.Generate()
	e.phase = PhaseValidatingRequest
	ctx = cache.ContextWithRunID(ctx, e.runID)
	log := e.logger.With("run", e.runID)

	e.begin(ctx, req, start)

	p, err := normalize(e.catalog, req)
	if err != nil {
		return nil, e.fail(ctx, log, PhaseInvalid, err)
	}
	log.Info("assembling dataset", "variables", p.variables, "years", p.years, "join", p.mode)

	years := make([]*table.Table, 0, len(p.years))
	for _, year := range p.years {
		t, err := e.assembleYear(ctx, log, p, year)
		if err != nil {
			return nil, e.fail(ctx, log, PhaseFailed, err)
		}
		years = append(years, t)
	}

	e.phase = PhaseCombining
	out, err := combine(years, p.key)
	if err != nil {
		return nil, e.fail(ctx, log, PhaseFailed, err)
	}

	e.phase = PhaseDone
	e.finish(ctx, out.Len(), nil)
	log.Info("dataset assembled",
		"rows", out.Len(),
		"columns", len(out.Columns),
		"elapsed", e.now().Sub(start).Round(time.Millisecond))
	return out, nil
}

func (e *Engine) assembleYear(ctx context.Context, log *slog.Logger, p *plan, year string) (*table.Table, error) {
	e.phase = PhaseResolving
	files := resolve(e.catalog, p.variables, year)
	log.Debug("resolved files", "year", year, "files", len(files))

	e.phase = PhaseRetrieving
	tables := make([]*table.Table, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Code: ErrCodeRetrievalFailure, Message: "assembly cancelled", Year: year, File: f.desc.File, Err: err}
		}
		t, err := e.loader.Load(ctx, f.desc)
		if err != nil {
			return nil, loadError(f.desc, err)
		}
		tables[i] = t
	}

	e.phase = PhaseAssembling
	t, err := assembleYear(files, tables, p.key, p.mode)
	if err != nil {
		return nil, err
	}
	log.Info("cycle assembled", "year", year, "files", len(files), "rows", t.Len())
	return t, nil
}

// loadError maps a loader failure onto an error code.
func loadError(d cache.Descriptor, err error) error {
	code := ErrCodeRetrievalFailure
	switch cache.KindOf(err) {
	case cache.KindDecode:
		code = ErrCodeDecodeFailure
	case cache.KindStorage:
		code = ErrCodeStorageFailure
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("cannot load %s", d),
		Year:    d.Year,
		File:    d.File,
		Err:     err,
	}
}

func (e *Engine) fail(ctx context.Context, log *slog.Logger, phase Phase, err error) error {
	e.phase = phase
	e.finish(ctx, 0, err)

	var ae *Error
	if errors.As(err, &ae) {
		log.Error("assembly failed", "phase", phase, "code", ae.Code, "error", err)
	} else {
		log.Error("assembly failed", "phase", phase, "error", err)
	}
	return err
}

func (e *Engine) begin(ctx context.Context, req Request, start time.Time) {
	if e.ledger == nil {
		return
	}
	run := store.Run{
		ID:          e.runID,
		Fingerprint: Fingerprint(req),
		Variables:   req.Variables,
		Years:       req.Years,
		JoinKey:     req.JoinKey,
		JoinMode:    string(req.JoinMode),
		Phase:       string(e.phase),
		StartedAt:   start,
	}
	if err := e.ledger.BeginRun(ctx, run); err != nil {
		e.logger.Warn("failed to record run", "run", e.runID, "error", err)
	}
}

func (e *Engine) finish(ctx context.Context, rows int, runErr error) {
	if e.ledger == nil {
		return
	}
	if err := e.ledger.FinishRun(ctx, e.runID, string(e.phase), rows, runErr); err != nil {
		e.logger.Warn("failed to finish run", "run", e.runID, "error", err)
	}
}
