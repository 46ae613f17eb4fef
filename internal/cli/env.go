package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pravshot/nhutils/internal/cache"
	"github.com/pravshot/nhutils/internal/catalog"
	"github.com/pravshot/nhutils/internal/engine"
	"github.com/pravshot/nhutils/internal/fetch"
	"github.com/pravshot/nhutils/internal/store"
)

// stack is the assembled runtime of a command.
type stack struct {
	catalog *catalog.Catalog
	cache   *cache.Cache
	ledger  *store.Store // nil with --no-ledger
	engine  *engine.Engine
}

func (s *stack) Close() error {
	if s.ledger == nil {
		return nil
	}
	return s.ledger.Close()
}

// loadCatalog returns the configured catalog file or the built-in one.
func (opts *RootOptions) loadCatalog(f *OutputFormatter) (*catalog.Catalog, error) {
	path := opts.config.Source.Catalog
	if path == "" {
		cat, err := catalog.Builtin()
		if err != nil {
			return nil, fail(f, ExitCommandError, ErrCodeCatalog, "built-in catalog is invalid", err)
		}
		return cat, nil
	}

	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fail(f, ExitCommandError, ErrCodeCatalog, fmt.Sprintf("cannot load catalog %s", path), err)
	}
	opts.logger.Debug("catalog loaded", "path", path, "cycles", len(cat.SupportedYears()))
	return cat, nil
}

// openLedger opens the ledger unless disabled. The cache directory is
// created so the default ledger location exists.
func (opts *RootOptions) openLedger(f *OutputFormatter) (*store.Store, error) {
	if opts.NoLedger {
		return nil, nil
	}
	path := opts.config.LedgerPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fail(f, ExitCommandError, ErrCodeLedger, "cannot create ledger directory", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fail(f, ExitCommandError, ErrCodeLedger, fmt.Sprintf("cannot open ledger %s", path), err)
	}
	return st, nil
}

// openStack wires catalog, fetcher, cache, ledger and engine from the
// configuration.
func (opts *RootOptions) openStack(f *OutputFormatter) (*stack, error) {
	cfg := opts.config

	cat, err := opts.loadCatalog(f)
	if err != nil {
		return nil, err
	}
	ledger, err := opts.openLedger(f)
	if err != nil {
		return nil, err
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewHTTPFetcher(
			fetch.WithTimeout(cfg.Source.Timeout),
			fetch.WithUserAgent(cfg.Source.UserAgent),
		)
	}

	cacheOpts := []cache.Option{
		cache.WithBaseURL(cfg.Source.BaseURL),
		cache.WithKeepRaw(cfg.Cache.KeepRaw),
		cache.WithLogger(opts.logger),
	}
	engineOpts := []engine.Option{engine.WithLogger(opts.logger)}
	if ledger != nil {
		cacheOpts = append(cacheOpts, cache.WithRecorder(ledger))
		engineOpts = append(engineOpts, engine.WithLedger(ledger))
	}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDs(opts.RunIDs))
	}

	c := cache.New(cfg.Cache.Dir, fetcher, cacheOpts...)
	return &stack{
		catalog: cat,
		cache:   c,
		ledger:  ledger,
		engine:  engine.New(cat, c, engineOpts...),
	}, nil
}
