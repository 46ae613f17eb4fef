package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pravshot/nhutils/internal/config"
	"github.com/pravshot/nhutils/internal/engine"
	"github.com/pravshot/nhutils/internal/fetch"
	"github.com/pravshot/nhutils/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Overrides of the environment configuration. Empty means unset.
	CacheDir string
	Catalog  string
	BaseURL  string
	Ledger   string
	NoLedger bool

	// Fetcher replaces the HTTP fetcher (for testing).
	Fetcher fetch.Fetcher

	// RunIDs replaces the UUIDv7 run id generator (for testing).
	RunIDs engine.RunIDGenerator

	// Set by PersistentPreRunE.
	config *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the nhutils CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nhutils",
		Short: "nhutils - NHANES dataset assembly",
		Long: `Assemble analysis-ready NHANES datasets.

Name the variables and survey cycles you want; nhutils finds the files
that hold them, downloads and caches each file once, joins the files of
every cycle on the respondent sequence number (SEQN) and stacks the
cycles into one CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.CacheDir, "cache-dir", "", "cache directory (default $NHUTILS_CACHE_DIR or ./downloaded)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "catalog file (.yaml, .json or .cue); built-in when empty")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "NHANES download root")
	cmd.PersistentFlags().StringVar(&opts.Ledger, "ledger", "", "ledger database (default <cache-dir>/ledger.db)")
	cmd.PersistentFlags().BoolVar(&opts.NoLedger, "no-ledger", false, "do not record runs and artifacts")

	cmd.AddCommand(NewAssembleCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// setup loads configuration, applies flag overrides and configures logging.
func (opts *RootOptions) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": invalid .env", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": invalid configuration", err)
	}

	if opts.CacheDir != "" {
		cfg.Cache.Dir = opts.CacheDir
	}
	if opts.Catalog != "" {
		cfg.Source.Catalog = opts.Catalog
	}
	if opts.BaseURL != "" {
		cfg.Source.BaseURL = opts.BaseURL
	}
	if opts.Ledger != "" {
		cfg.Cache.Ledger = opts.Ledger
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	opts.config = cfg
	opts.logger = logging.Setup(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	return nil
}

func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
