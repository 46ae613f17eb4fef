package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pravshot/nhutils/internal/cache"
	"github.com/pravshot/nhutils/internal/catalog"
	"github.com/pravshot/nhutils/internal/store"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached artifacts",
		Long: `Inspect or clear the decoded files cached under the cache directory.

An artifact is reused whenever its file exists; nothing expires. Clear a
cycle to force it to be downloaded again.`,
	}

	cmd.AddCommand(newCacheListCommand(rootOpts))
	cmd.AddCommand(newCacheClearCommand(rootOpts))
	return cmd
}

// CachedFile is one artifact on disk, with its ledger entry when known.
type CachedFile struct {
	Year   string `json:"year"`
	File   string `json:"file"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Rows   int    `json:"rows,omitempty"`
	SHA256 string `json:"sha256,omitempty"`
	RunID  string `json:"run_id,omitempty"`
}

// CachedFiles renders cache listings as a table.
type CachedFiles []CachedFile

func (cf CachedFiles) String() string {
	if len(cf) == 0 {
		return "cache is empty"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "YEAR\tFILE\tSIZE\tROWS\tRUN")
	for _, f := range cf {
		rows, run := "-", "-"
		if f.RunID != "" {
			rows, run = fmt.Sprint(f.Rows), f.RunID
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", f.Year, f.File, f.Size, rows, run)
	}
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// ClearResult summarizes cache clear.
type ClearResult struct {
	Year          string `json:"year,omitempty"`
	FilesRemoved  int    `json:"files_removed"`
	LedgerRemoved int64  `json:"ledger_entries_removed"`
}

func (r ClearResult) String() string {
	scope := "all cycles"
	if r.Year != "" {
		scope = r.Year
	}
	return fmt.Sprintf("Removed %d files and %d ledger entries for %s", r.FilesRemoved, r.LedgerRemoved, scope)
}

func newCacheListCommand(opts *RootOptions) *cobra.Command {
	var year string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			y := catalog.CanonicalYear(year)

			c := cache.New(opts.config.Cache.Dir, nil)
			entries, err := c.Entries(y)
			if err != nil {
				return fail(formatter, ExitCommandError, ErrCodeCache, "cannot list cache", err)
			}

			ledger, err := opts.openLedger(formatter)
			if err != nil {
				return err
			}
			known := make(map[string]store.Artifact)
			if ledger != nil {
				defer ledger.Close()
				artifacts, err := ledger.Artifacts(cmd.Context(), y)
				if err != nil {
					return fail(formatter, ExitFailure, ErrCodeLedger, "cannot read ledger", err)
				}
				for _, a := range artifacts {
					known[a.Year+"/"+cache.ArtifactName(a.File)] = a
				}
			}

			out := CachedFiles{}
			for _, e := range entries {
				f := CachedFile{Year: e.Year, File: e.Name, Path: e.Path, Size: e.Size}
				if a, ok := known[e.Year+"/"+e.Name]; ok {
					f.Rows, f.SHA256, f.RunID = a.Rows, a.SHA256, a.RunID
				}
				out = append(out, f)
			}
			return formatter.Success(out)
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "restrict to one cycle")
	return cmd
}

func newCacheClearCommand(opts *RootOptions) *cobra.Command {
	var year string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached artifacts",
		Long: `Remove cached artifacts and raw downloads, for one cycle with --year
or for every cycle. Matching ledger entries are removed too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			y := catalog.CanonicalYear(year)

			c := cache.New(opts.config.Cache.Dir, nil)
			n, err := c.Clear(y)
			if err != nil {
				return fail(formatter, ExitCommandError, ErrCodeCache, "cannot clear cache", err)
			}
			opts.logger.Info("cache cleared", "dir", c.Dir(), "year", y, "files", n)

			result := ClearResult{Year: y, FilesRemoved: n}
			ledger, err := opts.openLedger(formatter)
			if err != nil {
				return err
			}
			if ledger != nil {
				defer ledger.Close()
				result.LedgerRemoved, err = ledger.DeleteArtifacts(cmd.Context(), y)
				if err != nil {
					return fail(formatter, ExitFailure, ErrCodeLedger, "cannot update ledger", err)
				}
			}
			return formatter.Success(result)
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "restrict to one cycle")
	return cmd
}
