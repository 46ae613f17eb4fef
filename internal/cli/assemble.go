package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pravshot/nhutils/internal/catalog"
	"github.com/pravshot/nhutils/internal/engine"
	"github.com/pravshot/nhutils/internal/scrub"
	"github.com/pravshot/nhutils/internal/table"
)

// AssembleOptions holds flags for the assemble command.
type AssembleOptions struct {
	*RootOptions
	Variables []string
	Years     []string
	By        string
	Join      string
	Out       string

	// Recode columns per scrub op.
	Recodes map[scrub.Op]*[]string
}

// AssembleResult is the summary printed when the dataset goes to a file.
type AssembleResult struct {
	RunID   string   `json:"run_id"`
	Path    string   `json:"path"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Elapsed string   `json:"elapsed"`
}

func (r AssembleResult) String() string {
	return fmt.Sprintf("Wrote %d rows x %d columns to %s in %s", r.Rows, len(r.Columns), r.Path, r.Elapsed)
}

// NewAssembleCommand creates the assemble command.
func NewAssembleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssembleOptions{
		RootOptions: rootOpts,
		Recodes:     make(map[scrub.Op]*[]string),
	}

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble a dataset from variables and cycles",
		Long: `Assemble one dataset holding SEQN and the requested variables for
every requested cycle.

Files are downloaded on first use and cached under the cache directory;
later runs read the cache. Within a cycle, files are joined on SEQN with
the chosen join mode (outer keeps every respondent). Cycles are stacked
in the order given.

Examples:
  nhutils assemble --vars DIQ010 --years 2015-2016
  nhutils assemble --vars RIDAGEYR,RIAGENDR,DIQ010 --years 2013-2014,2015-2016 \
      --join inner --binary DIQ010 --minus-one RIAGENDR --out diabetes.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Variables, "vars", nil, "variables to include (required)")
	cmd.Flags().StringSliceVar(&opts.Years, "years", nil, "cycles such as 2015-2016 (required)")
	cmd.Flags().StringVar(&opts.By, "by", "", "join key; must be the catalog identifier (SEQN) when set")
	cmd.Flags().StringVar(&opts.Join, "join", string(table.JoinOuter), "join mode within a cycle (inner|outer|left|right)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output CSV file (default stdout)")
	_ = cmd.MarkFlagRequired("vars")
	_ = cmd.MarkFlagRequired("years")

	usage := map[scrub.Op]string{
		scrub.OpBinary:        "recode yes/no columns: 2 becomes 0, 7 and 9 become missing",
		scrub.OpDrop7And9:     "treat 7 and 9 as missing in columns",
		scrub.OpDrop77And99:   "treat 77 and 99 as missing in columns",
		scrub.OpDrop777And999: "treat 777 and 999 as missing in columns",
		scrub.OpMinusOne:      "subtract 1 from columns",
	}
	for _, op := range scrub.Ops {
		cols := new([]string)
		opts.Recodes[op] = cols
		cmd.Flags().StringSliceVar(cols, string(op), nil, usage[op])
	}

	return cmd
}

func runAssemble(opts *AssembleOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	start := time.Now()

	st, err := opts.openStack(formatter)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.logger.Error("error closing ledger", "error", closeErr)
		}
	}()

	out, err := st.engine.Assemble(cmd.Context(), engine.Request{
		Variables: opts.Variables,
		Years:     opts.Years,
		JoinKey:   opts.By,
		JoinMode:  table.JoinMode(opts.Join),
	})
	if err != nil {
		return failAssembly(formatter, err)
	}

	if err := scrub.Apply(out, opts.steps()...); err != nil {
		return fail(formatter, ExitCommandError, ErrCodeRecode, "cannot recode dataset", err)
	}

	var buf bytes.Buffer
	if err := out.WriteCSV(&buf); err != nil {
		return fail(formatter, ExitFailure, ErrCodeWriteFailed, "cannot encode dataset", err)
	}

	if opts.Out == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if dir := filepath.Dir(opts.Out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fail(formatter, ExitFailure, ErrCodeWriteFailed, "cannot create output directory", err)
		}
	}
	if err := os.WriteFile(opts.Out, buf.Bytes(), 0o644); err != nil {
		return fail(formatter, ExitFailure, ErrCodeWriteFailed, fmt.Sprintf("cannot write %s", opts.Out), err)
	}

	return formatter.Success(AssembleResult{
		RunID:   st.engine.LastRunID(),
		Path:    opts.Out,
		Rows:    out.Len(),
		Columns: out.Columns,
		Elapsed: time.Since(start).Round(time.Millisecond).String(),
	})
}

// steps returns the requested recodes in scrub.Ops order.
func (opts *AssembleOptions) steps() []scrub.Step {
	var steps []scrub.Step
	for _, op := range scrub.Ops {
		cols := *opts.Recodes[op]
		if len(cols) == 0 {
			continue
		}
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = catalog.CanonicalName(c)
		}
		steps = append(steps, scrub.Step{Op: op, Columns: names})
	}
	return steps
}
