package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pravshot/nhutils/internal/catalog"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the variable catalog",
		Long: `Inspect the catalog that maps variables to the NHANES file holding
them in each cycle. The built-in catalog is used unless --catalog or
NHUTILS_CATALOG names a catalog file.`,
	}

	cmd.AddCommand(newCatalogYearsCommand(rootOpts))
	cmd.AddCommand(newCatalogVarsCommand(rootOpts))
	cmd.AddCommand(newCatalogLookupCommand(rootOpts))
	return cmd
}

func newCatalogYearsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List supported cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			cat, err := opts.loadCatalog(formatter)
			if err != nil {
				return err
			}
			return formatter.Success(lines(cat.SupportedYears()))
		},
	}
}

func newCatalogVarsCommand(opts *RootOptions) *cobra.Command {
	var year string
	cmd := &cobra.Command{
		Use:   "vars",
		Short: "List supported variables",
		Long: `List every variable of the catalog, or only those available in one
cycle with --year.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			cat, err := opts.loadCatalog(formatter)
			if err != nil {
				return err
			}
			if year == "" {
				return formatter.Success(lines(cat.SupportedVariables()))
			}

			y := catalog.CanonicalYear(year)
			if !cat.HasYear(y) {
				return fail(formatter, ExitCommandError, ErrCodeInvalidYear,
					fmt.Sprintf("%q is not a valid year, valid years are %v", year, cat.SupportedYears()), nil)
			}
			var vars []string
			for _, v := range cat.SupportedVariables() {
				if _, ok := cat.Lookup(y, v); ok || v == cat.Identifier() {
					vars = append(vars, v)
				}
			}
			return formatter.Success(lines(vars))
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "restrict to one cycle")
	return cmd
}

// Location is where one variable lives in one cycle.
type Location struct {
	Variable string `json:"variable"`
	Year     string `json:"year"`
	File     string `json:"file,omitempty"`
}

// Locations renders lookup results as a table.
type Locations []Location

func (ls Locations) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VARIABLE\tYEAR\tFILE")
	for _, l := range ls {
		file := l.File
		if file == "" {
			file = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.Variable, l.Year, file)
	}
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

func newCatalogLookupCommand(opts *RootOptions) *cobra.Command {
	var year string
	cmd := &cobra.Command{
		Use:   "lookup <VAR>...",
		Short: "Show which file holds each variable",
		Long: `Show the file holding each variable in every cycle, or in one cycle
with --year. Cycles lacking the variable show "-".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			cat, err := opts.loadCatalog(formatter)
			if err != nil {
				return err
			}

			years := cat.SupportedYears()
			if year != "" {
				y := catalog.CanonicalYear(year)
				if !cat.HasYear(y) {
					return fail(formatter, ExitCommandError, ErrCodeInvalidYear,
						fmt.Sprintf("%q is not a valid year, valid years are %v", year, years), nil)
				}
				years = []string{y}
			}

			var out Locations
			for _, raw := range args {
				v := catalog.CanonicalName(raw)
				if !cat.HasVariable(v) {
					return fail(formatter, ExitCommandError, ErrCodeInvalidVariable,
						fmt.Sprintf("%q is not a valid variable", raw), nil)
				}
				for _, y := range years {
					file, _ := cat.Lookup(y, v)
					out = append(out, Location{Variable: v, Year: y, File: file})
				}
			}
			return formatter.Success(out)
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "restrict to one cycle")
	return cmd
}

// lines prints one item per line as text and a list as JSON.
type lines []string

func (l lines) String() string {
	return strings.Join(l, "\n")
}
