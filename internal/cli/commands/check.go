package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dimc-lang/dimc/internal/cli/config"
	"github.com/dimc-lang/dimc/internal/cli/ui"
	"github.com/dimc-lang/dimc/internal/compiler/defs"
	"github.com/dimc-lang/dimc/internal/compiler/dimension"
	"github.com/dimc-lang/dimc/internal/compiler/pipeline"
)

var (
	checkFormat   string
	checkFile     string
	checkRational bool
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [name...]",
		Short: "Resolve definitions and print the resolved table",
		Long: `Resolve the project's definitions without generating code and print
every dimension, unit and constant with its dimension and magnitude.

Names given as arguments restrict the output to those definitions.`,
		Example: `  # Print everything
  dimc check

  # Inspect a few units
  dimc check kilometers hours

  # Machine-readable output
  dimc check --format json
  dimc check --format yaml`,
		RunE: runCheck,
	}

	cmd.Flags().StringVarP(&checkFormat, "format", "f", "table", "Output format (table, json, yaml)")
	cmd.Flags().StringVar(&checkFile, "file", "", "Definition file (default: source from dimc.yml)")
	cmd.Flags().BoolVar(&checkRational, "rational", false, "Allow rational exponents")

	return cmd
}

type checkReport struct {
	QuantityType   string         `json:"quantity_type" yaml:"quantity_type"`
	DimensionType  string         `json:"dimension_type" yaml:"dimension_type"`
	BaseDimensions []string       `json:"base_dimensions" yaml:"base_dimensions"`
	Dimensions     []dimensionRow `json:"dimensions" yaml:"dimensions"`
	Units          []unitRow      `json:"units" yaml:"units"`
	Constants      []constantRow  `json:"constants" yaml:"constants"`
}

type dimensionRow struct {
	Name      string `json:"name" yaml:"name"`
	Dimension string `json:"dimension" yaml:"dimension"`
	Base      bool   `json:"base" yaml:"base"`
}

type unitRow struct {
	Name              string  `json:"name" yaml:"name"`
	Symbol            string  `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Dimension         string  `json:"dimension" yaml:"dimension"`
	Magnitude         float64 `json:"magnitude" yaml:"magnitude"`
	Base              bool    `json:"base" yaml:"base"`
	AutogeneratedFrom string  `json:"autogenerated_from,omitempty" yaml:"autogenerated_from,omitempty"`
}

type constantRow struct {
	Name      string  `json:"name" yaml:"name"`
	Dimension string  `json:"dimension" yaml:"dimension"`
	Value     float64 `json:"value" yaml:"value"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	switch checkFormat {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (expected table, json or yaml)", checkFormat)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(errOut, ui.ConfigError(err.Error(), color.NoColor))
		return err
	}
	source := cfg.SourcePath()
	if checkFile != "" {
		source = checkFile
	}

	compiler := pipeline.New(pipeline.Options{
		RationalExponents: checkRational || cfg.Build.RationalExponents,
		SkipCodegen:       true,
	}, newLogger())

	res, err := compileSource(errOut, compiler, source, checkFormat == "table")
	if res == nil {
		return err
	}
	if err != nil {
		reportDiagnostics(out, errOut, res.Diagnostics, checkFormat != "table")
		return fmt.Errorf("check failed with %d error(s)", countErrors(res.Diagnostics))
	}

	report := newCheckReport(res.Resolved)
	if len(args) > 0 {
		var missing []string
		report, missing = report.filter(args)
		for _, name := range missing {
			fmt.Fprint(errOut, ui.NameNotFoundError(name, ui.FindSimilar(name, declaredNames(res.Resolved), nil), color.NoColor))
		}
		if len(missing) > 0 {
			return fmt.Errorf("unknown name(s): %s", strings.Join(missing, ", "))
		}
	}

	switch checkFormat {
	case "json":
		return writeJSON(out, report)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	}

	for _, d := range res.Diagnostics {
		fmt.Fprint(errOut, d.FormatForTerminal())
	}
	report.render(out, color.NoColor)
	return nil
}

func newCheckReport(r *defs.ResolvedDefs) checkReport {
	report := checkReport{
		QuantityType:   r.QuantityType.Name,
		DimensionType:  r.DimensionType.Name,
		BaseDimensions: r.BaseDimensions(),
		Dimensions:     make([]dimensionRow, 0, len(r.Dimensions)),
		Units:          make([]unitRow, 0, len(r.Units)),
		Constants:      make([]constantRow, 0, len(r.Constants)),
	}

	for _, d := range r.Dimensions {
		report.Dimensions = append(report.Dimensions, dimensionRow{
			Name:      d.Name.Name,
			Dimension: r.FormatVector(d.Vector),
			Base:      d.IsBase,
		})
	}
	for _, u := range r.Units {
		row := unitRow{
			Name:      u.Name.Name,
			Dimension: dimensionName(r, u.Vector),
			Magnitude: u.Magnitude,
			Base:      u.IsBaseUnit,
		}
		if u.Symbol != nil {
			row.Symbol = u.Symbol.Text
		}
		if u.AutogeneratedFrom != nil {
			row.AutogeneratedFrom = u.AutogeneratedFrom.Name
		}
		report.Units = append(report.Units, row)
	}
	for _, c := range r.Constants {
		report.Constants = append(report.Constants, constantRow{
			Name:      c.Name.Name,
			Dimension: dimensionName(r, c.Vector),
			Value:     c.Magnitude,
		})
	}
	return report
}

// dimensionName prefers a declared dimension over the formatted vector
func dimensionName(r *defs.ResolvedDefs, v dimension.Vector) string {
	if d, ok := r.DimensionOf(v); ok {
		return d.Name.Name
	}
	return r.FormatVector(v)
}

// filter keeps the rows named in names and returns the names matching none
func (c checkReport) filter(names []string) (checkReport, []string) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = false
	}

	filtered := c
	filtered.Dimensions = filterRows(c.Dimensions, wanted, func(d dimensionRow) string { return d.Name })
	filtered.Units = filterRows(c.Units, wanted, func(u unitRow) string { return u.Name })
	filtered.Constants = filterRows(c.Constants, wanted, func(k constantRow) string { return k.Name })

	var missing []string
	for _, n := range names {
		if !wanted[n] {
			missing = append(missing, n)
		}
	}
	return filtered, missing
}

func filterRows[T any](rows []T, wanted map[string]bool, name func(T) string) []T {
	out := make([]T, 0)
	for _, row := range rows {
		if _, ok := wanted[name(row)]; ok {
			wanted[name(row)] = true
			out = append(out, row)
		}
	}
	return out
}

// names lists every declared name of r, used for suggestions
func declaredNames(r *defs.ResolvedDefs) []string {
	names := make([]string, 0, len(r.Dimensions)+len(r.Units)+len(r.Constants))
	for _, d := range r.Dimensions {
		names = append(names, d.Name.Name)
	}
	for _, u := range r.Units {
		names = append(names, u.Name.Name)
	}
	for _, k := range r.Constants {
		names = append(names, k.Name.Name)
	}
	return names
}

func (c checkReport) render(w io.Writer, noColor bool) {
	summary := ui.NewKeyValueTable(w, noColor)
	summary.AddRow("Quantity type", c.QuantityType)
	summary.AddRow("Dimension type", c.DimensionType)
	summary.AddRow("Base dimensions", strings.Join(c.BaseDimensions, ", "))
	summary.Render()

	opts := &ui.TableOptions{NoColor: noColor}
	if len(c.Dimensions) > 0 {
		fmt.Fprintln(w)
		table := ui.NewTable(w, []string{"Dimension", "Exponents", "Base"}, opts)
		for _, d := range c.Dimensions {
			table.AddRow(d.Name, d.Dimension, yesNo(d.Base))
		}
		table.Render()
	}

	if len(c.Units) > 0 {
		fmt.Fprintln(w)
		table := ui.NewTable(w, []string{"Unit", "Symbol", "Dimension", "Magnitude", "Generated from"}, opts)
		for _, u := range c.Units {
			table.AddRow(u.Name, u.Symbol, u.Dimension, formatFloat(u.Magnitude), u.AutogeneratedFrom)
		}
		table.Render()
	}

	if len(c.Constants) > 0 {
		fmt.Fprintln(w)
		table := ui.NewTable(w, []string{"Constant", "Dimension", "Value"}, opts)
		for _, k := range c.Constants {
			table.AddRow(k.Name, k.Dimension, formatFloat(k.Value))
		}
		table.Render()
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
