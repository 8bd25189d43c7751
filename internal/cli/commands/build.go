package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cerrors "github.com/dimc-lang/dimc/compiler/errors"
	"github.com/dimc-lang/dimc/internal/cli/config"
	"github.com/dimc-lang/dimc/internal/cli/ui"
	"github.com/dimc-lang/dimc/internal/compiler/pipeline"
	"github.com/dimc-lang/dimc/internal/watch"
)

var (
	buildJSON     bool
	buildOutput   string
	buildPackage  string
	buildRational bool
	buildWatch    bool
)

// NewBuildCommand creates the build command
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [file]",
		Short: "Compile unit definitions to a Go package",
		Long: `Compile a unit definition file and write the generated Go package.

The build process:
  1. Lexical analysis - tokenize the definition file
  2. Parsing - build the syntax tree
  3. Verification - check annotations and declarations
  4. Template expansion - generate prefixed and aliased units
  5. Resolution - compute every dimension and magnitude
  6. Code generation - produce gofmt'ed Go source

Without a file argument the source named in dimc.yml is compiled.`,
		Example: `  # Build the project's definitions
  dimc build

  # Build a specific file into a custom directory
  dimc build defs/si.dim --output pkg/si --package si

  # Output diagnostics as JSON (useful for tooling)
  dimc build --json

  # Allow fractional exponents such as Length^(1/2)
  dimc build --rational

  # Rebuild whenever a definition file or dimc.yml changes
  dimc build --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBuild,
	}

	cmd.Flags().BoolVar(&buildJSON, "json", false, "Output diagnostics in JSON format")
	cmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Output directory (default: build.output_dir)")
	cmd.Flags().StringVar(&buildPackage, "package", "", "Package name of the generated code (default: build.package)")
	cmd.Flags().BoolVar(&buildRational, "rational", false, "Allow rational exponents")
	cmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "Rebuild when definition files change")

	return cmd
}

// buildResult is the JSON report of a successful build
type buildResult struct {
	cerrors.JSONOutput
	OutputDir string   `json:"output_dir"`
	Files     []string `json:"files"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	if !buildWatch {
		return buildProject(cmd, args)
	}
	if buildJSON {
		return errors.New("--watch cannot be combined with --json")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchBuild(ctx, cmd, args)
}

// buildProject compiles the project once and writes the generated package
func buildProject(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	infoColor := color.New(color.FgCyan)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(errOut, ui.ConfigError(err.Error(), color.NoColor))
		return err
	}

	source := cfg.SourcePath()
	if len(args) > 0 {
		source = args[0]
	}
	outputDir := cfg.OutputPath()
	if buildOutput != "" {
		outputDir = buildOutput
	}
	opts := pipeline.Options{
		Package:           cfg.Build.Package,
		RationalExponents: buildRational || cfg.Build.RationalExponents,
	}
	if buildPackage != "" {
		opts.Package = buildPackage
	}

	res, err := compileSource(errOut, pipeline.New(opts, newLogger()), source, !buildJSON)
	if res == nil {
		return err
	}
	if err != nil {
		reportDiagnostics(out, errOut, res.Diagnostics, buildJSON)
		return fmt.Errorf("build failed with %d error(s)", countErrors(res.Diagnostics))
	}

	files, err := writeFiles(errOut, outputDir, res.Files, !buildJSON)
	if err != nil {
		fmt.Fprint(errOut, ui.BuildError(err.Error(), color.NoColor))
		return err
	}

	if buildJSON {
		return writeJSON(out, buildResult{
			JSONOutput: cerrors.NewJSONOutput(res.Diagnostics),
			OutputDir:  outputDir,
			Files:      files,
		})
	}

	for _, d := range res.Diagnostics {
		fmt.Fprint(errOut, d.FormatForTerminal())
	}
	ui.WriteSuccess(out, fmt.Sprintf("Build successful in %.2fs", time.Since(startTime).Seconds()), color.NoColor)
	infoColor.Fprintf(out, "  Package: %s\n", opts.Package)
	infoColor.Fprintf(out, "  Output:  %s\n", outputDir)
	return nil
}

// watchBuild builds once, then rebuilds on every change to a definition
// file or the configuration until ctx is done. Failed builds are reported
// and watching continues.
func watchBuild(ctx context.Context, cmd *cobra.Command, args []string) error {
	errOut := cmd.ErrOrStderr()
	infoColor := color.New(color.FgCyan)
	errorColor := color.New(color.FgRed, color.Bold)

	var mu sync.Mutex
	rebuild := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := buildProject(cmd, args); err != nil {
			errorColor.Fprintf(errOut, "✗ %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(errOut, ui.ConfigError(err.Error(), color.NoColor))
		return err
	}
	source := cfg.SourcePath()
	if len(args) > 0 {
		source = args[0]
	}
	outputDir := cfg.OutputPath()
	if buildOutput != "" {
		outputDir = buildOutput
	}

	dirs := []string{cfg.Dir}
	if dir := filepath.Dir(source); filepath.Clean(dir) != filepath.Clean(cfg.Dir) {
		dirs = append(dirs, dir)
	}

	watcher, err := watch.NewFileWatcher(watch.Options{
		Dirs:     dirs,
		Patterns: append([]string{"*.dim"}, config.FileNames...),
		Ignored:  []string{outputDir},
	}, func(files []string) error {
		infoColor.Fprintf(errOut, "\nChanged: %s\n", strings.Join(files, ", "))
		rebuild()
		return nil
	}, newLogger())
	if err != nil {
		return err
	}

	rebuild()
	if err := watcher.Start(); err != nil {
		return err
	}
	infoColor.Fprintln(errOut, "Watching for changes (press Ctrl+C to stop)")

	<-ctx.Done()
	return watcher.Stop()
}

// compileSource compiles path, showing a spinner on interactive terminals.
// A nil result means the file could not be read.
func compileSource(w io.Writer, compiler *pipeline.Compiler, path string, interactive bool) (*pipeline.Result, error) {
	var res *pipeline.Result
	compile := func() error {
		var err error
		res, err = compiler.CompileFile(path)
		return err
	}

	if !interactive || color.NoColor {
		err := compile()
		return res, err
	}
	err := ui.WithSpinner(w, "Compiling "+path, color.NoColor, compile)
	return res, err
}

// reportDiagnostics renders diagnostics as JSON on out or for the terminal
// on errOut
func reportDiagnostics(out, errOut io.Writer, diagnostics []cerrors.CompilerError, asJSON bool) {
	if asJSON {
		report, err := cerrors.FormatErrorsAsJSON(diagnostics)
		if err != nil {
			fmt.Fprintf(errOut, "failed to encode diagnostics: %v\n", err)
			return
		}
		fmt.Fprintln(out, report)
		return
	}

	warnings := 0
	for _, d := range diagnostics {
		fmt.Fprint(errOut, d.FormatForTerminal())
		if d.IsWarning() {
			warnings++
		}
	}
	fmt.Fprint(errOut, cerrors.FormatSummary(countErrors(diagnostics), warnings))
}

func countErrors(diagnostics []cerrors.CompilerError) int {
	n := 0
	for _, d := range diagnostics {
		if d.IsError() {
			n++
		}
	}
	return n
}

// writeFiles writes the generated files into dir in name order and returns
// their paths
func writeFiles(w io.Writer, dir string, files map[string]string, interactive bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	names := slices.Sorted(maps.Keys(files))
	var bar *ui.ProgressBar
	if interactive {
		bar = ui.NewProgressBar(w, ui.ProgressBarOptions{
			Total:   len(names),
			Message: "Writing generated code",
			NoColor: color.NoColor,
		})
	}

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(files[name]), 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
		if bar != nil {
			bar.Add(1)
		}
	}

	if bar != nil {
		bar.Finish(fmt.Sprintf("Wrote %d file(s)", len(written)))
	}
	return written, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
