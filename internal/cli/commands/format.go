package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dimc-lang/dimc/internal/format"
)

var (
	formatWrite  bool
	formatCheck  bool
	formatConfig string
)

// NewFormatCommand creates the format command
func NewFormatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "format [files...]",
		Aliases: []string{"fmt"},
		Short:   "Format unit definition files",
		Long: `Format unit definition files (.dim) in canonical layout.

By default, shows a diff preview of what would change without modifying files.
Use --write to apply formatting changes, or --check to verify formatting.

Comments and numeric literals are kept as written. Layout options are read
from the format section of dimc.yml:

  format:
    max_blank_lines: 1
    inline_annotations: false`,
		Example: `  dimc format                    # Show diff for all .dim files
  dimc format --write            # Format and save all files
  dimc format --check            # Exit with error if not formatted
  dimc format units.dim          # Format a specific file`,
		RunE: runFormat,
	}

	cmd.Flags().BoolVarP(&formatWrite, "write", "w", false, "Write formatted output to files")
	cmd.Flags().BoolVarP(&formatCheck, "check", "c", false, "Check if files are formatted (exit 1 if not)")
	cmd.Flags().StringVar(&formatConfig, "config", "dimc.yml", "Path to the configuration file holding the format section")

	return cmd
}

func runFormat(cmd *cobra.Command, args []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	config, err := format.LoadConfig(formatConfig)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	files, err := findDefinitionFiles(args)
	if err != nil {
		return fmt.Errorf("failed to find files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no .dim files found")
	}

	hasChanges := false
	errorCount := 0

	titleColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen)
	errorColor := color.New(color.FgRed, color.Bold)

	formatter := format.New(config)
	for _, file := range files {
		original, err := os.ReadFile(file)
		if err != nil {
			errorColor.Fprintf(errOut, "Error reading %s: %v\n", file, err)
			errorCount++
			continue
		}

		formatted, err := formatter.Format(string(original))
		if err != nil {
			errorColor.Fprintf(errOut, "Error formatting %s: %v\n", file, err)
			errorCount++
			continue
		}

		diff := format.Diff(string(original), formatted)
		if !diff.Changed {
			if !formatCheck {
				successColor.Fprintf(out, "✓ %s (no changes)\n", file)
			}
			continue
		}

		hasChanges = true

		switch {
		case formatCheck:
			errorColor.Fprintf(errOut, "✗ %s needs formatting\n", file)
		case formatWrite:
			if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
				errorColor.Fprintf(errOut, "Error writing %s: %v\n", file, err)
				errorCount++
				continue
			}
			successColor.Fprintf(out, "✓ %s formatted\n", file)
		default:
			titleColor.Fprintf(out, "\n=== %s ===\n", file)
			fmt.Fprintln(out, diff.String())
		}
	}

	if !formatWrite && !formatCheck && hasChanges {
		fmt.Fprintln(out)
		titleColor.Fprintln(out, "Run 'dimc format --write' to apply changes")
	}

	if formatCheck && hasChanges {
		return fmt.Errorf("files need formatting")
	}
	if errorCount > 0 {
		return fmt.Errorf("%d file(s) had errors", errorCount)
	}
	return nil
}

// findDefinitionFiles expands files, directories and globs inside the
// working directory into a sorted list of .dim files
func findDefinitionFiles(patterns []string) ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	inside := func(path string) bool {
		abs, err := filepath.Abs(path)
		if err != nil {
			return false
		}
		rel, err := filepath.Rel(cwd, abs)
		return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if filepath.Ext(path) == ".dim" && !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		if !inside(pattern) {
			return nil, fmt.Errorf("path %s is outside working directory", pattern)
		}

		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			err := filepath.WalkDir(pattern, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() && path != pattern && (strings.HasPrefix(d.Name(), ".") || d.Name() == "build") {
					return filepath.SkipDir
				}
				if !d.IsDir() {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if inside(match) {
				add(match)
			}
		}
	}

	slices.Sort(files)
	return files, nil
}
