package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

var (
	rootVerbose bool
	rootNoColor bool
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dimc",
		Short: "Unit definition compiler and tooling",
		Long: color.CyanString(`dimc - compile unit definitions into type-safe Go

dimc reads a file of dimension, unit and constant declarations, checks that
every definition is dimensionally consistent and generates a Go package of
quantities, units and constants.

Features:
  • Base and derived dimensions with integer or rational exponents
  • Metric and binary prefixes, aliases and symbols
  • Physical constants checked against their declared dimension
  • Diagnostics as terminal output or JSON
  • Language server for editor integration`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if rootNoColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Log each compiler phase")
	rootCmd.PersistentFlags().BoolVar(&rootNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewNewCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewFormatCommand())
	rootCmd.AddCommand(NewLSPCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the dimc version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(out, "dimc version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// newLogger returns a development logger in verbose mode and a no-op
// logger otherwise
func newLogger() *zap.Logger {
	if !rootVerbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
