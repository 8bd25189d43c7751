package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ NAME NOT FOUND: metres
//	   No dimension, unit or constant named 'metres'.
//
//	   Did you mean: meters?
//
//	   → List everything: dimc check
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "⚠️"
	case ErrorLevelInfo:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "ℹ️"
	default:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "❌"
	}
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if opts.NoColor {
		for _, c := range []*color.Color{header, body, yellow, cyan} {
			c.DisableColor()
		}
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(opts.Context))
		body.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// NameNotFoundError reports a lookup of an undeclared definition
func NameNotFoundError(name string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:     "name not found: " + name,
		Problem:     fmt.Sprintf("No dimension, unit or constant named '%s'.", name),
		Suggestions: suggestions,
		HelpCommands: []string{
			"List everything: dimc check",
		},
		NoColor: noColor,
	})
}

// BuildError reports a failed build
func BuildError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context: "build failed",
		Problem: message,
		HelpCommands: []string{
			"Check definitions: dimc check",
			"Get help: dimc build --help",
		},
		NoColor: noColor,
	})
}

// ConfigError reports an invalid configuration
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context: "configuration error",
		Problem: message,
		HelpCommands: []string{
			"View config: cat dimc.yml",
			"Get help: dimc --help",
		},
		NoColor: noColor,
	})
}
