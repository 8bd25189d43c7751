package errors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"
)

var (
	gutterColor  = color.New(color.FgBlue)
	contextColor = color.New(color.FgHiBlack)
	markerColor  = color.New(color.FgRed, color.Bold)
	arrowColor   = color.New(color.FgCyan)
	helpColor    = color.New(color.FgCyan, color.Bold)
	boldColor    = color.New(color.Bold)
)

func severityColor(s Severity) *color.Color {
	switch s {
	case Info:
		return color.New(color.FgBlue, color.Bold)
	case Warning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

// FormatForTerminal renders the error the way rustc does: header, location
// arrow, source excerpt with a caret marker, then help and related notes.
func (e CompilerError) FormatForTerminal() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s: %s\n",
		severityColor(e.Severity).Sprintf("%s[%s]", e.Severity, e.Code),
		boldColor.Sprint(e.Message))
	fmt.Fprintf(&sb, "  %s %s\n", arrowColor.Sprint("-->"), e.Location)

	if len(e.Context.SourceLines) > 0 {
		sb.WriteString(formatSourceContext(e.Context))
	}

	if e.Suggestion != nil {
		sb.WriteString(formatSuggestion(*e.Suggestion))
	}

	for _, related := range e.RelatedErrors {
		fmt.Fprintf(&sb, "  %s %s: %s\n", arrowColor.Sprint("note:"), related.Location, related.Message)
	}

	return sb.String()
}

func formatSourceContext(ctx ErrorContext) string {
	var sb strings.Builder

	last := ctx.FirstLine + len(ctx.SourceLines) - 1
	width := len(fmt.Sprint(last))
	blank := strings.Repeat(" ", width)

	writeRow(&sb, blank, "")
	for i, line := range ctx.SourceLines {
		number := fmt.Sprintf("%*d", width, ctx.FirstLine+i)
		if i != ctx.Highlight.Line {
			writeRow(&sb, contextColor.Sprint(number), line)
			continue
		}

		writeRow(&sb, gutterColor.Sprint(number), line)
		length := max(1, ctx.Highlight.End-ctx.Highlight.Start)
		writeRow(&sb, blank, strings.Repeat(" ", ctx.Highlight.Start)+markerColor.Sprint(strings.Repeat("^", length)))
	}
	writeRow(&sb, blank, "")

	return sb.String()
}

// writeRow writes " <gutter> | <text>" without trailing blanks.
func writeRow(sb *strings.Builder, gutter, text string) {
	fmt.Fprintf(sb, " %s %s", gutter, gutterColor.Sprint("|"))
	if text != "" {
		sb.WriteString(" " + text)
	}
	sb.WriteString("\n")
}

func formatSuggestion(suggestion FixSuggestion) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "  %s %s\n", helpColor.Sprint("help:"), suggestion.Description)
	if suggestion.NewCode != "" {
		for _, line := range strings.Split(suggestion.NewCode, "\n") {
			fmt.Fprintf(&sb, "      %s\n", line)
		}
	}
	return sb.String()
}

// FormatSummary formats the closing line of a failed compilation.
func FormatSummary(errorCount, warningCount int) string {
	var parts []string
	if errorCount > 0 {
		parts = append(parts, color.New(color.FgRed).Sprintf("%d error(s)", errorCount))
	}
	if warningCount > 0 {
		parts = append(parts, color.New(color.FgYellow).Sprintf("%d warning(s)", warningCount))
	}
	if len(parts) == 0 {
		return "No errors or warnings\n"
	}
	return fmt.Sprintf("\n%s %s\n", boldColor.Sprint("Compilation failed with"), strings.Join(parts, " and "))
}

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

// StripColors removes ANSI colour codes from s.
func StripColors(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}
