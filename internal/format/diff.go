package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// DiffResult represents the difference between original and formatted code
type DiffResult struct {
	Original  string
	Formatted string
	Changed   bool
}

// Diff compares original and formatted code and returns the difference
func Diff(original, formatted string) *DiffResult {
	return &DiffResult{
		Original:  original,
		Formatted: formatted,
		Changed:   original != formatted,
	}
}

// changedLine is a line that differs between the two versions. An empty
// side means the line does not exist there.
type changedLine struct {
	number    int
	original  string
	formatted string
}

// changedLines compares the two versions line by line
func (d *DiffResult) changedLines() []changedLine {
	originalLines := strings.Split(d.Original, "\n")
	formattedLines := strings.Split(d.Formatted, "\n")

	var changes []changedLine
	for i := 0; i < max(len(originalLines), len(formattedLines)); i++ {
		var orig, formatted string
		if i < len(originalLines) {
			orig = originalLines[i]
		}
		if i < len(formattedLines) {
			formatted = formattedLines[i]
		}
		if orig != formatted {
			changes = append(changes, changedLine{number: i + 1, original: orig, formatted: formatted})
		}
	}
	return changes
}

// String returns a human-readable diff with color highlighting
func (d *DiffResult) String() string {
	if !d.Changed {
		return color.GreenString("No changes needed")
	}

	var buf bytes.Buffer
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	for _, c := range d.changedLines() {
		cyan.Fprintf(&buf, "@@ Line %d @@\n", c.number)
		if c.original != "" {
			red.Fprintf(&buf, "- %s\n", c.original)
		}
		if c.formatted != "" {
			green.Fprintf(&buf, "+ %s\n", c.formatted)
		}
	}

	return buf.String()
}

// UnifiedDiff returns a unified diff format string
func (d *DiffResult) UnifiedDiff(filename string) string {
	if !d.Changed {
		return ""
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- a/%s\n", filename)
	fmt.Fprintf(&buf, "+++ b/%s\n", filename)

	for _, c := range d.changedLines() {
		fmt.Fprintf(&buf, "@@ -%d +%d @@\n", c.number, c.number)
		if c.original != "" {
			fmt.Fprintf(&buf, "-%s\n", c.original)
		}
		if c.formatted != "" {
			fmt.Fprintf(&buf, "+%s\n", c.formatted)
		}
	}

	return buf.String()
}
