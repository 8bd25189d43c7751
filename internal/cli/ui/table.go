// Package ui renders tables, messages and progress indicators for the dimc
// command line.
package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under a bold header with a rule beneath it
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// TableOptions configures table behavior
type TableOptions struct {
	NoColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, headers []string, opts *TableOptions) *Table {
	t := &Table{writer: w, headers: headers}
	if opts != nil {
		t.noColor = opts.NoColor
	}
	return t
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Render renders the table to the writer
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = width(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], width(cell))
			}
		}
	}

	header := color.New(color.Bold, color.FgCyan)
	rule := color.New(color.FgHiBlack)
	if t.noColor {
		header.DisableColor()
		rule.DisableColor()
	}

	cells := make([]string, len(t.headers))
	for i, h := range t.headers {
		cells[i] = header.Sprint(padRight(h, widths[i]))
	}
	t.writeLine(cells)

	for i, w := range widths {
		cells[i] = rule.Sprint(strings.Repeat("─", w))
	}
	t.writeLine(cells)

	for _, row := range t.rows {
		cells := make([]string, 0, len(widths))
		for i, cell := range row {
			if i < len(widths) {
				cells = append(cells, padRight(cell, widths[i]))
			}
		}
		t.writeLine(cells)
	}
}

func (t *Table) writeLine(cells []string) {
	fmt.Fprintln(t.writer, strings.TrimRight(strings.Join(cells, "  "), " "))
}

func width(s string) int {
	return utf8.RuneCountInString(s)
}

// padRight pads a string with spaces on the right to reach the target width
func padRight(s string, w int) string {
	if n := width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

// KeyValueTable renders aligned "key: value" lines
type KeyValueTable struct {
	writer  io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates a new key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair to the table
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

// Render renders the key-value table
func (t *KeyValueTable) Render() {
	keyWidth := 0
	for _, k := range t.keys {
		keyWidth = max(keyWidth, width(k)+1)
	}

	cyan := color.New(color.FgCyan)
	if t.noColor {
		cyan.DisableColor()
	}
	for i, k := range t.keys {
		cyan.Fprint(t.writer, padRight(k+":", keyWidth))
		fmt.Fprintf(t.writer, " %s\n", t.values[i])
	}
}
