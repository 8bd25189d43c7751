package ui

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

func TestTable(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	table := NewTable(&buf, []string{"Unit", "Symbol", "Magnitude"}, &TableOptions{NoColor: true})
	table.AddRow("meters", "m", "1")
	table.AddRow("kilometers", "km", "1000")
	table.AddRow("micrometers", "μm", "1e-06")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected header, rule and 3 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Unit         Symbol  Magnitude" {
		t.Errorf("Unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "───────────  ──────") {
		t.Errorf("Unexpected rule %q", lines[1])
	}
	if lines[4] != "micrometers  μm      1e-06" {
		t.Errorf("Expected multi-byte symbols to align by rune, got %q", lines[4])
	}
	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, nil, nil).Render()
	if buf.Len() != 0 {
		t.Errorf("Expected no output for a table without headers, got %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Dimensions", "3")
	kv.AddRow("Units", "12")
	kv.Render()

	want := "Dimensions: 3\nUnits:      12\n"
	if buf.String() != want {
		t.Errorf("Render() = %q, want %q", buf.String(), want)
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"meters", "seconds", "kilometers", "Length"}

	tests := []struct {
		target string
		opts   *FuzzyMatchOptions
		want   []string
	}{
		{"metres", nil, []string{"meters"}},
		{"length", nil, []string{"Length"}},
		{"length", &FuzzyMatchOptions{CaseSensitive: true, MaxDistance: 0}, []string{"Length"}},
		{"lenght", &FuzzyMatchOptions{CaseSensitive: true, MaxDistance: 1}, nil},
		{"furlongs", nil, []string{}},
		{"meter", &FuzzyMatchOptions{MaxSuggestions: 1}, []string{"meters"}},
	}
	for _, tt := range tests {
		got := FindSimilar(tt.target, candidates, tt.opts)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FindSimilar(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestFormatError(t *testing.T) {
	out := NameNotFoundError("metres", []string{"meters"}, true)

	for _, want := range []string{
		"NAME NOT FOUND: METRES",
		"No dimension, unit or constant named 'metres'.",
		"Did you mean: meters?",
		"→ List everything: dimc check",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}

	if out := FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: "no units", NoColor: true}); out != "⚠️ no units\n" {
		t.Errorf("Unexpected warning %q", out)
	}
}

func TestWithSpinner(t *testing.T) {
	var buf bytes.Buffer
	err := WithSpinner(&buf, "Resolving", true, func() error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "✓ Resolving\n") {
		t.Errorf("Expected a success line, got %q", buf.String())
	}

	buf.Reset()
	want := errors.New("boom")
	if err := WithSpinner(&buf, "Resolving", true, func() error { return want }); err != want {
		t.Errorf("Expected the callback error, got %v", err)
	}
	if !strings.Contains(buf.String(), "❌ Resolving failed") {
		t.Errorf("Expected a failure line, got %q", buf.String())
	}
}

func TestSpinner_StopIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, SpinnerOptions{Message: "x", NoColor: true, Interval: time.Millisecond})
	s.Stop()
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, ProgressBarOptions{Total: 4, Width: 4, Message: "writing", NoColor: true})

	bar.Add(1)
	if !strings.Contains(buf.String(), "[█░░░]  25% writing") {
		t.Errorf("Unexpected progress %q", buf.String())
	}

	bar.Add(10)
	bar.Finish("Wrote 4 files")
	out := buf.String()
	if !strings.Contains(out, "[████] 100% writing") {
		t.Errorf("Expected progress to cap at 100%%, got %q", out)
	}
	if !strings.HasSuffix(out, "✓ Wrote 4 files\n") {
		t.Errorf("Expected a success line, got %q", out)
	}
}
