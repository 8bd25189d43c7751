package format

import (
	"os"
	"path/filepath"
	"testing"
)

func formatSource(t *testing.T, config *Config, input string) string {
	t.Helper()
	result, err := New(config).Format(input)
	if err != nil {
		t.Fatalf("Formatting failed: %v", err)
	}
	return result
}

func TestFormatterDeclarations(t *testing.T) {
	input := `dimension   Length
dimension Time
dimension Velocity=Length/Time


@base(Length)   @symbol(m)
@prefix( kilo ,milli)
unit meters
@base(Time) @symbol("s") unit seconds
unit hours=3600*seconds
constant c : Velocity = 299792458*meters/seconds`

	expected := `dimension Length
dimension Time
dimension Velocity = Length / Time

@base(Length) @symbol(m) @prefix(kilo, milli)
unit meters
@base(Time) @symbol("s")
unit seconds
unit hours = 3600 * seconds
constant c: Velocity = 299792458 * meters / seconds
`

	if result := formatSource(t, nil, input); result != expected {
		t.Errorf("Format mismatch.\nExpected:\n%s\nGot:\n%s", expected, result)
	}
}

func TestFormatterComments(t *testing.T) {
	input := `# Base dimensions
dimension  Length   # the first
dimension Time

// units
@base(Length)  # meter annotations
unit meters
# trailing file comment
`

	expected := `# Base dimensions
dimension Length # the first
dimension Time

// units
@base(Length) # meter annotations
unit meters
# trailing file comment
`

	if result := formatSource(t, nil, input); result != expected {
		t.Errorf("Format mismatch.\nExpected:\n%s\nGot:\n%s", expected, result)
	}
}

func TestFormatterCommentBetweenAnnotationsAndKeyword(t *testing.T) {
	input := "@base(Length)\n# the meter\nunit meters\n"
	expected := "# the meter\n@base(Length)\nunit meters\n"

	if result := formatSource(t, nil, input); result != expected {
		t.Errorf("Format mismatch.\nExpected:\n%s\nGot:\n%s", expected, result)
	}
}

func TestFormatterKeepsLiterals(t *testing.T) {
	input := `@prefix(myria("my",1e4))
unit inches=0.025_4*meters
unit light_years = 9.4607e15 * meters
dimension Root = Length^(1/2) / Time^-1
unit hertz = 1 / (seconds)
@symbol("a\"b")
unit quoted
`

	expected := `@prefix(myria("my", 1e4))
unit inches = 0.025_4 * meters
unit light_years = 9.4607e15 * meters
dimension Root = Length^(1/2) / Time^-1
unit hertz = 1 / (seconds)
@symbol("a\"b")
unit quoted
`

	if result := formatSource(t, nil, input); result != expected {
		t.Errorf("Format mismatch.\nExpected:\n%s\nGot:\n%s", expected, result)
	}
}

func TestFormatterTypeNames(t *testing.T) {
	input := "quantity_type   Amount\ndimension_type Dim\ndimension Length\n"
	expected := "quantity_type Amount\ndimension_type Dim\ndimension Length\n"

	if result := formatSource(t, nil, input); result != expected {
		t.Errorf("Format mismatch.\nExpected:\n%s\nGot:\n%s", expected, result)
	}
}

func TestFormatterInlineAnnotations(t *testing.T) {
	config := &Config{MaxBlankLines: 1, InlineAnnotations: true}
	input := "@base(Length) @symbol(m)\nunit meters # base\n"
	expected := "@base(Length) @symbol(m) unit meters # base\n"

	if result := formatSource(t, config, input); result != expected {
		t.Errorf("Format mismatch.\nExpected:\n%s\nGot:\n%s", expected, result)
	}
}

func TestFormatterMaxBlankLines(t *testing.T) {
	input := "dimension A\n\n\n\n\ndimension B\n"

	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{"default", nil, "dimension A\n\ndimension B\n"},
		{"two", &Config{MaxBlankLines: 2}, "dimension A\n\n\ndimension B\n"},
		{"zero falls back to one", &Config{}, "dimension A\n\ndimension B\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := formatSource(t, tt.config, input); result != tt.expected {
				t.Errorf("Format mismatch.\nExpected:\n%q\nGot:\n%q", tt.expected, result)
			}
		})
	}
}

func TestFormatterIdempotent(t *testing.T) {
	input := `# SI subset
quantity_type Quantity
dimension Length
dimension Time
dimension Acceleration = Length / Time^2

@base(Length) @symbol(m) @metric_prefixes # all of them
unit meters
@base(Time)
@symbol(s)
unit seconds
constant g: Acceleration = 9.80665 * meters / seconds^2
`

	once := formatSource(t, nil, input)
	twice := formatSource(t, nil, once)
	if once != twice {
		t.Errorf("Formatting is not idempotent.\nFirst:\n%s\nSecond:\n%s", once, twice)
	}
}

func TestFormatterInvalidSource(t *testing.T) {
	inputs := []string{
		"unit = 3",
		"dimension Length = ",
		"unit meters = 1 $ 2",
	}

	for _, input := range inputs {
		result, err := New(nil).Format(input)
		if err == nil {
			t.Errorf("Expected an error for %q", input)
		}
		if result != input {
			t.Errorf("Expected the source back unchanged, got %q", result)
		}
	}
}

func TestFormatterEmpty(t *testing.T) {
	if result := formatSource(t, nil, ""); result != "" {
		t.Errorf("Expected empty output, got %q", result)
	}
	if result := formatSource(t, nil, "# only a comment"); result != "# only a comment\n" {
		t.Errorf("Unexpected output %q", result)
	}
}

func TestFormatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.dim")
	if err := os.WriteFile(path, []byte("dimension   Length"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	result, err := FormatFile(path, nil)
	if err != nil {
		t.Fatalf("FormatFile failed: %v", err)
	}
	if result != "dimension Length\n" {
		t.Errorf("Unexpected output %q", result)
	}

	if _, err := FormatFile(filepath.Join(t.TempDir(), "missing.dim"), nil); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
