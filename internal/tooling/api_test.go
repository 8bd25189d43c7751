package tooling

import (
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/dimc-lang/dimc/internal/compiler/pipeline"
)

const testURI = "file:///project/units.dim"

const testSource = `dimension Length
dimension Time
dimension Velocity = Length / Time

@base(Length) @symbol(m) @prefix(kilo)
unit meters

@base(Time) @symbol(s)
unit seconds

constant speed_of_light: Velocity = 299792458 * meters / seconds
`

func newTestAPI(t *testing.T) *API {
	t.Helper()
	return NewAPI(pipeline.Options{SkipCodegen: true}, zaptest.NewLogger(t))
}

func TestAPICreation(t *testing.T) {
	api := NewAPI(pipeline.Options{}, nil)
	if api == nil {
		t.Fatal("NewAPI() returned nil")
	}
	if api.documents == nil {
		t.Error("API documents map is nil")
	}
	if api.symbolIndex == nil {
		t.Error("API symbolIndex is nil")
	}
}

func TestOpenDocument(t *testing.T) {
	api := newTestAPI(t)
	doc := api.OpenDocument(testURI, testSource)

	if doc.Version != 1 {
		t.Errorf("Expected version 1, got %d", doc.Version)
	}
	if doc.Result.Resolved == nil {
		t.Fatalf("Expected the document to resolve, diagnostics: %v", doc.Result.Diagnostics)
	}
	if diags := api.GetDiagnostics(testURI); len(diags) != 0 {
		t.Errorf("Expected no diagnostics, got %v", diags)
	}

	got, ok := api.GetDocument(testURI)
	if !ok || got != doc {
		t.Error("GetDocument did not return the opened document")
	}
}

func TestUpdateDocument(t *testing.T) {
	api := newTestAPI(t)
	first := api.OpenDocument(testURI, testSource)

	same := api.UpdateDocument(testURI, testSource, 2)
	if same != first {
		t.Error("Expected unchanged content to reuse the document")
	}
	if same.Version != 2 {
		t.Errorf("Expected version 2, got %d", same.Version)
	}

	changed := api.UpdateDocument(testURI, testSource+"unit feet = 0.3048 * meters\n", 3)
	if changed == first {
		t.Fatal("Expected changed content to recompile")
	}
	if changed.declaration("feet") == nil {
		t.Error("Expected the new unit to be declared")
	}
}

func TestCloseDocument(t *testing.T) {
	api := newTestAPI(t)
	api.OpenDocument(testURI, testSource)
	api.CloseDocument(testURI)

	if _, ok := api.GetDocument(testURI); ok {
		t.Error("Document still tracked after close")
	}
	if syms := api.SearchSymbols("meters"); len(syms) != 0 {
		t.Errorf("Expected closed document symbols to be removed, got %d", len(syms))
	}
	if api.GetDiagnostics(testURI) != nil {
		t.Error("Expected nil diagnostics for a closed document")
	}
}

func TestGetDiagnostics(t *testing.T) {
	api := newTestAPI(t)
	api.OpenDocument(testURI, "dimension Length\n@base(Length)\nunit meters\nunit feet = 2 * furlongs\n")

	diags := api.GetDiagnostics(testURI)
	if len(diags) == 0 {
		t.Fatal("Expected a diagnostic for the undefined unit")
	}
	d := diags[0]
	if d.Severity != DiagnosticSeverityError {
		t.Errorf("Expected error severity, got %d", d.Severity)
	}
	if d.Source != "dimc" {
		t.Errorf("Expected source dimc, got %q", d.Source)
	}
	if !strings.Contains(d.Message, "furlongs") {
		t.Errorf("Expected the message to name the unit, got %q", d.Message)
	}
	if d.Range.Start != (Position{Line: 3, Character: 16}) {
		t.Errorf("Expected the diagnostic at the reference, got %+v", d.Range.Start)
	}
}

func TestGetDiagnostics_SyntaxError(t *testing.T) {
	api := newTestAPI(t)
	doc := api.OpenDocument(testURI, "dimension = Length\n")

	if len(api.GetDiagnostics(testURI)) == 0 {
		t.Error("Expected a syntax diagnostic")
	}
	if doc.Result.Resolved != nil {
		t.Error("Expected resolution to be skipped")
	}
}

func TestGetDocumentSymbols(t *testing.T) {
	api := newTestAPI(t)
	api.OpenDocument(testURI, testSource)

	symbols, err := api.GetDocumentSymbols(testURI)
	if err != nil {
		t.Fatal(err)
	}

	kinds := make(map[string]SymbolKind)
	for _, s := range symbols {
		kinds[s.Name] = s.Kind
	}
	want := map[string]SymbolKind{
		"Length":         SymbolKindDimension,
		"Time":           SymbolKindDimension,
		"Velocity":       SymbolKindDimension,
		"meters":         SymbolKindUnit,
		"kilometers":     SymbolKindUnit,
		"seconds":        SymbolKindUnit,
		"speed_of_light": SymbolKindConstant,
	}
	for name, kind := range want {
		if got, ok := kinds[name]; !ok || got != kind {
			t.Errorf("Symbol %s: got kind %v (present %v), want %v", name, got, ok, kind)
		}
	}

	if _, err := api.GetDocumentSymbols("file:///missing.dim"); err == nil {
		t.Error("Expected an error for an unknown document")
	}
}

func TestGeneratedUnitSymbol(t *testing.T) {
	api := newTestAPI(t)
	doc := api.OpenDocument(testURI, testSource)

	km := doc.declaration("kilometers")
	if km == nil {
		t.Fatal("Expected kilometers to be declared")
	}
	if km.Template != "meters" {
		t.Errorf("Expected template meters, got %q", km.Template)
	}
	if km.Range != doc.declaration("meters").Range {
		t.Error("Expected a generated unit to share its template's range")
	}
}

func TestGetDefinition(t *testing.T) {
	api := newTestAPI(t)
	api.OpenDocument(testURI, testSource)

	// "Length" in "dimension Velocity = Length / Time"
	loc, err := api.GetDefinition(testURI, Position{Line: 2, Character: 23})
	if err != nil {
		t.Fatal(err)
	}
	if loc == nil {
		t.Fatal("Expected a definition")
	}
	want := Range{Start: Position{Line: 0, Character: 10}, End: Position{Line: 0, Character: 16}}
	if loc.Range != want {
		t.Errorf("Definition range = %+v, want %+v", loc.Range, want)
	}
	if loc.URI != testURI {
		t.Errorf("Definition URI = %s", loc.URI)
	}

	// Whitespace
	loc, err = api.GetDefinition(testURI, Position{Line: 3, Character: 0})
	if err != nil || loc != nil {
		t.Errorf("Expected no definition on an empty line, got %v, %v", loc, err)
	}
}

func TestGetReferences(t *testing.T) {
	api := newTestAPI(t)
	api.OpenDocument(testURI, testSource)

	// "meters" in "unit meters"
	locs, err := api.GetReferences(testURI, Position{Line: 5, Character: 7})
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 2 {
		t.Fatalf("Expected the declaration and one use, got %v", locs)
	}
	if locs[1].Range.Start != (Position{Line: 10, Character: 48}) {
		t.Errorf("Unexpected use location %+v", locs[1].Range.Start)
	}

	// "Length": declaration, derived dimension and @base argument
	locs, _ = api.GetReferences(testURI, Position{Line: 0, Character: 12})
	if len(locs) != 3 {
		t.Errorf("Expected 3 locations for Length, got %d", len(locs))
	}
}

func TestGetHover(t *testing.T) {
	api := newTestAPI(t)
	api.OpenDocument(testURI, testSource)

	tests := []struct {
		name string
		pos  Position
		want []string
	}{
		{"derived dimension", Position{Line: 2, Character: 12}, []string{"dimension Velocity = Length / Time", "{Length: 1, Time: -1}"}},
		{"base dimension", Position{Line: 0, Character: 11}, []string{"Base dimension"}},
		{"unit", Position{Line: 5, Character: 6}, []string{"**Symbol:** `m`", "**Dimension:** Length", "(base unit)"}},
		{"constant", Position{Line: 10, Character: 10}, []string{"constant speed_of_light", "**Dimension:** Velocity", "2.99792458e+08"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hover, err := api.GetHover(testURI, tt.pos)
			if err != nil {
				t.Fatal(err)
			}
			if hover == nil {
				t.Fatal("Expected hover information")
			}
			for _, want := range tt.want {
				if !strings.Contains(hover.Contents, want) {
					t.Errorf("Hover missing %q:\n%s", want, hover.Contents)
				}
			}
		})
	}
}

func TestGetHover_NoSymbol(t *testing.T) {
	api := newTestAPI(t)
	api.OpenDocument(testURI, testSource)

	hover, err := api.GetHover(testURI, Position{Line: 10, Character: 40})
	if err != nil {
		t.Fatal(err)
	}
	if hover != nil {
		t.Errorf("Expected no hover on a number literal, got %q", hover.Contents)
	}

	if _, err := api.GetHover("file:///missing.dim", Position{}); err == nil {
		t.Error("Expected an error for an unknown document")
	}
}

func TestSearchSymbols(t *testing.T) {
	api := newTestAPI(t)
	api.OpenDocument(testURI, testSource)
	api.OpenDocument("file:///project/extra.dim", "dimension Mass\n@base(Mass)\nunit kilograms\n")

	results := api.SearchSymbols("METERS")
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	if strings.Join(names, ",") != "kilometers,meters" {
		t.Errorf("SearchSymbols(METERS) = %v", names)
	}

	if all := api.SearchSymbols(""); len(all) != 9 {
		t.Errorf("Expected 9 symbols across documents, got %d", len(all))
	}
}

func TestConcurrentAccess(t *testing.T) {
	api := newTestAPI(t)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(version int) {
			defer wg.Done()
			api.UpdateDocument(testURI, testSource, version)
			api.GetDiagnostics(testURI)
			api.SearchSymbols("m")
		}(i)
	}
	wg.Wait()

	if _, ok := api.GetDocument(testURI); !ok {
		t.Error("Expected the document to be tracked")
	}
}

func TestFilename(t *testing.T) {
	if got := filename("file:///project/units.dim"); got != "/project/units.dim" {
		t.Errorf("filename() = %q", got)
	}
	if got := filename("untitled:1"); got != "untitled:1" {
		t.Errorf("filename() = %q", got)
	}
}
