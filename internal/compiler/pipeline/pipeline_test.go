package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	cerrors "github.com/dimc-lang/dimc/compiler/errors"
	"github.com/dimc-lang/dimc/internal/compiler/cache"
)

const unitsSource = `dimension Length
dimension Time
dimension Velocity = Length / Time

@base(Length) @symbol(m) @prefix(kilo)
unit meters

@base(Time) @symbol(s)
unit seconds

constant speed_of_light: Velocity = 299792458 * meters / seconds
`

func compile(t *testing.T, source string, opts Options) (*Result, error) {
	t.Helper()
	if opts.File == "" {
		opts.File = "units.dim"
	}
	return New(opts, zaptest.NewLogger(t)).Compile(source)
}

func singleDiagnostic(t *testing.T, source string, opts Options) cerrors.CompilerError {
	t.Helper()
	res, err := compile(t, source, opts)
	require.Error(t, err)
	require.Len(t, res.Diagnostics, 1, "diagnostics: %v", res.Diagnostics)
	return res.Diagnostics[0]
}

func TestCompile_Success(t *testing.T) {
	res, err := compile(t, unitsSource, Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Diagnostics)
	require.NotNil(t, res.Resolved)
	assert.Len(t, res.Unresolved.Units, 3)

	km, ok := res.Resolved.Unit("kilometers")
	require.True(t, ok)
	assert.InDelta(t, 1000.0, km.Magnitude, 1e-9)

	require.Contains(t, res.Files, "units.go")
	assert.Contains(t, res.Files["units.go"], "package units")
	assert.Contains(t, res.Files["constants.go"], "SpeedOfLight")
}

func TestCompile_Package(t *testing.T) {
	res, err := compile(t, unitsSource, Options{Package: "physics"})
	require.NoError(t, err)
	assert.Contains(t, res.Files["dimension.go"], "package physics")
}

func TestCompile_SkipCodegen(t *testing.T) {
	res, err := compile(t, unitsSource, Options{SkipCodegen: true})
	require.NoError(t, err)
	assert.NotNil(t, res.Resolved)
	assert.Nil(t, res.Files)
}

func TestCompile_LexError(t *testing.T) {
	d := singleDiagnostic(t, "unit meters $", Options{})

	assert.Equal(t, cerrors.ErrInvalidCharacter, d.Code)
	assert.Equal(t, "lexer", d.Phase)
	assert.Equal(t, "units.dim", d.Location.File)
	assert.Equal(t, 1, d.Location.Line)
	assert.Equal(t, 13, d.Location.Column)
}

func TestCompile_ParseError(t *testing.T) {
	res, err := compile(t, "dimension Length\nunit feet = (meters", Options{})
	require.Error(t, err)

	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, cerrors.ErrUnmatchedParen, res.Diagnostics[0].Code)
	assert.Equal(t, "parser", res.Diagnostics[0].Phase)
	assert.NotNil(t, res.File)
	assert.Nil(t, res.Templates)
}

func TestCompile_VerifyError(t *testing.T) {
	d := singleDiagnostic(t, "dimension Length\nunit meters", Options{})

	assert.Equal(t, cerrors.ErrMissingUnitDefinition, d.Code)
	assert.Equal(t, 2, d.Location.Line)
	require.NotNil(t, d.Suggestion)
	assert.NotEmpty(t, d.Context.SourceLines)
}

func TestCompile_UnknownReferenceHint(t *testing.T) {
	source := unitsSource + "unit feet = 0.3048 * meterz\n"
	d := singleDiagnostic(t, source, Options{})

	assert.Equal(t, cerrors.ErrUnknownReference, d.Code)
	assert.Equal(t, "resolve", d.Phase)
	assert.Equal(t, 12, d.Location.Line)
	assert.Equal(t, 22, d.Location.Column)
	assert.Equal(t, 6, d.Location.Length)
	require.NotNil(t, d.Suggestion)
	assert.Equal(t, "did you mean meters?", d.Suggestion.Description)
}

func TestCompile_DuplicateDefinitionNote(t *testing.T) {
	source := unitsSource + "constant meters = 3\n"
	d := singleDiagnostic(t, source, Options{})

	assert.Equal(t, cerrors.ErrDuplicateDefinition, d.Code)
	require.Len(t, d.RelatedErrors, 1)
	assert.Equal(t, "meters is declared here", d.RelatedErrors[0].Message)
	assert.Equal(t, 6, d.RelatedErrors[0].Location.Line)
}

func TestCompile_RationalExponents(t *testing.T) {
	source := "dimension Length\ndimension Odd = Length^(2/3)\n"

	d := singleDiagnostic(t, source, Options{})
	assert.Equal(t, cerrors.ErrRationalExponent, d.Code)

	res, err := compile(t, source, Options{RationalExponents: true})
	require.NoError(t, err)
	odd, ok := res.Resolved.Dimension("Odd")
	require.True(t, ok)
	assert.Equal(t, "{Length: 2/3}", res.Resolved.FormatVector(odd.Vector))
	assert.Contains(t, res.Files["dimension.go"], "Exponent")
}

func TestCompile_CodegenError(t *testing.T) {
	d := singleDiagnostic(t, unitsSource, Options{Package: "func"})
	assert.Equal(t, cerrors.ErrInvalidPackageName, d.Code)
	assert.Equal(t, "codegen", d.Phase)
}

func TestCompile_Cache(t *testing.T) {
	results := cache.New[*Result]()
	c := New(Options{File: "units.dim"}, nil).WithCache(results)

	first, err := c.Compile(unitsSource)
	require.NoError(t, err)
	second, err := c.Compile(unitsSource)
	require.NoError(t, err)
	assert.Same(t, first, second)

	third, err := c.Compile(unitsSource + "\n")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 1, results.Size())
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.dim")
	require.NoError(t, os.WriteFile(path, []byte("unit meters $"), 0o644))

	res, err := New(Options{}, nil).CompileFile(path)
	require.Error(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, path, res.Diagnostics[0].Location.File)

	var list cerrors.List
	require.ErrorAs(t, err, &list)
	assert.Len(t, list, 1)

	_, err = New(Options{}, nil).CompileFile(filepath.Join(t.TempDir(), "missing.dim"))
	assert.Error(t, err)
}

func TestParseCode(t *testing.T) {
	tests := map[string]string{
		"Expected ')' after expression":                                cerrors.ErrUnmatchedParen,
		"Expected ')' after exponent":                                  cerrors.ErrUnmatchedParen,
		"Expected expression, found end of file":                       cerrors.ErrExpectedExpression,
		"Expected name, number or '(' in expression, found '*'":        cerrors.ErrExpectedExpression,
		"Exponent denominator must not be zero":                        cerrors.ErrInvalidExponent,
		"Expected integer exponent after '^'":                          cerrors.ErrInvalidExponent,
		"Expected '=' and a definition for constant":                   cerrors.ErrMissingDefinition,
		"Expected unit name":                                           cerrors.ErrExpectedIdentifier,
		"Dimensions cannot carry a dimension annotation":               cerrors.ErrInvalidSyntax,
		"Unexpected token at top level: '='":                           cerrors.ErrUnexpectedToken,
		"Expected 'dimension', 'unit' or 'constant' after annotations": cerrors.ErrUnexpectedToken,
	}
	for message, want := range tests {
		assert.Equal(t, want, parseCode(message), message)
	}
}
