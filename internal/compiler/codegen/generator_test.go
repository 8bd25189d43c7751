package codegen

import (
	"errors"
	"go/ast"
	"go/importer"
	goparser "go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/dimc-lang/dimc/compiler/errors"
	"github.com/dimc-lang/dimc/internal/compiler/defs"
	"github.com/dimc-lang/dimc/internal/compiler/dimension"
	"github.com/dimc-lang/dimc/internal/compiler/lexer"
	"github.com/dimc-lang/dimc/internal/compiler/parser"
	"github.com/dimc-lang/dimc/internal/compiler/resolver"
	"github.com/dimc-lang/dimc/internal/compiler/verify"
)

const siSource = `
quantity_type Quantity
dimension Length
dimension Time
dimension Area = Length^2
dimension Velocity = Length / Time
dimension Dimensionless = 1

@base(Length) @symbol(m) @prefix(kilo)
unit meters

@base(Time) @symbol(s)
unit seconds

unit hours: Time = 3600 * seconds
unit hertz = 1 / seconds

constant speed_of_light: Velocity = 299792458 * meters / seconds
constant odd = 2 * meters * seconds
`

func resolve(t *testing.T, source string, rational bool) *defs.ResolvedDefs {
	t.Helper()
	tokens, lexErrors := lexer.New(source).ScanTokens()
	require.Empty(t, lexErrors)
	file, parseErrors := parser.New(tokens).Parse()
	require.Empty(t, parseErrors)
	templates, verifyErrors := verify.Verify(file, verify.Options{RationalExponents: rational})
	require.Empty(t, verifyErrors)

	mode := dimension.IntegerExponents
	if rational {
		mode = dimension.RationalExponents
	}
	resolved, err := resolver.Resolve(templates.ExpandTemplates(), resolver.WithMode(mode))
	require.NoError(t, err)
	return resolved
}

func generate(t *testing.T, source string, opts Options) map[string]string {
	t.Helper()
	files, err := Generate(resolve(t, source, false), opts)
	require.NoError(t, err)
	return files
}

// assertTypeChecks parses the generated files and type-checks them as one
// package against the standard library sources.
func assertTypeChecks(t *testing.T, files map[string]string) {
	t.Helper()
	fset := token.NewFileSet()
	parsed := make([]*ast.File, 0, len(files))
	for name, src := range files {
		f, err := goparser.ParseFile(fset, name, src, goparser.AllErrors)
		require.NoError(t, err, "generated %s:\n%s", name, src)
		parsed = append(parsed, f)
	}

	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	_, err := conf.Check(parsed[0].Name.Name, fset, parsed, nil)
	assert.NoError(t, err)
}

func TestGenerate_Files(t *testing.T) {
	files := generate(t, siSource, Options{})

	assert.Len(t, files, 5)
	for _, name := range []string{"dimension.go", "quantity.go", "dimensions.go", "units.go", "constants.go"} {
		require.Contains(t, files, name)
		assert.Contains(t, files[name], generatedHeader)
		assert.Contains(t, files[name], "package units")
	}
	assertTypeChecks(t, files)
}

func TestGenerate_RuntimeDimension(t *testing.T) {
	code := generate(t, siSource, Options{})["dimension.go"]

	assert.Contains(t, code, "type Dimension struct {")
	assert.Contains(t, code, "Length int")
	assert.Contains(t, code, "Time   int")
	assert.Contains(t, code, "func (d Dimension) Mul(o Dimension) Dimension {")
	assert.Contains(t, code, "Length: d.Length + o.Length,")
	assert.Contains(t, code, "func (d Dimension) Sqrt() Dimension")
	assert.Contains(t, code, "if d.Length%n != 0 {")
	assert.Contains(t, code, `parts = append(parts, "Length: "+strconv.Itoa(d.Length))`)
	assert.NotContains(t, code, "type Exponent")
}

func TestGenerate_DimensionTypes(t *testing.T) {
	code := generate(t, siSource, Options{})["dimensions.go"]

	assert.Contains(t, code, "type Velocity float64")
	assert.Contains(t, code, "func (Velocity) Dim() Dimension { return Dimension{Length: 1, Time: -1} }")
	assert.Contains(t, code, "func (q Length) MulLength(o Length) Area")
	assert.Contains(t, code, "func (q Length) DivTime(o Time) Velocity")
	assert.Contains(t, code, "func (q Area) Sqrt() Length { return Length(math.Sqrt(float64(q))) }")
	assert.Contains(t, code, "func (Dimensionless) Dim() Dimension { return Dimension{} }")

	// No declared dimension is the square root of Length.
	assert.NotContains(t, code, "func (q Length) Sqrt()")
}

func TestGenerate_Units(t *testing.T) {
	code := generate(t, siSource, Options{})["units.go"]

	assert.Contains(t, code, "func Meters(v float64) Length { return Length(v) }")
	assert.Contains(t, code, "func Kilometers(v float64) Length { return Length(v * 1000) }")
	assert.Contains(t, code, "func (q Length) InKilometers() float64 { return float64(q) / 1000 }")
	assert.Contains(t, code, "func Hours(v float64) Time { return Time(v * 3600) }")
	assert.Contains(t, code, "// Kilometers returns v kilometers (km).")

	// Hertz has no declared dimension.
	assert.Contains(t, code, "func Hertz(v float64) Quantity {")
	assert.Contains(t, code, "return Quantity{Value: v, Dim: Dimension{Time: -1}}")
}

func TestGenerate_Constants(t *testing.T) {
	code := generate(t, siSource, Options{})["constants.go"]

	assert.Contains(t, code, "const SpeedOfLight Velocity = 299792458")
	assert.Contains(t, code, "var Odd = Quantity{Value: 2, Dim: Dimension{Length: 1, Time: 1}}")
}

func TestGenerate_CustomNames(t *testing.T) {
	files := generate(t, `
quantity_type Measure
dimension_type Dim
dimension Mass
@base(Mass) unit kilograms`, Options{Package: "physics"})

	assert.Contains(t, files["quantity.go"], "package physics")
	assert.Contains(t, files["quantity.go"], "type Measure struct {")
	assert.Contains(t, files["quantity.go"], "Dim   Dim")
	assert.Contains(t, files["dimension.go"], "type Dim struct {")
	assertTypeChecks(t, files)
}

func TestGenerate_RationalMode(t *testing.T) {
	resolved := resolve(t, `
dimension Length
dimension Odd = Length^(2/3)
@base(Length) unit meters`, true)

	files, err := Generate(resolved, Options{})
	require.NoError(t, err)

	assert.Contains(t, files["dimension.go"], "type Exponent struct {")
	assert.Contains(t, files["dimension.go"], "Length Exponent")
	assert.Contains(t, files["dimension.go"], "Length: d.Length.Add(o.Length),")
	assert.Contains(t, files["dimensions.go"], "Dimension{Length: Exponent{Num: 2, Den: 3}}")
	assert.Contains(t, files["dimension.go"], "a, b = b, a%b")
	assertTypeChecks(t, files)
}

func TestGenerate_NoBaseDimensions(t *testing.T) {
	files := generate(t, "dimension Dimensionless = 1", Options{})
	assert.NotContains(t, files["dimension.go"], "strconv")
	assertTypeChecks(t, files)
}

func TestGenerate_SameVectorDimensions(t *testing.T) {
	files := generate(t, `
dimension Length
dimension Mass
dimension Time
dimension Force = Mass * Length / Time^2
dimension Energy = Force * Length
dimension Torque = Force * Length

@base(Length) @symbol(m) @metric_prefixes
unit meters
@base(Mass) @symbol(kg)
unit kilograms
@base(Time) @symbol(s)
unit seconds

unit newtons = kilograms * meters / seconds^2
unit joules = newtons * meters
constant g_n = 9.80665 * meters / seconds^2`, Options{Package: "si"})

	assert.Contains(t, files["dimensions.go"], "type Energy float64")
	assert.Contains(t, files["dimensions.go"], "type Torque float64")
	assertTypeChecks(t, files)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		opts   Options
		code   string
	}{
		{
			name:   "invalid package",
			source: "dimension Length",
			opts:   Options{Package: "Units"},
			code:   cerrors.ErrInvalidPackageName,
		},
		{
			name:   "package keyword",
			source: "dimension Length",
			opts:   Options{Package: "func"},
			code:   cerrors.ErrInvalidPackageName,
		},
		{
			name: "unit and dimension collide",
			source: `
dimension Length
@base(Length) unit length`,
			code: cerrors.ErrNameCollision,
		},
		{
			name:   "dimension named like the runtime type",
			source: "dimension Dimension",
			code:   cerrors.ErrNameCollision,
		},
		{
			name:   "base dimension named like a method",
			source: "dimension Mul",
			code:   cerrors.ErrNameCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(resolve(t, tt.source, false), tt.opts)
			require.Error(t, err)

			var genErr *Error
			require.True(t, errors.As(err, &genErr))
			assert.Equal(t, tt.code, genErr.Code)
		})
	}
}

func TestGoName(t *testing.T) {
	assert.Equal(t, "SpeedOfLight", goName("speed_of_light"))
	assert.Equal(t, "Kilometers", goName("kilometers"))
	assert.Equal(t, "Length", goName("Length"))
}
