package codegen

import (
	"github.com/dimc-lang/dimc/internal/compiler/defs"
	"github.com/dimc-lang/dimc/internal/compiler/dimension"
)

// generateDimensionTypes writes one float64 type per declared dimension and
// the typed products, quotients and roots whose result is declared too.
func (g *Generator) generateDimensionTypes() {
	qt := g.names.quantityType
	dt := g.names.dimensionType

	for _, d := range g.defs.Dimensions {
		name := g.names.dimensions[d.Name.Name]
		literal := g.dimensionLiteral(d.Vector)

		g.writeLine("// %s is a quantity of dimension %s in base units.", name, g.defs.FormatVector(d.Vector))
		g.writeLine("type %s float64", name)
		g.writeLine("")
		g.writeLine("// Dim returns the dimension of %s.", name)
		g.writeLine("func (%s) Dim() %s { return %s }", name, dt, literal)
		g.writeLine("")
		g.writeLine("// Quantity returns q as a dynamically tagged quantity.")
		g.writeLine("func (q %s) Quantity() %s { return %s{Value: float64(q), Dim: %s} }", name, qt, qt, literal)
		g.writeLine("")

		g.writeArithmetic(d)
		g.writeRoots(d)
	}
}

func (g *Generator) writeArithmetic(a defs.Dimension) {
	name := g.names.dimensions[a.Name.Name]
	space := g.defs.Space

	for _, b := range g.defs.Dimensions {
		other := g.names.dimensions[b.Name.Name]

		if c, ok := g.declared(space.Mul(a.Vector, b.Vector)); ok {
			result := g.names.dimensions[c.Name.Name]
			g.writeLine("// Mul%s returns q * o.", other)
			g.writeLine("func (q %s) Mul%s(o %s) %s { return %s(float64(q) * float64(o)) }", name, other, other, result, result)
			g.writeLine("")
		}
		if c, ok := g.declared(space.Div(a.Vector, b.Vector)); ok {
			result := g.names.dimensions[c.Name.Name]
			g.writeLine("// Div%s returns q / o.", other)
			g.writeLine("func (q %s) Div%s(o %s) %s { return %s(float64(q) / float64(o)) }", name, other, other, result, result)
			g.writeLine("")
		}
	}
}

// declared finds the declared dimension of a computed vector. Vectors out of
// range have none.
func (g *Generator) declared(v dimension.Vector, err error) (defs.Dimension, bool) {
	if err != nil {
		return defs.Dimension{}, false
	}
	return g.defs.DimensionOf(v)
}

func (g *Generator) writeRoots(a defs.Dimension) {
	name := g.names.dimensions[a.Name.Name]
	space := g.defs.Space

	roots := []struct {
		method string
		fn     string
		take   func(dimension.Vector) (dimension.Vector, error)
	}{
		{"Sqrt", "math.Sqrt", space.Sqrt},
		{"Cbrt", "math.Cbrt", space.Cbrt},
	}
	for _, root := range roots {
		v, err := root.take(a.Vector)
		if err != nil {
			continue
		}
		c, ok := g.defs.DimensionOf(v)
		if !ok {
			continue
		}
		result := g.names.dimensions[c.Name.Name]
		g.imports["math"] = true
		g.writeLine("// %s returns the %s of q.", root.method, rootName(root.method))
		g.writeLine("func (q %s) %s() %s { return %s(%s(float64(q))) }", name, root.method, result, result, root.fn)
		g.writeLine("")
	}
}

func rootName(method string) string {
	if method == "Sqrt" {
		return "square root"
	}
	return "cube root"
}

// generateUnits writes a constructor per unit and, when the unit's dimension
// is declared, an In<Unit> accessor on the dimension type.
func (g *Generator) generateUnits() {
	qt := g.names.quantityType

	for _, u := range g.defs.Units {
		name := g.names.units[u.Name.Name]
		scaled := "v"
		if u.Magnitude != 1 {
			scaled = "v * " + floatLiteral(u.Magnitude)
		}

		doc := u.Name.Name
		if u.Symbol != nil {
			doc += " (" + u.Symbol.Text + ")"
		}

		d, ok := g.defs.DimensionOf(u.Vector)
		if !ok {
			g.writeLine("// %s returns v %s as a quantity of dimension %s.", name, doc, g.defs.FormatVector(u.Vector))
			g.writeLine("func %s(v float64) %s {", name, qt)
			g.indent++
			g.writeLine("return %s{Value: %s, Dim: %s}", qt, scaled, g.dimensionLiteral(u.Vector))
			g.indent--
			g.writeLine("}")
			g.writeLine("")
			continue
		}

		typ := g.names.dimensions[d.Name.Name]
		g.writeLine("// %s returns v %s.", name, doc)
		g.writeLine("func %s(v float64) %s { return %s(%s) }", name, typ, typ, scaled)
		g.writeLine("")

		g.writeLine("// In%s returns q in %s.", name, u.Name.Name)
		if u.Magnitude == 1 {
			g.writeLine("func (q %s) In%s() float64 { return float64(q) }", typ, name)
		} else {
			g.writeLine("func (q %s) In%s() float64 { return float64(q) / %s }", typ, name, floatLiteral(u.Magnitude))
		}
		g.writeLine("")
	}
}

// generateConstants writes typed constants, or tagged quantities for
// constants whose dimension is not declared.
func (g *Generator) generateConstants() {
	qt := g.names.quantityType

	for _, c := range g.defs.Constants {
		name := g.names.constants[c.Name.Name]
		value := floatLiteral(c.Magnitude)

		if d, ok := g.defs.DimensionOf(c.Vector); ok {
			g.writeLine("// %s is %s in base units.", name, c.Name.Name)
			g.writeLine("const %s %s = %s", name, g.names.dimensions[d.Name.Name], value)
		} else {
			g.writeLine("// %s is %s, of dimension %s, in base units.", name, c.Name.Name, g.defs.FormatVector(c.Vector))
			g.writeLine("var %s = %s{Value: %s, Dim: %s}", name, qt, value, g.dimensionLiteral(c.Vector))
		}
		g.writeLine("")
	}
}
