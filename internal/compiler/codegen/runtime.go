package codegen

// generateDimension writes the run-time dimension struct. Its algebra
// follows the compiler's: in integer mode a root of a component that is not
// divisible panics, in rational mode exponents are exact fractions.
func (g *Generator) generateDimension() {
	dt := g.names.dimensionType
	fields := g.names.fields
	bases := g.defs.BaseDimensions()

	g.imports["strings"] = true
	if len(fields) > 0 || g.rational() {
		g.imports["strconv"] = true
	}

	if g.rational() {
		g.generateExponent()
	}

	fieldType := "int"
	if g.rational() {
		fieldType = "Exponent"
	}

	g.writeLine("// %s is the exponent of every base dimension of a quantity.", dt)
	g.writeLine("type %s struct {", dt)
	g.indent++
	for _, f := range fields {
		g.writeLine("%s %s", f, fieldType)
	}
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	if g.rational() {
		g.writeDimensionMethod("Mul returns the dimension of a product.", "Mul(o "+dt+")", "d.%[1]s.Add(o.%[1]s)")
		g.writeDimensionMethod("Div returns the dimension of a quotient.", "Div(o "+dt+")", "d.%[1]s.Sub(o.%[1]s)")
		g.writeDimensionMethod("Inv returns the dimension of a reciprocal.", "Inv()", "d.%[1]s.Scale(-1, 1)")
		g.writeDimensionMethod("Powi returns d raised to n.", "Powi(n int)", "d.%[1]s.Scale(int64(n), 1)")
		g.writeDimensionMethod("Pow returns d raised to num/den.", "Pow(num, den int64)", "d.%[1]s.Scale(num, den)")
		g.writeDimensionMethod("Sqrt halves every exponent.", "Sqrt()", "d.%[1]s.Scale(1, 2)")
		g.writeDimensionMethod("Cbrt divides every exponent by three.", "Cbrt()", "d.%[1]s.Scale(1, 3)")
	} else {
		g.writeDimensionMethod("Mul returns the dimension of a product.", "Mul(o "+dt+")", "d.%[1]s + o.%[1]s")
		g.writeDimensionMethod("Div returns the dimension of a quotient.", "Div(o "+dt+")", "d.%[1]s - o.%[1]s")
		g.writeDimensionMethod("Inv returns the dimension of a reciprocal.", "Inv()", "-d.%[1]s")
		g.writeDimensionMethod("Powi returns d raised to n.", "Powi(n int)", "d.%[1]s * n")

		g.writeLine("// Sqrt halves every exponent. It panics when an exponent is odd.")
		g.writeLine("func (d %s) Sqrt() %s { return d.root(2, \"square root\") }", dt, dt)
		g.writeLine("")
		g.writeLine("// Cbrt divides every exponent by three. It panics when an exponent is not divisible.")
		g.writeLine("func (d %s) Cbrt() %s { return d.root(3, \"cube root\") }", dt, dt)
		g.writeLine("")

		g.writeLine("func (d %s) root(n int, operation string) %s {", dt, dt)
		g.indent++
		for i, f := range fields {
			g.writeLine("if d.%s%%n != 0 {", f)
			g.indent++
			g.writeLine("panic(\"invalid \" + operation + \" of \" + d.String() + %q + strconv.Itoa(d.%s))",
				": exponent of "+bases[i]+" is ", f)
			g.indent--
			g.writeLine("}")
		}
		g.writeLine("return %s{", dt)
		g.indent++
		for _, f := range fields {
			g.writeLine("%[1]s: d.%[1]s / n,", f)
		}
		g.indent--
		g.writeLine("}")
		g.indent--
		g.writeLine("}")
		g.writeLine("")
	}

	g.writeLine("// IsNone reports whether d is dimensionless.")
	g.writeLine("func (d %s) IsNone() bool { return d == (%s{}) }", dt, dt)
	g.writeLine("")

	g.writeLine("// String formats d as \"{Length: 1, Time: -1}\" or \"dimensionless\".")
	g.writeLine("func (d %s) String() string {", dt)
	g.indent++
	g.writeLine("var parts []string")
	for i, f := range fields {
		if g.rational() {
			g.writeLine("if d.%s.Num != 0 {", f)
			g.indent++
			g.writeLine("parts = append(parts, %q+d.%s.String())", bases[i]+": ", f)
		} else {
			g.writeLine("if d.%s != 0 {", f)
			g.indent++
			g.writeLine("parts = append(parts, %q+strconv.Itoa(d.%s))", bases[i]+": ", f)
		}
		g.indent--
		g.writeLine("}")
	}
	g.writeLine("if len(parts) == 0 {")
	g.indent++
	g.writeLine("return \"dimensionless\"")
	g.indent--
	g.writeLine("}")
	g.writeLine("return \"{\" + strings.Join(parts, \", \") + \"}\"")
	g.indent--
	g.writeLine("}")
}

// writeDimensionMethod writes a method that builds a new dimension
// component-wise; component is a format with the field name as %[1]s.
func (g *Generator) writeDimensionMethod(doc, signature, component string) {
	dt := g.names.dimensionType

	g.writeLine("// %s", doc)
	g.writeLine("func (d %s) %s %s {", dt, signature, dt)
	g.indent++
	g.writeLine("return %s{", dt)
	g.indent++
	for _, f := range g.names.fields {
		g.writeLine("%s: "+component+",", f)
	}
	g.indent--
	g.writeLine("}")
	g.indent--
	g.writeLine("}")
	g.writeLine("")
}

// generateExponent writes the exact rational exponent used in rational
// mode. Zero is always the zero value so that dimensions compare with ==.
func (g *Generator) generateExponent() {
	g.writeLine("// Exponent is an exact rational exponent Num/Den in lowest terms.")
	g.writeLine("type Exponent struct {")
	g.indent++
	g.writeLine("Num int64")
	g.writeLine("Den int64")
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("func ratio(num, den int64) Exponent {")
	g.indent++
	g.writeLine("if den == 0 {")
	g.indent++
	g.writeLine("panic(\"exponent with zero denominator\")")
	g.indent--
	g.writeLine("}")
	g.writeLine("if num == 0 {")
	g.indent++
	g.writeLine("return Exponent{}")
	g.indent--
	g.writeLine("}")
	g.writeLine("if den < 0 {")
	g.indent++
	g.writeLine("num, den = -num, -den")
	g.indent--
	g.writeLine("}")
	g.writeLine("a, b := num, den")
	g.writeLine("if a < 0 {")
	g.indent++
	g.writeLine("a = -a")
	g.indent--
	g.writeLine("}")
	g.writeLine("for b != 0 {")
	g.indent++
	g.writeLine("a, b = b, a%%b")
	g.indent--
	g.writeLine("}")
	g.writeLine("return Exponent{Num: num / a, Den: den / a}")
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("func (e Exponent) den() int64 {")
	g.indent++
	g.writeLine("if e.Den == 0 {")
	g.indent++
	g.writeLine("return 1")
	g.indent--
	g.writeLine("}")
	g.writeLine("return e.Den")
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// Add returns e + o.")
	g.writeLine("func (e Exponent) Add(o Exponent) Exponent {")
	g.indent++
	g.writeLine("return ratio(e.Num*o.den()+o.Num*e.den(), e.den()*o.den())")
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// Sub returns e - o.")
	g.writeLine("func (e Exponent) Sub(o Exponent) Exponent {")
	g.indent++
	g.writeLine("return ratio(e.Num*o.den()-o.Num*e.den(), e.den()*o.den())")
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// Scale returns e * num/den.")
	g.writeLine("func (e Exponent) Scale(num, den int64) Exponent {")
	g.indent++
	g.writeLine("return ratio(e.Num*num, e.den()*den)")
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("func (e Exponent) String() string {")
	g.indent++
	g.writeLine("if e.den() == 1 {")
	g.indent++
	g.writeLine("return strconv.FormatInt(e.Num, 10)")
	g.indent--
	g.writeLine("}")
	g.writeLine("return strconv.FormatInt(e.Num, 10) + \"/\" + strconv.FormatInt(e.Den, 10)")
	g.indent--
	g.writeLine("}")
	g.writeLine("")
}

// generateQuantity writes the dynamically tagged quantity.
func (g *Generator) generateQuantity() {
	qt := g.names.quantityType
	dt := g.names.dimensionType

	g.imports["math"] = true
	g.imports["strconv"] = true

	g.writeLine("// %s is a magnitude in base units tagged with its dimension at run time.", qt)
	g.writeLine("type %s struct {", qt)
	g.indent++
	g.writeLine("Value float64")
	g.writeLine("Dim   %s", dt)
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// Mul returns q * o.")
	g.writeLine("func (q %[1]s) Mul(o %[1]s) %[1]s {", qt)
	g.indent++
	g.writeLine("return %s{Value: q.Value * o.Value, Dim: q.Dim.Mul(o.Dim)}", qt)
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// Div returns q / o.")
	g.writeLine("func (q %[1]s) Div(o %[1]s) %[1]s {", qt)
	g.indent++
	g.writeLine("return %s{Value: q.Value / o.Value, Dim: q.Dim.Div(o.Dim)}", qt)
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// Add returns q + o. It panics when the dimensions differ.")
	g.writeLine("func (q %[1]s) Add(o %[1]s) %[1]s {", qt)
	g.indent++
	g.writeLine("q.mustMatch(o, \"add\")")
	g.writeLine("return %s{Value: q.Value + o.Value, Dim: q.Dim}", qt)
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// Sub returns q - o. It panics when the dimensions differ.")
	g.writeLine("func (q %[1]s) Sub(o %[1]s) %[1]s {", qt)
	g.indent++
	g.writeLine("q.mustMatch(o, \"subtract\")")
	g.writeLine("return %s{Value: q.Value - o.Value, Dim: q.Dim}", qt)
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// Powi returns q raised to n.")
	g.writeLine("func (q %[1]s) Powi(n int) %[1]s {", qt)
	g.indent++
	g.writeLine("return %s{Value: math.Pow(q.Value, float64(n)), Dim: q.Dim.Powi(n)}", qt)
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// Sqrt returns the square root of q.")
	g.writeLine("func (q %[1]s) Sqrt() %[1]s {", qt)
	g.indent++
	g.writeLine("return %s{Value: math.Sqrt(q.Value), Dim: q.Dim.Sqrt()}", qt)
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// Cbrt returns the cube root of q.")
	g.writeLine("func (q %[1]s) Cbrt() %[1]s {", qt)
	g.indent++
	g.writeLine("return %s{Value: math.Cbrt(q.Value), Dim: q.Dim.Cbrt()}", qt)
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("func (q %[1]s) mustMatch(o %[1]s, operation string) {", qt)
	g.indent++
	g.writeLine("if q.Dim != o.Dim {")
	g.indent++
	g.writeLine("panic(\"cannot \" + operation + \" \" + o.Dim.String() + \" and \" + q.Dim.String())")
	g.indent--
	g.writeLine("}")
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("func (q %s) String() string {", qt)
	g.indent++
	g.writeLine("return strconv.FormatFloat(q.Value, 'g', -1, 64) + \" \" + q.Dim.String()")
	g.indent--
	g.writeLine("}")
}
