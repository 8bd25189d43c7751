package tooling

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dimc-lang/dimc/internal/compiler/defs"
)

// buildHover renders markdown for a declared name. Resolved information is
// shown when the document resolved; otherwise only the declaration is.
func buildHover(doc *Document, name string) string {
	sym := doc.declaration(name)
	if sym == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "```dimc\n%s %s", sym.Kind, sym.Name)
	if sym.Detail != "" {
		fmt.Fprintf(&b, " = %s", sym.Detail)
	}
	b.WriteString("\n```\n")

	if resolved := doc.Result.Resolved; resolved != nil {
		switch sym.Kind {
		case SymbolKindDimension:
			writeDimensionHover(&b, resolved, name)
		case SymbolKindUnit:
			writeUnitHover(&b, resolved, name)
		case SymbolKindConstant:
			writeConstantHover(&b, resolved, name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeDimensionHover(b *strings.Builder, r *defs.ResolvedDefs, name string) {
	d, ok := r.Dimension(name)
	if !ok {
		return
	}
	if d.IsBase {
		b.WriteString("\nBase dimension\n")
		return
	}
	fmt.Fprintf(b, "\n**Dimension:** `%s`\n", r.FormatVector(d.Vector))
}

func writeUnitHover(b *strings.Builder, r *defs.ResolvedDefs, name string) {
	u, ok := r.Unit(name)
	if !ok {
		return
	}
	b.WriteString("\n")
	if u.Symbol != nil {
		fmt.Fprintf(b, "**Symbol:** `%s`  \n", u.Symbol.Text)
	}
	fmt.Fprintf(b, "**Dimension:** %s  \n", dimensionLabel(r, u))
	fmt.Fprintf(b, "**Magnitude:** %s", formatMagnitude(u.Magnitude))
	if u.IsBaseUnit {
		b.WriteString(" (base unit)")
	}
	b.WriteString("\n")
	if u.AutogeneratedFrom != nil {
		fmt.Fprintf(b, "\nGenerated from `%s`\n", u.AutogeneratedFrom.Name)
	}
}

func writeConstantHover(b *strings.Builder, r *defs.ResolvedDefs, name string) {
	c, ok := r.Constant(name)
	if !ok {
		return
	}
	label := "`" + r.FormatVector(c.Vector) + "`"
	if d, ok := r.DimensionOf(c.Vector); ok {
		label = d.Name.Name
	}
	fmt.Fprintf(b, "\n**Dimension:** %s  \n**Value:** %s\n", label, formatMagnitude(c.Magnitude))
}

// dimensionLabel prefers a declared dimension name over the raw vector
func dimensionLabel(r *defs.ResolvedDefs, u defs.Unit) string {
	if d, ok := r.DimensionOf(u.Vector); ok {
		return d.Name.Name
	}
	return "`" + r.FormatVector(u.Vector) + "`"
}

func formatMagnitude(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
