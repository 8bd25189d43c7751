// Package defs holds the definition tables that flow through the resolution
// engine: the verified but still symbolic templates, their expansion into
// concrete entries, and the resolved table consumed by code generation.
package defs

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dimc-lang/dimc/internal/compiler/ast"
	"github.com/dimc-lang/dimc/internal/compiler/exponent"
	"github.com/dimc-lang/dimc/internal/compiler/expr"
)

// Ident is a declared or referenced name with the position it was written at.
type Ident struct {
	Name string
	Loc  ast.SourceLocation
}

// String returns the name.
func (i Ident) String() string { return i.Name }

// One is the only concrete leaf allowed in a dimension expression, the
// literal 1 (as in `dimension Dimensionless = 1`).
type One struct{}

// String renders One as the literal 1.
func (One) String() string { return "1" }

// Atom is an expression leaf: either a concrete value of type C or a
// reference to another entry by name.
type Atom[C any] struct {
	Ref      *Ident
	Concrete C
}

// Concrete builds a concrete leaf.
func Concrete[C any](c C) Atom[C] {
	return Atom[C]{Concrete: c}
}

// Ref builds a reference leaf.
func Ref[C any](id Ident) Atom[C] {
	return Atom[C]{Ref: &id}
}

// IsRef reports whether a refers to another entry.
func (a Atom[C]) IsRef() bool { return a.Ref != nil }

// String renders the reference name or the concrete value.
func (a Atom[C]) String() string {
	if a.Ref != nil {
		return a.Ref.Name
	}
	if v, ok := any(a.Concrete).(float64); ok {
		return formatNumber(v)
	}
	return fmt.Sprint(a.Concrete)
}

// formatNumber writes whole numbers below 1e21 without an exponent, so
// 299792458 stays 299792458. Everything else uses the shortest %g form.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// UnitExpr is the definition expression of a unit or a constant.
type UnitExpr = expr.Expr[Atom[float64], exponent.Exponent]

// DimensionExpr is the definition expression of a derived dimension.
type DimensionExpr = expr.Expr[Atom[One], exponent.Exponent]

// DimensionEntry is a named dimension. Expr is nil for a base dimension,
// which contributes a fresh axis to every exponent vector.
type DimensionEntry struct {
	Name Ident
	Expr *DimensionExpr
}

// IsBase reports whether the entry declares a base dimension.
func (d DimensionEntry) IsBase() bool { return d.Expr == nil }

// UnitDefinition is either "base unit of dimension X" or an expression over
// other units, constants and numbers.
type UnitDefinition struct {
	BaseDimension *Ident
	Expr          *UnitExpr
}

// IsBase reports whether the definition declares a base unit.
func (d UnitDefinition) IsBase() bool { return d.BaseDimension != nil }

// Prefix is a named scaling fragment such as kilo (k, 1000).
type Prefix struct {
	Name   string
	Short  string
	Factor float64
}

// Alias is an alternate name for a unit.
type Alias struct {
	Name Ident
}

// Symbol is the short written form of a unit, e.g. "km".
type Symbol struct {
	Text string
	Loc  ast.SourceLocation
}

// UnitTemplate is one unit declaration standing for the family of units its
// prefixes and aliases expand to.
type UnitTemplate struct {
	Name                Ident
	Symbol              *Symbol
	Aliases             []Alias
	Prefixes            []Prefix
	DimensionAnnotation *Ident
	Definition          UnitDefinition
}

// UnitEntry is one concrete unit after template expansion.
// AutogeneratedFrom names the template for prefix/alias expansions and is nil
// for the canonical entry.
type UnitEntry struct {
	Name                Ident
	Symbol              *Symbol
	DimensionAnnotation *Ident
	Definition          UnitDefinition
	AutogeneratedFrom   *Ident
}

// ConstantEntry is a named physical constant.
type ConstantEntry struct {
	Name                Ident
	Expr                *UnitExpr
	DimensionAnnotation *Ident
}

// UnresolvedTemplates is the verifier output: every declaration in source
// order, unit declarations still unexpanded.
type UnresolvedTemplates struct {
	QuantityType  Ident
	DimensionType Ident
	Dimensions    []DimensionEntry
	Units         []UnitTemplate
	Constants     []ConstantEntry
}

// UnresolvedDefs is the resolver input: units are concrete entries.
type UnresolvedDefs struct {
	QuantityType  Ident
	DimensionType Ident
	Dimensions    []DimensionEntry
	Units         []UnitEntry
	Constants     []ConstantEntry
}

// BaseDimensions returns the base dimensions in declaration order. This order
// fixes the component order of every exponent vector.
func (u *UnresolvedDefs) BaseDimensions() []Ident {
	out := make([]Ident, 0, len(u.Dimensions))
	for _, d := range u.Dimensions {
		if d.IsBase() {
			out = append(out, d.Name)
		}
	}
	return out
}
