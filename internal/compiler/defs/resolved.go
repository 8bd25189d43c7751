package defs

import "github.com/dimc-lang/dimc/internal/compiler/dimension"

// Dimension is a resolved dimension.
type Dimension struct {
	Name   Ident
	Vector dimension.Vector
	IsBase bool
}

// Unit is a resolved unit. Magnitude is relative to the base units.
type Unit struct {
	Name              Ident
	Symbol            *Symbol
	Vector            dimension.Vector
	Magnitude         float64
	IsBaseUnit        bool
	AutogeneratedFrom *Ident
}

// Constant is a resolved constant.
type Constant struct {
	Name      Ident
	Vector    dimension.Vector
	Magnitude float64
}

// ResolvedDefs is the terminal table handed to code generation. It is built
// once by the resolver and never mutated afterwards.
type ResolvedDefs struct {
	QuantityType  Ident
	DimensionType Ident
	Space         *dimension.Space
	Dimensions    []Dimension
	Units         []Unit
	Constants     []Constant
}

// BaseDimensions returns the base dimension names in vector component order.
func (r *ResolvedDefs) BaseDimensions() []string {
	return r.Space.Names()
}

// Dimension looks up a resolved dimension by name.
func (r *ResolvedDefs) Dimension(name string) (Dimension, bool) {
	for _, d := range r.Dimensions {
		if d.Name.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Unit looks up a resolved unit by name.
func (r *ResolvedDefs) Unit(name string) (Unit, bool) {
	for _, u := range r.Units {
		if u.Name.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}

// Constant looks up a resolved constant by name.
func (r *ResolvedDefs) Constant(name string) (Constant, bool) {
	for _, c := range r.Constants {
		if c.Name.Name == name {
			return c, true
		}
	}
	return Constant{}, false
}

// BaseUnits returns the units declared with @base, in declaration order.
func (r *ResolvedDefs) BaseUnits() []Unit {
	out := make([]Unit, 0, len(r.Space.Names()))
	for _, u := range r.Units {
		if u.IsBaseUnit {
			out = append(out, u)
		}
	}
	return out
}

// DimensionOf returns the first declared dimension whose vector equals v.
func (r *ResolvedDefs) DimensionOf(v dimension.Vector) (Dimension, bool) {
	for _, d := range r.Dimensions {
		if d.Vector.Equal(v) {
			return d, true
		}
	}
	return Dimension{}, false
}

// FormatVector renders v over this table's base dimensions.
func (r *ResolvedDefs) FormatVector(v dimension.Vector) string {
	return r.Space.Format(v)
}
