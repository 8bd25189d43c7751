// Package dimension implements exact arithmetic over dimension exponent
// vectors. A Space fixes the ordered set of base dimensions once; every
// Vector produced by a Space has one exponent per base dimension.
//
// The same rules are emitted into generated code by the codegen package, so
// the divisibility check for roots must stay in sync with the generated
// Dimension.Sqrt and Dimension.Cbrt methods.
package dimension

import (
	"fmt"
	"strings"

	"github.com/dimc-lang/dimc/internal/compiler/exponent"
)

// Mode selects the exponent domain of a Space.
type Mode int

const (
	// IntegerExponents restricts every component to an integer. Roots fail
	// unless each component is divisible.
	IntegerExponents Mode = iota
	// RationalExponents allows exact rational components. Roots never fail.
	RationalExponents
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case IntegerExponents:
		return "integer"
	case RationalExponents:
		return "rational"
	default:
		return "unknown"
	}
}

// Vector is an immutable exponent vector over the base dimensions of the
// Space that created it.
type Vector struct {
	exps []exponent.Exponent
}

// Len returns the number of base dimensions.
func (v Vector) Len() int { return len(v.exps) }

// At returns the exponent of the i-th base dimension. Axes past the end of
// the vector are zero.
func (v Vector) At(i int) exponent.Exponent {
	if i >= len(v.exps) {
		return exponent.Int(0)
	}
	return v.exps[i]
}

// IsNone reports whether v is dimensionless.
func (v Vector) IsNone() bool {
	for _, e := range v.exps {
		if !e.IsZero() {
			return false
		}
	}
	return true
}

// Equal reports whether v and o have the same exponent on every axis.
func (v Vector) Equal(o Vector) bool {
	n := max(len(v.exps), len(o.exps))
	for i := 0; i < n; i++ {
		if !v.At(i).Equal(o.At(i)) {
			return false
		}
	}
	return true
}

// RootError reports a root (or fractional power) applied in integer mode to
// a vector with a component that is not divisible by the root's degree.
type RootError struct {
	Operation string
	Dimension string
	Exponent  exponent.Exponent
	Degree    int64
}

// Error implements the error interface
func (e *RootError) Error() string {
	return fmt.Sprintf("cannot take %s: exponent %s of dimension %s is not divisible by %d",
		e.Operation, e.Exponent, e.Dimension, e.Degree)
}

// OverflowError reports an exponent that left the int64 range.
type OverflowError struct {
	Operation string
	Dimension string
}

// Error implements the error interface
func (e *OverflowError) Error() string {
	return fmt.Sprintf("exponent of dimension %s is out of range in %s", e.Dimension, e.Operation)
}

// Space is the fixed, ordered set of base dimensions plus the exponent mode.
type Space struct {
	names []string
	index map[string]int
	mode  Mode
}

// NewSpace creates a space over the given base dimensions. The order of
// names is the order of vector components.
func NewSpace(names []string, mode Mode) *Space {
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}
	return &Space{
		names: append([]string(nil), names...),
		index: index,
		mode:  mode,
	}
}

// Names returns the base dimension names in component order.
func (s *Space) Names() []string {
	return append([]string(nil), s.names...)
}

// Mode returns the exponent mode of the space.
func (s *Space) Mode() Mode { return s.mode }

// None returns the dimensionless vector.
func (s *Space) None() Vector {
	exps := make([]exponent.Exponent, len(s.names))
	for i := range exps {
		exps[i] = exponent.Int(0)
	}
	return Vector{exps: exps}
}

// Base returns the unit vector along the named base dimension.
func (s *Space) Base(name string) (Vector, bool) {
	i, ok := s.index[name]
	if !ok {
		return Vector{}, false
	}
	v := s.None()
	v.exps[i] = exponent.Int(1)
	return v, true
}

// FromMap builds a vector from named components. Unknown names are an error.
func (s *Space) FromMap(components map[string]exponent.Exponent) (Vector, error) {
	v := s.None()
	for name, e := range components {
		i, ok := s.index[name]
		if !ok {
			return Vector{}, fmt.Errorf("unknown base dimension %q", name)
		}
		v.exps[i] = e
	}
	return v, nil
}

// ToMap returns the non-zero components of v keyed by base dimension name.
func (s *Space) ToMap(v Vector) map[string]exponent.Exponent {
	out := make(map[string]exponent.Exponent)
	for i, name := range s.names {
		if e := v.At(i); !e.IsZero() {
			out[name] = e
		}
	}
	return out
}

// Mul returns the component-wise sum a + b.
func (s *Space) Mul(a, b Vector) (Vector, error) {
	return s.combine(a, b, exponent.Exponent.Add, "product")
}

// Div returns the component-wise difference a - b.
func (s *Space) Div(a, b Vector) (Vector, error) {
	return s.combine(a, b, exponent.Exponent.Sub, "quotient")
}

// Inv returns the component-wise negation of a. It cannot overflow.
func (s *Space) Inv(a Vector) Vector {
	v := s.None()
	for i := range v.exps {
		v.exps[i] = a.At(i).Neg()
	}
	return v
}

// Powi returns a with every component multiplied by n.
func (s *Space) Powi(a Vector, n int64) (Vector, error) {
	return s.Pow(a, exponent.Int(n))
}

// Pow returns a with every component multiplied by e. In integer mode a
// non-integer result on any axis is a *RootError; integer e can only fail
// with an *OverflowError.
func (s *Space) Pow(a Vector, e exponent.Exponent) (Vector, error) {
	return s.root(a, e, fmt.Sprintf("power %s", e))
}

// Sqrt halves every component.
func (s *Space) Sqrt(a Vector) (Vector, error) {
	return s.root(a, exponent.New(1, 2), "square root")
}

// Cbrt divides every component by three.
func (s *Space) Cbrt(a Vector) (Vector, error) {
	return s.root(a, exponent.New(1, 3), "cube root")
}

func (s *Space) root(a Vector, e exponent.Exponent, operation string) (Vector, error) {
	v := s.None()
	for i := range v.exps {
		c, err := a.At(i).Mul(e)
		if err != nil {
			return Vector{}, &OverflowError{Operation: operation, Dimension: s.names[i]}
		}
		if s.mode == IntegerExponents && !c.IsInt() {
			return Vector{}, &RootError{
				Operation: operation,
				Dimension: s.names[i],
				Exponent:  a.At(i),
				Degree:    e.Den(),
			}
		}
		v.exps[i] = c
	}
	return v, nil
}

func (s *Space) combine(a, b Vector, op func(exponent.Exponent, exponent.Exponent) (exponent.Exponent, error), operation string) (Vector, error) {
	v := s.None()
	for i := range v.exps {
		c, err := op(a.At(i), b.At(i))
		if err != nil {
			return Vector{}, &OverflowError{Operation: operation, Dimension: s.names[i]}
		}
		v.exps[i] = c
	}
	return v, nil
}

// Format renders v as "{Length: 1, Time: -1}" listing non-zero axes in base
// order, or "dimensionless".
func (s *Space) Format(v Vector) string {
	parts := make([]string, 0, len(s.names))
	for i, name := range s.names {
		if e := v.At(i); !e.IsZero() {
			parts = append(parts, fmt.Sprintf("%s: %s", name, e))
		}
	}
	if len(parts) == 0 {
		return "dimensionless"
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
