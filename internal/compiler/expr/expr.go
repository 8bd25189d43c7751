// Package expr defines the product-of-powers expression tree shared by
// dimension definitions and unit/constant definitions.
//
// An Expr is either a single factor or a binary node whose left side is an
// expression and whose right side is a factor. A factor is a leaf value, a
// parenthesized expression, or a leaf value raised to an exponent. The tree
// is pure data: evaluation is delegated to a caller-supplied Algebra.
package expr

import (
	"fmt"
	"strings"
)

// Operator is the binary operator of a non-leaf expression.
type Operator int

const (
	// Mul multiplies the left expression by the right factor.
	Mul Operator = iota
	// Div divides the left expression by the right factor.
	Div
)

// String returns the surface syntax of the operator.
func (o Operator) String() string {
	if o == Div {
		return "/"
	}
	return "*"
}

// FactorKind identifies the shape of a Factor.
type FactorKind int

const (
	// KindValue is a plain leaf value.
	KindValue FactorKind = iota
	// KindParen is a nested expression.
	KindParen
	// KindPower is a leaf value raised to an exponent.
	KindPower
)

// Factor is the right operand of a binary node, or the whole of a leaf
// expression.
type Factor[T, E any] struct {
	Kind     FactorKind
	Value    T          // KindValue, KindPower
	Exponent E          // KindPower
	Inner    *Expr[T, E] // KindParen
}

// Expr is an expression tree node. Lhs is nil for a leaf expression.
type Expr[T, E any] struct {
	Lhs *Expr[T, E]
	Rhs Factor[T, E]
	Op  Operator
}

// IsLeaf reports whether e consists of a single factor.
func (e *Expr[T, E]) IsLeaf() bool {
	return e.Lhs == nil
}

// Value builds the leaf expression v.
func Value[T, E any](v T) *Expr[T, E] {
	return &Expr[T, E]{Rhs: Factor[T, E]{Kind: KindValue, Value: v}}
}

// Power builds the leaf expression v^exp.
func Power[T, E any](v T, exp E) *Expr[T, E] {
	return &Expr[T, E]{Rhs: Factor[T, E]{Kind: KindPower, Value: v, Exponent: exp}}
}

// Paren wraps inner as a single factor.
func Paren[T, E any](inner *Expr[T, E]) *Expr[T, E] {
	return &Expr[T, E]{Rhs: Factor[T, E]{Kind: KindParen, Inner: inner}}
}

// Binary builds lhs op rhs where rhs must be a factor. A non-leaf rhs is
// wrapped in parentheses so the tree keeps its left-nested shape.
func Binary[T, E any](lhs *Expr[T, E], op Operator, rhs *Expr[T, E]) *Expr[T, E] {
	f := rhs.Rhs
	if !rhs.IsLeaf() {
		f = Factor[T, E]{Kind: KindParen, Inner: rhs}
	}
	return &Expr[T, E]{Lhs: lhs, Rhs: f, Op: op}
}

// Times is shorthand for Binary(lhs, Mul, rhs).
func Times[T, E any](lhs, rhs *Expr[T, E]) *Expr[T, E] {
	return Binary(lhs, Mul, rhs)
}

// Over is shorthand for Binary(lhs, Div, rhs).
func Over[T, E any](lhs, rhs *Expr[T, E]) *Expr[T, E] {
	return Binary(lhs, Div, rhs)
}

// MapFactors returns a structurally identical tree with every leaf value
// replaced by f(value). Exponents are carried over unchanged.
func MapFactors[T, U, E any](e *Expr[T, E], f func(T) U) *Expr[U, E] {
	return Map(e, f, func(exp E) E { return exp })
}

// Map returns a structurally identical tree with every leaf value replaced by
// fv(value) and every exponent replaced by fe(exponent).
func Map[T, U, E, F any](e *Expr[T, E], fv func(T) U, fe func(E) F) *Expr[U, F] {
	if e == nil {
		return nil
	}
	out := &Expr[U, F]{Op: e.Op}
	if e.Lhs != nil {
		out.Lhs = Map(e.Lhs, fv, fe)
	}
	switch e.Rhs.Kind {
	case KindParen:
		out.Rhs = Factor[U, F]{Kind: KindParen, Inner: Map(e.Rhs.Inner, fv, fe)}
	case KindPower:
		out.Rhs = Factor[U, F]{Kind: KindPower, Value: fv(e.Rhs.Value), Exponent: fe(e.Rhs.Exponent)}
	default:
		out.Rhs = Factor[U, F]{Kind: KindValue, Value: fv(e.Rhs.Value)}
	}
	return out
}

// Walk calls visit for every leaf value in left-to-right source order.
func Walk[T, E any](e *Expr[T, E], visit func(T)) {
	if e == nil {
		return
	}
	Walk(e.Lhs, visit)
	switch e.Rhs.Kind {
	case KindParen:
		Walk(e.Rhs.Inner, visit)
	default:
		visit(e.Rhs.Value)
	}
}

// Algebra supplies the operations used by Evaluate. Every operation may
// fail, e.g. for a root of a dimension that is not divisible or an exponent
// that leaves the representable range.
type Algebra[V, E any] interface {
	Mul(a, b V) (V, error)
	Div(a, b V) (V, error)
	Pow(a V, exp E) (V, error)
}

// Evaluate folds e bottom-up. leaf evaluates every leaf value; the first
// error from leaf or the algebra aborts the evaluation.
func Evaluate[T, E, V any](e *Expr[T, E], alg Algebra[V, E], leaf func(T) (V, error)) (V, error) {
	rhs, err := evaluateFactor(e.Rhs, alg, leaf)
	if err != nil || e.Lhs == nil {
		return rhs, err
	}
	lhs, err := Evaluate(e.Lhs, alg, leaf)
	if err != nil {
		return lhs, err
	}
	if e.Op == Div {
		return alg.Div(lhs, rhs)
	}
	return alg.Mul(lhs, rhs)
}

func evaluateFactor[T, E, V any](f Factor[T, E], alg Algebra[V, E], leaf func(T) (V, error)) (V, error) {
	switch f.Kind {
	case KindParen:
		return Evaluate(f.Inner, alg, leaf)
	case KindPower:
		v, err := leaf(f.Value)
		if err != nil {
			return v, err
		}
		return alg.Pow(v, f.Exponent)
	default:
		return leaf(f.Value)
	}
}

// String renders e in surface syntax using fmt's %v for leaves and exponents.
func (e *Expr[T, E]) String() string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr[T, E any](b *strings.Builder, e *Expr[T, E]) {
	if e.Lhs != nil {
		writeExpr(b, e.Lhs)
		fmt.Fprintf(b, " %s ", e.Op)
	}
	switch e.Rhs.Kind {
	case KindParen:
		b.WriteString("(")
		writeExpr(b, e.Rhs.Inner)
		b.WriteString(")")
	case KindPower:
		fmt.Fprintf(b, "%v^%v", e.Rhs.Value, e.Rhs.Exponent)
	default:
		fmt.Fprintf(b, "%v", e.Rhs.Value)
	}
}
