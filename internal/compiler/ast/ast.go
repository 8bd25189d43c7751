// Package ast defines the Abstract Syntax Tree (AST) node types for unit
// definition files. It provides structures for representing type names,
// dimensions, units, constants, annotations and definition expressions.
//
// The AST is deliberately loose: it records what was written, and the verify
// package decides whether the shape is meaningful.
package ast

import (
	"fmt"

	"github.com/dimc-lang/dimc/internal/compiler/expr"
	"github.com/dimc-lang/dimc/internal/compiler/lexer"
)

// SourceLocation tracks the position of an AST node in source code
type SourceLocation struct {
	Line   int // Line number (1-indexed)
	Column int // Column number (1-indexed)
}

// String renders the location as "line:column".
func (l SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Node is the base interface for all AST nodes
type Node interface {
	Location() SourceLocation
	node()
}

// File is the root node of the AST
type File struct {
	QuantityTypes  []*TypeNameNode
	DimensionTypes []*TypeNameNode
	Dimensions     []*DimensionNode
	Units          []*UnitNode
	Constants      []*ConstantNode
}

func (f *File) node() {}

// Location returns the location of the first declaration in the file.
func (f *File) Location() SourceLocation {
	switch {
	case len(f.Dimensions) > 0:
		return f.Dimensions[0].Loc
	case len(f.Units) > 0:
		return f.Units[0].Loc
	case len(f.Constants) > 0:
		return f.Constants[0].Loc
	}
	return SourceLocation{Line: 1, Column: 1}
}

// TypeNameNode represents a quantity_type or dimension_type declaration
type TypeNameNode struct {
	Name string
	Loc  SourceLocation
}

func (t *TypeNameNode) node() {}

// Location returns the source location of the type name declaration.
func (t *TypeNameNode) Location() SourceLocation {
	return t.Loc
}

// DimensionNode represents `dimension Name` or `dimension Name = expr`.
// Definition is nil for a base dimension.
type DimensionNode struct {
	Name        string
	NameLoc     SourceLocation
	Annotations []*AnnotationNode
	Definition  *Expr
	Loc         SourceLocation
}

func (d *DimensionNode) node() {}

// Location returns the source location of the dimension declaration.
func (d *DimensionNode) Location() SourceLocation {
	return d.Loc
}

// UnitNode represents a unit declaration with its leading annotations.
// Definition is nil for a base unit.
type UnitNode struct {
	Name                string
	NameLoc             SourceLocation
	DimensionAnnotation *IdentNode
	Annotations         []*AnnotationNode
	Definition          *Expr
	Loc                 SourceLocation
}

func (u *UnitNode) node() {}

// Location returns the source location of the unit declaration.
func (u *UnitNode) Location() SourceLocation {
	return u.Loc
}

// ConstantNode represents `constant name[: Dimension] = expr`.
type ConstantNode struct {
	Name                string
	NameLoc             SourceLocation
	DimensionAnnotation *IdentNode
	Annotations         []*AnnotationNode
	Definition          *Expr
	Loc                 SourceLocation
}

func (c *ConstantNode) node() {}

// Location returns the source location of the constant declaration.
func (c *ConstantNode) Location() SourceLocation {
	return c.Loc
}

// IdentNode is a bare name with its position
type IdentNode struct {
	Name string
	Loc  SourceLocation
}

func (i *IdentNode) node() {}

// Location returns the source location of the identifier.
func (i *IdentNode) Location() SourceLocation {
	return i.Loc
}

// AnnotationNode represents an annotation like @symbol(m) or @metric_prefixes
type AnnotationNode struct {
	Name string
	Args []*AnnotationArg
	Loc  SourceLocation
}

func (a *AnnotationNode) node() {}

// Location returns the source location of the annotation.
func (a *AnnotationNode) Location() SourceLocation {
	return a.Loc
}

// ArgKind identifies the shape of an annotation argument
type ArgKind int

const (
	// ArgIdent is a bare identifier: @base(Length)
	ArgIdent ArgKind = iota
	// ArgString is a string literal: @symbol("μm")
	ArgString
	// ArgNumber is a numeric literal: myria("my", 1e4)
	ArgNumber
	// ArgCall is a name with arguments: @prefix(myria("my", 1e4))
	ArgCall
)

// AnnotationArg is one argument of an annotation
type AnnotationArg struct {
	Kind   ArgKind
	Name   string           // ArgIdent, ArgCall
	Text   string           // ArgString
	Number float64          // ArgNumber
	Args   []*AnnotationArg // ArgCall
	Loc    SourceLocation
}

func (a *AnnotationArg) node() {}

// Location returns the source location of the argument.
func (a *AnnotationArg) Location() SourceLocation {
	return a.Loc
}

// OperandKind identifies what an expression leaf holds
type OperandKind int

const (
	// OperandName references another declaration by name
	OperandName OperandKind = iota
	// OperandNumber is a numeric literal
	OperandNumber
)

// Operand is a leaf of a definition expression
type Operand struct {
	Kind   OperandKind
	Name   string
	Number float64
	IsInt  bool // literal was written without a fraction or exponent
	Loc    SourceLocation
}

// String renders the operand as written.
func (o Operand) String() string {
	if o.Kind == OperandName {
		return o.Name
	}
	return fmt.Sprint(o.Number)
}

// ExponentLit is an exponent as written: ^2, ^-1 or ^(p/q)
type ExponentLit struct {
	Num int64
	Den int64 // 1 unless written as a fraction
	Loc SourceLocation
}

// String renders the exponent in surface syntax.
func (e ExponentLit) String() string {
	if e.Den == 1 {
		return fmt.Sprint(e.Num)
	}
	return fmt.Sprintf("(%d/%d)", e.Num, e.Den)
}

// Expr is a definition expression as parsed
type Expr = expr.Expr[Operand, ExponentLit]

// TokenLocation creates a SourceLocation from a lexer token
func TokenLocation(token lexer.Token) SourceLocation {
	return SourceLocation{
		Line:   token.Line,
		Column: token.Column,
	}
}

// ExprLocation returns the location of the leftmost leaf of e.
func ExprLocation(e *Expr) SourceLocation {
	for e != nil {
		if e.Lhs != nil {
			e = e.Lhs
			continue
		}
		if e.Rhs.Kind == expr.KindParen {
			e = e.Rhs.Inner
			continue
		}
		return e.Rhs.Value.Loc
	}
	return SourceLocation{}
}
