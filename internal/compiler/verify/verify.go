// Package verify checks that a parsed unit definition file is well formed and
// lowers it into defs.UnresolvedTemplates.
//
// Verification is purely structural: annotations must be known and carry the
// right arguments, units need exactly one of @base or a definition, dimension
// expressions may only contain the literal 1, and rational exponents need the
// rational configuration. Whether a referenced name exists, or whether the
// definitions are acyclic, is left to the resolver.
package verify

import (
	"fmt"
	"strings"

	cerrors "github.com/dimc-lang/dimc/compiler/errors"
	"github.com/dimc-lang/dimc/internal/compiler/ast"
	"github.com/dimc-lang/dimc/internal/compiler/defs"
	"github.com/dimc-lang/dimc/internal/compiler/exponent"
	"github.com/dimc-lang/dimc/internal/compiler/expr"
)

// Default names used when a file declares no quantity_type/dimension_type.
const (
	DefaultQuantityType  = "Quantity"
	DefaultDimensionType = "Dimension"
)

// Options configures verification.
type Options struct {
	// RationalExponents allows arbitrary ^(p/q) exponents. Without it only
	// integers and the root exponents 1/2 and 1/3 are accepted.
	RationalExponents bool
}

type verifier struct {
	opts   Options
	errors ErrorList
}

// Verify checks file and returns the unresolved templates. The templates are
// only meaningful when the returned list is empty.
func Verify(file *ast.File, opts Options) (*defs.UnresolvedTemplates, ErrorList) {
	v := &verifier{opts: opts}

	templates := &defs.UnresolvedTemplates{
		QuantityType:  v.typeName(file.QuantityTypes, DefaultQuantityType, "quantity_type"),
		DimensionType: v.typeName(file.DimensionTypes, DefaultDimensionType, "dimension_type"),
		Dimensions:    make([]defs.DimensionEntry, 0, len(file.Dimensions)),
		Units:         make([]defs.UnitTemplate, 0, len(file.Units)),
		Constants:     make([]defs.ConstantEntry, 0, len(file.Constants)),
	}

	for _, node := range file.Dimensions {
		templates.Dimensions = append(templates.Dimensions, v.dimension(node))
	}
	for _, node := range file.Units {
		if unit, ok := v.unit(node); ok {
			templates.Units = append(templates.Units, unit)
		}
	}
	for _, node := range file.Constants {
		templates.Constants = append(templates.Constants, v.constant(node))
	}

	if len(v.errors) == 0 {
		return templates, nil
	}
	return templates, v.errors
}

func (v *verifier) addError(err *Error) {
	v.errors = append(v.errors, err)
}

func (v *verifier) typeName(nodes []*ast.TypeNameNode, fallback, keyword string) defs.Ident {
	if len(nodes) == 0 {
		return defs.Ident{Name: fallback}
	}
	for _, dup := range nodes[1:] {
		v.addError(newError(cerrors.ErrDuplicateTypeName, dup.Loc,
			"%s declared more than once (first declared at %s)", keyword, nodes[0].Loc))
	}
	return defs.Ident{Name: nodes[0].Name, Loc: nodes[0].Loc}
}

func (v *verifier) dimension(node *ast.DimensionNode) defs.DimensionEntry {
	v.rejectAnnotations(node.Annotations, "dimension")

	entry := defs.DimensionEntry{Name: defs.Ident{Name: node.Name, Loc: node.NameLoc}}
	if node.Definition == nil {
		return entry
	}

	entry.Expr = expr.Map(node.Definition, func(op ast.Operand) defs.Atom[defs.One] {
		if op.Kind == ast.OperandName {
			return defs.Ref[defs.One](defs.Ident{Name: op.Name, Loc: op.Loc})
		}
		if !op.IsInt || op.Number != 1 {
			v.addError(newError(cerrors.ErrInvalidDimensionLiteral, op.Loc,
				"dimension %s may only contain dimension names and the literal 1, found %s", node.Name, op).
				withSuggestion("scale factors belong in unit definitions, not dimensions"))
		}
		return defs.Concrete(defs.One{})
	}, v.exponent)
	return entry
}

func (v *verifier) constant(node *ast.ConstantNode) defs.ConstantEntry {
	v.rejectAnnotations(node.Annotations, "constant")

	return defs.ConstantEntry{
		Name:                defs.Ident{Name: node.Name, Loc: node.NameLoc},
		Expr:                v.unitExpr(node.Definition),
		DimensionAnnotation: identOf(node.DimensionAnnotation),
	}
}

func (v *verifier) unit(node *ast.UnitNode) (defs.UnitTemplate, bool) {
	before := len(v.errors)

	template := defs.UnitTemplate{
		Name:                defs.Ident{Name: node.Name, Loc: node.NameLoc},
		DimensionAnnotation: identOf(node.DimensionAnnotation),
	}
	base := v.unitAnnotations(node, &template)

	switch {
	case base != nil && node.Definition != nil:
		v.addError(newError(cerrors.ErrBaseUnitWithDefinition, ast.ExprLocation(node.Definition),
			"base unit %s cannot also have a definition", node.Name).
			withSuggestion(fmt.Sprintf("remove @base(%s) or the '= ...' definition", base.Name)))
	case base != nil && node.DimensionAnnotation != nil:
		v.addError(newError(cerrors.ErrAnnotationNotAllowed, node.DimensionAnnotation.Loc,
			"base unit %s declares its dimension with @base, not ': %s'", node.Name, node.DimensionAnnotation.Name))
	case base != nil:
		template.Definition = defs.UnitDefinition{BaseDimension: base}
	case node.Definition != nil:
		template.Definition = defs.UnitDefinition{Expr: v.unitExpr(node.Definition)}
	default:
		v.addError(newError(cerrors.ErrMissingUnitDefinition, node.NameLoc,
			"unit %s needs either @base(Dimension) or a definition", node.Name).
			withSuggestion(fmt.Sprintf("@base(Length) unit %s  or  unit %s = 1000 * meters", node.Name, node.Name)))
	}

	return template, len(v.errors) == before
}

// unitAnnotations applies the annotations of node to template and returns the
// @base dimension, if any.
func (v *verifier) unitAnnotations(node *ast.UnitNode, template *defs.UnitTemplate) *defs.Ident {
	var base *defs.Ident
	seen := make(map[string]ast.SourceLocation)
	prefixSeen := make(map[string]bool)

	addPrefixes := func(loc ast.SourceLocation, prefixes ...defs.Prefix) {
		for _, p := range prefixes {
			if prefixSeen[p.Name] {
				v.addError(newError(cerrors.ErrDuplicatePrefix, loc,
					"prefix %s given more than once for unit %s", p.Name, node.Name))
				continue
			}
			prefixSeen[p.Name] = true
			template.Prefixes = append(template.Prefixes, p)
		}
	}

	for _, a := range node.Annotations {
		switch a.Name {
		case "base", "symbol", "metric_prefixes", "binary_prefixes":
			if first, dup := seen[a.Name]; dup {
				v.addError(newError(cerrors.ErrDuplicateAnnotation, a.Loc,
					"@%s given more than once (first at %s)", a.Name, first))
				continue
			}
			seen[a.Name] = a.Loc
		}

		switch a.Name {
		case "base":
			if len(a.Args) != 1 || a.Args[0].Kind != ast.ArgIdent {
				v.addError(newError(cerrors.ErrInvalidAnnotationArgs, a.Loc,
					"@base takes exactly one dimension name").withSuggestion("@base(Length)"))
				continue
			}
			base = &defs.Ident{Name: a.Args[0].Name, Loc: a.Args[0].Loc}

		case "symbol":
			if len(a.Args) != 1 || (a.Args[0].Kind != ast.ArgIdent && a.Args[0].Kind != ast.ArgString) {
				v.addError(newError(cerrors.ErrInvalidAnnotationArgs, a.Loc,
					"@symbol takes exactly one symbol").withSuggestion(`@symbol(m) or @symbol("μm")`))
				continue
			}
			text := a.Args[0].Name
			if a.Args[0].Kind == ast.ArgString {
				text = a.Args[0].Text
			}
			if strings.TrimSpace(text) == "" {
				v.addError(newError(cerrors.ErrEmptySymbol, a.Args[0].Loc, "symbol of unit %s is empty", node.Name))
				continue
			}
			template.Symbol = &defs.Symbol{Text: text, Loc: a.Args[0].Loc}

		case "prefix":
			if len(a.Args) == 0 {
				v.addError(newError(cerrors.ErrInvalidAnnotationArgs, a.Loc,
					"@prefix needs at least one prefix").withSuggestion(`@prefix(kilo, milli) or @prefix(myria("my", 1e4))`))
				continue
			}
			for _, arg := range a.Args {
				if p, ok := v.prefix(arg); ok {
					addPrefixes(arg.Loc, p)
				}
			}

		case "metric_prefixes", "binary_prefixes":
			if len(a.Args) != 0 {
				v.addError(newError(cerrors.ErrInvalidAnnotationArgs, a.Loc, "@%s takes no arguments", a.Name))
				continue
			}
			if a.Name == "metric_prefixes" {
				addPrefixes(a.Loc, defs.MetricPrefixes...)
			} else {
				addPrefixes(a.Loc, defs.BinaryPrefixes...)
			}

		case "alias":
			if len(a.Args) == 0 {
				v.addError(newError(cerrors.ErrInvalidAnnotationArgs, a.Loc,
					"@alias needs at least one name").withSuggestion("@alias(meter, metres)"))
				continue
			}
			for _, arg := range a.Args {
				if arg.Kind != ast.ArgIdent {
					v.addError(newError(cerrors.ErrInvalidAnnotationArgs, arg.Loc, "alias must be a plain name"))
					continue
				}
				template.Aliases = append(template.Aliases, defs.Alias{Name: defs.Ident{Name: arg.Name, Loc: arg.Loc}})
			}

		default:
			v.addError(newError(cerrors.ErrUnknownAnnotation, a.Loc, "unknown annotation @%s", a.Name).
				withSuggestion("known annotations: @base, @symbol, @prefix, @metric_prefixes, @binary_prefixes, @alias"))
		}
	}

	return base
}

// prefix converts one @prefix argument: a built-in name or name("short", factor).
func (v *verifier) prefix(arg *ast.AnnotationArg) (defs.Prefix, bool) {
	switch arg.Kind {
	case ast.ArgIdent:
		p, ok := defs.LookupPrefix(arg.Name)
		if !ok {
			v.addError(newError(cerrors.ErrUnknownPrefix, arg.Loc, "unknown prefix %s", arg.Name).
				withSuggestion(fmt.Sprintf(`declare it explicitly: @prefix(%s("short", factor))`, arg.Name)))
		}
		return p, ok

	case ast.ArgCall:
		if len(arg.Args) == 2 && arg.Args[0].Kind == ast.ArgString && arg.Args[1].Kind == ast.ArgNumber {
			if arg.Args[1].Number <= 0 {
				v.addError(newError(cerrors.ErrInvalidAnnotationArgs, arg.Args[1].Loc,
					"prefix %s must have a positive factor", arg.Name))
				return defs.Prefix{}, false
			}
			return defs.Prefix{Name: arg.Name, Short: arg.Args[0].Text, Factor: arg.Args[1].Number}, true
		}
	}

	v.addError(newError(cerrors.ErrInvalidAnnotationArgs, arg.Loc,
		"invalid prefix, expected a built-in prefix name or name(\"short\", factor)").
		withSuggestion(`@prefix(kilo) or @prefix(myria("my", 1e4))`))
	return defs.Prefix{}, false
}

func (v *verifier) unitExpr(e *ast.Expr) *defs.UnitExpr {
	return expr.Map(e, func(op ast.Operand) defs.Atom[float64] {
		if op.Kind == ast.OperandName {
			return defs.Ref[float64](defs.Ident{Name: op.Name, Loc: op.Loc})
		}
		return defs.Concrete(op.Number)
	}, v.exponent)
}

func (v *verifier) exponent(lit ast.ExponentLit) exponent.Exponent {
	e, err := exponent.Make(lit.Num, lit.Den)
	if err != nil {
		v.addError(newError(cerrors.ErrInvalidExponent, lit.Loc, "invalid exponent %d/%d: %v", lit.Num, lit.Den, err))
		return exponent.Int(0)
	}
	if e.IsInt() || v.opts.RationalExponents {
		return e
	}
	if e.Equal(exponent.New(1, 2)) || e.Equal(exponent.New(1, 3)) {
		return e
	}
	v.addError(newError(cerrors.ErrRationalExponent, lit.Loc,
		"exponent %s is not an integer and rational exponents are disabled", e).
		withSuggestion("set build.rational_exponents: true in dimc.yml"))
	return e
}

func (v *verifier) rejectAnnotations(annotations []*ast.AnnotationNode, kind string) {
	for _, a := range annotations {
		v.addError(newError(cerrors.ErrAnnotationNotAllowed, a.Loc, "@%s is not allowed on a %s", a.Name, kind))
	}
}

func identOf(node *ast.IdentNode) *defs.Ident {
	if node == nil {
		return nil
	}
	return &defs.Ident{Name: node.Name, Loc: node.Loc}
}
