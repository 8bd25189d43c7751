// Package resolver turns verified, expanded but still symbolic definitions
// into the resolved table: every dimension, unit and constant reduced to an
// exponent vector over the base dimensions, and every unit and constant to a
// magnitude relative to the base units.
//
// Dimensions, units and constants share one namespace. Entries are resolved
// depth first on demand; results are memoized and an in-progress marker
// detects cycles. Dimension vectors and magnitudes are evaluated in lock-step
// over the same expression tree.
package resolver

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/dimc-lang/dimc/internal/compiler/defs"
	"github.com/dimc-lang/dimc/internal/compiler/dimension"
	"github.com/dimc-lang/dimc/internal/compiler/exponent"
	"github.com/dimc-lang/dimc/internal/compiler/expr"
)

type entryKind int

const (
	kindDimension entryKind = iota
	kindUnit
	kindConstant
)

func (k entryKind) String() string {
	switch k {
	case kindDimension:
		return "dimension"
	case kindUnit:
		return "unit"
	default:
		return "constant"
	}
}

type state int

const (
	unvisited state = iota
	inProgress
	done
	failed
)

// node is one named entry of the namespace.
type node struct {
	kind     entryKind
	name     defs.Ident
	dim      *defs.DimensionEntry
	unit     *defs.UnitEntry
	constant *defs.ConstantEntry
}

func (n *node) autogeneratedFrom() *defs.Ident {
	if n.unit != nil {
		return n.unit.AutogeneratedFrom
	}
	return nil
}

// value is a resolved (vector, magnitude) pair.
type value struct {
	vec dimension.Vector
	mag float64
}

// lockstep evaluates vectors and magnitudes together: multiply with
// multiply, divide with divide, power with power.
type lockstep struct {
	space *dimension.Space
}

func (l lockstep) Mul(a, b value) (value, error) {
	vec, err := l.space.Mul(a.vec, b.vec)
	if err != nil {
		return value{}, err
	}
	return value{vec: vec, mag: a.mag * b.mag}, nil
}

func (l lockstep) Div(a, b value) (value, error) {
	vec, err := l.space.Div(a.vec, b.vec)
	if err != nil {
		return value{}, err
	}
	return value{vec: vec, mag: a.mag / b.mag}, nil
}

func (l lockstep) Pow(a value, e exponent.Exponent) (value, error) {
	vec, err := l.space.Pow(a.vec, e)
	if err != nil {
		return value{}, err
	}
	return value{vec: vec, mag: e.Pow(a.mag)}, nil
}

// Option configures a resolution run.
type Option func(*Resolver)

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMode selects integer or rational exponents. Integer is the default.
func WithMode(mode dimension.Mode) Option {
	return func(r *Resolver) {
		r.mode = mode
	}
}

// Resolver holds the state of a single resolution run. It is not reusable
// and not safe for concurrent use.
type Resolver struct {
	input  *defs.UnresolvedDefs
	mode   dimension.Mode
	logger *zap.Logger

	space   *dimension.Space
	algebra lockstep
	nodes   map[string]*node
	states  map[string]state
	cache   map[string]value
	errs    map[string]error
	stack   []string
}

// Resolve resolves every entry of input. The first failure aborts the run
// and is returned as a *Error; there is no partial result.
func Resolve(input *defs.UnresolvedDefs, opts ...Option) (*defs.ResolvedDefs, error) {
	return newResolver(input, opts...).run()
}

func newResolver(input *defs.UnresolvedDefs, opts ...Option) *Resolver {
	r := &Resolver{
		input:  input,
		mode:   dimension.IntegerExponents,
		logger: zap.NewNop(),
		nodes:  make(map[string]*node),
		states: make(map[string]state),
		cache:  make(map[string]value),
		errs:   make(map[string]error),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) run() (*defs.ResolvedDefs, error) {
	start := time.Now()

	baseNames := make([]string, 0)
	for _, b := range r.input.BaseDimensions() {
		baseNames = append(baseNames, b.Name)
	}
	r.space = dimension.NewSpace(baseNames, r.mode)
	r.algebra = lockstep{space: r.space}

	if err := r.index(); err != nil {
		return nil, err
	}
	if err := r.checkSymbols(); err != nil {
		return nil, err
	}

	out := &defs.ResolvedDefs{
		QuantityType:  r.input.QuantityType,
		DimensionType: r.input.DimensionType,
		Space:         r.space,
		Dimensions:    make([]defs.Dimension, 0, len(r.input.Dimensions)),
		Units:         make([]defs.Unit, 0, len(r.input.Units)),
		Constants:     make([]defs.Constant, 0, len(r.input.Constants)),
	}

	for _, d := range r.input.Dimensions {
		v, err := r.resolveNode(r.nodes[d.Name.Name])
		if err != nil {
			return nil, err
		}
		out.Dimensions = append(out.Dimensions, defs.Dimension{
			Name:   d.Name,
			Vector: v.vec,
			IsBase: d.IsBase(),
		})
	}

	for _, u := range r.input.Units {
		v, err := r.resolveNode(r.nodes[u.Name.Name])
		if err != nil {
			return nil, err
		}
		out.Units = append(out.Units, defs.Unit{
			Name:              u.Name,
			Symbol:            u.Symbol,
			Vector:            v.vec,
			Magnitude:         v.mag,
			IsBaseUnit:        u.Definition.IsBase(),
			AutogeneratedFrom: u.AutogeneratedFrom,
		})
	}

	for _, c := range r.input.Constants {
		v, err := r.resolveNode(r.nodes[c.Name.Name])
		if err != nil {
			return nil, err
		}
		out.Constants = append(out.Constants, defs.Constant{
			Name:      c.Name,
			Vector:    v.vec,
			Magnitude: v.mag,
		})
	}

	r.logger.Debug("resolution finished",
		zap.Int("base_dimensions", len(baseNames)),
		zap.Int("dimensions", len(out.Dimensions)),
		zap.Int("units", len(out.Units)),
		zap.Int("constants", len(out.Constants)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// index builds the flat namespace and rejects duplicate names.
func (r *Resolver) index() error {
	add := func(n *node) error {
		if prev, ok := r.nodes[n.name.Name]; ok {
			previous := prev.name
			return &Error{
				Kind:              DuplicateDefinition,
				Entry:             n.name,
				Loc:               n.name.Loc,
				Previous:          &previous,
				AutogeneratedFrom: n.autogeneratedFrom(),
			}
		}
		r.nodes[n.name.Name] = n
		return nil
	}

	for i := range r.input.Dimensions {
		d := &r.input.Dimensions[i]
		if err := add(&node{kind: kindDimension, name: d.Name, dim: d}); err != nil {
			return err
		}
	}
	for i := range r.input.Units {
		u := &r.input.Units[i]
		if err := add(&node{kind: kindUnit, name: u.Name, unit: u}); err != nil {
			return err
		}
	}
	for i := range r.input.Constants {
		c := &r.input.Constants[i]
		if err := add(&node{kind: kindConstant, name: c.Name, constant: c}); err != nil {
			return err
		}
	}
	return nil
}

// checkSymbols rejects two unit entries with the same symbol. Expansion only
// gives symbols to unaliased entries, but prefixes and symbols are free text
// (e.g. milli "m" on a unit with symbol "in" next to a unit "min").
func (r *Resolver) checkSymbols() error {
	seen := make(map[string]*defs.UnitEntry)
	for i := range r.input.Units {
		u := &r.input.Units[i]
		if u.Symbol == nil {
			continue
		}
		if prev, ok := seen[u.Symbol.Text]; ok {
			previous := prev.Name
			return &Error{
				Kind:              DuplicateSymbol,
				Entry:             u.Name,
				Loc:               u.Symbol.Loc,
				Symbol:            u.Symbol.Text,
				Previous:          &previous,
				AutogeneratedFrom: u.AutogeneratedFrom,
			}
		}
		seen[u.Symbol.Text] = u
	}
	return nil
}

// resolveNode returns the memoized value of n, computing it on first use.
// Failures are memoized too, so asking again returns the same error.
func (r *Resolver) resolveNode(n *node) (value, error) {
	switch r.states[n.name.Name] {
	case done:
		return r.cache[n.name.Name], nil
	case failed:
		return value{}, r.errs[n.name.Name]
	case inProgress:
		return value{}, r.cycleError(n)
	}

	r.states[n.name.Name] = inProgress
	r.stack = append(r.stack, n.name.Name)

	v, err := r.compute(n)

	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		r.states[n.name.Name] = failed
		r.errs[n.name.Name] = err
		return value{}, err
	}

	r.states[n.name.Name] = done
	r.cache[n.name.Name] = v

	r.logger.Debug("resolved",
		zap.String("kind", n.kind.String()),
		zap.String("name", n.name.Name),
		zap.String("dimension", r.space.Format(v.vec)),
		zap.Float64("magnitude", v.mag),
	)
	return v, nil
}

func (r *Resolver) cycleError(n *node) *Error {
	startIdx := 0
	for i, name := range r.stack {
		if name == n.name.Name {
			startIdx = i
			break
		}
	}
	chain := append(append([]string(nil), r.stack[startIdx:]...), n.name.Name)
	return &Error{
		Kind:              CyclicDefinition,
		Entry:             n.name,
		Loc:               n.name.Loc,
		Chain:             chain,
		AutogeneratedFrom: n.autogeneratedFrom(),
	}
}

func (r *Resolver) compute(n *node) (value, error) {
	switch n.kind {
	case kindDimension:
		return r.computeDimension(n)
	case kindUnit:
		return r.computeUnit(n)
	default:
		return r.computeConstant(n)
	}
}

func (r *Resolver) computeDimension(n *node) (value, error) {
	if n.dim.IsBase() {
		vec, _ := r.space.Base(n.name.Name)
		return value{vec: vec, mag: 1}, nil
	}

	v, err := expr.Evaluate(n.dim.Expr, expr.Algebra[value, exponent.Exponent](r.algebra), func(a defs.Atom[defs.One]) (value, error) {
		if !a.IsRef() {
			return value{vec: r.space.None(), mag: 1}, nil
		}
		return r.resolveRef(n, *a.Ref, kindDimension)
	})
	if err != nil {
		return value{}, r.wrap(n, err)
	}
	// Dimensions carry no magnitude.
	v.mag = 1
	return v, nil
}

func (r *Resolver) computeUnit(n *node) (value, error) {
	def := n.unit.Definition

	var v value
	if def.IsBase() {
		dim, err := r.resolveAnnotation(n, *def.BaseDimension)
		if err != nil {
			return value{}, err
		}
		v = value{vec: dim.vec, mag: 1}
	} else {
		var err error
		if v, err = r.evaluateQuantity(n, def.Expr); err != nil {
			return value{}, err
		}
	}

	return v, r.checkQuantity(n, v, n.unit.DimensionAnnotation)
}

func (r *Resolver) computeConstant(n *node) (value, error) {
	v, err := r.evaluateQuantity(n, n.constant.Expr)
	if err != nil {
		return value{}, err
	}
	return v, r.checkQuantity(n, v, n.constant.DimensionAnnotation)
}

// evaluateQuantity evaluates a unit or constant expression.
func (r *Resolver) evaluateQuantity(n *node, e *defs.UnitExpr) (value, error) {
	v, err := expr.Evaluate(e, expr.Algebra[value, exponent.Exponent](r.algebra), func(a defs.Atom[float64]) (value, error) {
		if !a.IsRef() {
			return value{vec: r.space.None(), mag: a.Concrete}, nil
		}
		return r.resolveRef(n, *a.Ref, kindUnit, kindConstant)
	})
	if err != nil {
		return value{}, r.wrap(n, err)
	}
	return v, nil
}

// checkQuantity cross-checks the dimension annotation and the magnitude.
func (r *Resolver) checkQuantity(n *node, v value, annotation *defs.Ident) error {
	if annotation != nil {
		declared, err := r.resolveAnnotation(n, *annotation)
		if err != nil {
			return err
		}
		if !declared.vec.Equal(v.vec) {
			return &Error{
				Kind:              DimensionMismatch,
				Entry:             n.name,
				Loc:               annotation.Loc,
				Inferred:          r.space.Format(v.vec),
				Declared:          annotation.Name + " " + r.space.Format(declared.vec),
				AutogeneratedFrom: n.autogeneratedFrom(),
			}
		}
	}

	if math.IsNaN(v.mag) || math.IsInf(v.mag, 0) || v.mag == 0 {
		return &Error{
			Kind:              InvalidMagnitude,
			Entry:             n.name,
			Loc:               n.name.Loc,
			Magnitude:         v.mag,
			AutogeneratedFrom: n.autogeneratedFrom(),
		}
	}
	return nil
}

// resolveAnnotation resolves a name that must be a dimension: a dimension
// annotation or the argument of @base.
func (r *Resolver) resolveAnnotation(from *node, ref defs.Ident) (value, error) {
	target, ok := r.nodes[ref.Name]
	if !ok {
		return value{}, r.unknown(from, ref)
	}
	if target.kind != kindDimension {
		return value{}, &Error{
			Kind:              InvalidAnnotation,
			Entry:             from.name,
			Loc:               ref.Loc,
			Reference:         ref.Name,
			ExpectedKind:      kindDimension.String(),
			ActualKind:        target.kind.String(),
			AutogeneratedFrom: from.autogeneratedFrom(),
		}
	}
	return r.resolveNode(target)
}

// resolveRef resolves a name referenced from the expression of from.
func (r *Resolver) resolveRef(from *node, ref defs.Ident, allowed ...entryKind) (value, error) {
	target, ok := r.nodes[ref.Name]
	if !ok {
		return value{}, r.unknown(from, ref)
	}

	for _, k := range allowed {
		if target.kind == k {
			return r.resolveNode(target)
		}
	}

	expected := allowed[0].String()
	if len(allowed) > 1 {
		expected = "unit or constant"
	}
	return value{}, &Error{
		Kind:              KindMismatch,
		Entry:             from.name,
		Loc:               ref.Loc,
		Reference:         ref.Name,
		ExpectedKind:      expected,
		ActualKind:        target.kind.String(),
		AutogeneratedFrom: from.autogeneratedFrom(),
	}
}

func (r *Resolver) unknown(from *node, ref defs.Ident) *Error {
	return &Error{
		Kind:              UnknownReference,
		Entry:             from.name,
		Loc:               ref.Loc,
		Reference:         ref.Name,
		AutogeneratedFrom: from.autogeneratedFrom(),
	}
}

// wrap passes resolver errors through and turns a failed root into an
// InvalidRootOperation of entry n, an out of range exponent into an
// ExponentOverflow.
func (r *Resolver) wrap(n *node, err error) error {
	var resolveErr *Error
	if errors.As(err, &resolveErr) {
		return resolveErr
	}

	var rootErr *dimension.RootError
	if errors.As(err, &rootErr) {
		return &Error{
			Kind:              InvalidRootOperation,
			Entry:             n.name,
			Loc:               n.name.Loc,
			Operation:         rootErr.Operation,
			Dimension:         rootErr.Dimension,
			Exponent:          rootErr.Exponent,
			AutogeneratedFrom: n.autogeneratedFrom(),
		}
	}

	var overflowErr *dimension.OverflowError
	if errors.As(err, &overflowErr) {
		return &Error{
			Kind:              ExponentOverflow,
			Entry:             n.name,
			Loc:               n.name.Loc,
			Operation:         overflowErr.Operation,
			Dimension:         overflowErr.Dimension,
			AutogeneratedFrom: n.autogeneratedFrom(),
		}
	}
	return err
}
