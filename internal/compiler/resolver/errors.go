package resolver

import (
	"fmt"
	"strings"

	cerrors "github.com/dimc-lang/dimc/compiler/errors"
	"github.com/dimc-lang/dimc/internal/compiler/ast"
	"github.com/dimc-lang/dimc/internal/compiler/defs"
	"github.com/dimc-lang/dimc/internal/compiler/exponent"
)

// ErrorKind classifies resolution failures. Every kind is fatal for the
// compilation.
type ErrorKind int

const (
	// UnknownReference: an expression names an identifier that is declared
	// nowhere.
	UnknownReference ErrorKind = iota
	// CyclicDefinition: an entry depends on itself.
	CyclicDefinition
	// DimensionMismatch: a dimension annotation disagrees with the inferred
	// dimension.
	DimensionMismatch
	// InvalidRootOperation: a root or fractional power of a dimension with a
	// component that is not divisible.
	InvalidRootOperation
	// DuplicateSymbol: two unit entries share a symbol.
	DuplicateSymbol
	// DuplicateDefinition: a name is declared twice across dimensions,
	// units and constants.
	DuplicateDefinition
	// KindMismatch: a dimension expression references a unit or constant,
	// or a unit/constant expression references a dimension.
	KindMismatch
	// InvalidAnnotation: a dimension annotation or @base names something
	// that is not a dimension.
	InvalidAnnotation
	// InvalidMagnitude: the magnitude evaluates to NaN, infinity or zero.
	InvalidMagnitude
	// ExponentOverflow: a dimension exponent does not fit in int64.
	ExponentOverflow
)

var kindNames = map[ErrorKind]string{
	UnknownReference:     "unknown reference",
	CyclicDefinition:     "cyclic definition",
	DimensionMismatch:    "dimension mismatch",
	InvalidRootOperation: "invalid root operation",
	DuplicateSymbol:      "duplicate symbol",
	DuplicateDefinition:  "duplicate definition",
	KindMismatch:         "kind mismatch",
	InvalidAnnotation:    "invalid annotation",
	InvalidMagnitude:     "invalid magnitude",
	ExponentOverflow:     "exponent overflow",
}

var kindCodes = map[ErrorKind]string{
	UnknownReference:     cerrors.ErrUnknownReference,
	CyclicDefinition:     cerrors.ErrCyclicDefinition,
	DimensionMismatch:    cerrors.ErrDimensionMismatch,
	InvalidRootOperation: cerrors.ErrInvalidRootOperation,
	DuplicateSymbol:      cerrors.ErrDuplicateSymbol,
	DuplicateDefinition:  cerrors.ErrDuplicateDefinition,
	KindMismatch:         cerrors.ErrKindMismatch,
	InvalidAnnotation:    cerrors.ErrInvalidDimensionAnnotation,
	InvalidMagnitude:     cerrors.ErrInvalidMagnitude,
	ExponentOverflow:     cerrors.ErrExponentOverflow,
}

// String returns the human-readable name of the kind.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Code returns the diagnostic code of the kind.
func (k ErrorKind) Code() string {
	return kindCodes[k]
}

// Error is a resolution failure tied to the declaration it occurred in.
// Only the fields relevant to Kind are set.
type Error struct {
	Kind  ErrorKind
	Entry defs.Ident         // offending declaration
	Loc   ast.SourceLocation // most precise position, e.g. the bad reference

	// AutogeneratedFrom names the template of an expanded unit entry.
	AutogeneratedFrom *defs.Ident

	// UnknownReference, KindMismatch, InvalidAnnotation
	Reference    string
	ExpectedKind string
	ActualKind   string

	// CyclicDefinition: entry point first and last
	Chain []string

	// DimensionMismatch
	Inferred string
	Declared string

	// InvalidRootOperation, ExponentOverflow
	Operation string
	Dimension string
	Exponent  exponent.Exponent

	// DuplicateSymbol, DuplicateDefinition: the earlier declaration
	Symbol   string
	Previous *defs.Ident

	// InvalidMagnitude
	Magnitude float64
}

// Error implements the error interface
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case UnknownReference:
		msg = fmt.Sprintf("unknown identifier %s in definition of %s", e.Reference, e.Entry.Name)
	case CyclicDefinition:
		msg = fmt.Sprintf("cyclic definition: %s", strings.Join(e.Chain, " -> "))
	case DimensionMismatch:
		msg = fmt.Sprintf("dimension mismatch in %s: inferred %s, declared %s", e.Entry.Name, e.Inferred, e.Declared)
	case InvalidRootOperation:
		msg = fmt.Sprintf("invalid %s in %s: exponent %s of dimension %s is not divisible",
			e.Operation, e.Entry.Name, e.Exponent, e.Dimension)
	case DuplicateSymbol:
		msg = fmt.Sprintf("symbol %q of %s is already used by %s", e.Symbol, e.Entry.Name, e.Previous.Name)
	case DuplicateDefinition:
		msg = fmt.Sprintf("%s is already defined at %s", e.Entry.Name, e.Previous.Loc)
	case KindMismatch:
		msg = fmt.Sprintf("%s references %s %s where a %s is expected",
			e.Entry.Name, e.ActualKind, e.Reference, e.ExpectedKind)
	case InvalidAnnotation:
		msg = fmt.Sprintf("dimension annotation of %s must name a dimension, but %s is a %s",
			e.Entry.Name, e.Reference, e.ActualKind)
	case InvalidMagnitude:
		msg = fmt.Sprintf("magnitude of %s is %g", e.Entry.Name, e.Magnitude)
	case ExponentOverflow:
		msg = fmt.Sprintf("exponent of dimension %s is out of range in %s of %s",
			e.Dimension, e.Operation, e.Entry.Name)
	default:
		msg = fmt.Sprintf("%s in %s", e.Kind, e.Entry.Name)
	}

	if e.AutogeneratedFrom != nil {
		msg += fmt.Sprintf(" (%s is autogenerated from %s)", e.Entry.Name, e.AutogeneratedFrom.Name)
	}
	return msg
}

// Code returns the diagnostic code for the error.
func (e *Error) Code() string {
	return e.Kind.Code()
}
