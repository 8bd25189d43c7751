package codegen

import (
	"fmt"
	"go/token"

	"github.com/iancoleman/strcase"

	cerrors "github.com/dimc-lang/dimc/compiler/errors"
	"github.com/dimc-lang/dimc/internal/compiler/defs"
	"github.com/dimc-lang/dimc/internal/compiler/dimension"
)

// dimensionMethods are declared on the runtime dimension struct and cannot
// be used as field names.
var dimensionMethods = map[string]bool{
	"Mul": true, "Div": true, "Inv": true, "Powi": true, "Pow": true,
	"Sqrt": true, "Cbrt": true, "IsNone": true, "String": true,
}

// nameTable maps every declared name to its Go identifier.
type nameTable struct {
	dimensionType string
	quantityType  string
	fields        []string
	dimensions    map[string]string
	units         map[string]string
	constants     map[string]string

	taken map[string]string
}

// goName converts a declared name to an exported Go identifier.
func goName(name string) string {
	return strcase.ToCamel(name)
}

func newNameTable(r *defs.ResolvedDefs) (*nameTable, error) {
	t := &nameTable{
		dimensions: make(map[string]string),
		units:      make(map[string]string),
		constants:  make(map[string]string),
		taken:      make(map[string]string),
	}

	var err error
	if t.dimensionType, err = t.claim(r.DimensionType, "dimension type"); err != nil {
		return nil, err
	}
	if t.quantityType, err = t.claim(r.QuantityType, "quantity type"); err != nil {
		return nil, err
	}
	if r.Space.Mode() == dimension.RationalExponents {
		if _, err := t.claim(defs.Ident{Name: "Exponent"}, "runtime type"); err != nil {
			return nil, err
		}
	}

	fields := make(map[string]string)
	for _, base := range r.Dimensions {
		if !base.IsBase {
			continue
		}
		field, err := checkIdentifier(base.Name)
		if err != nil {
			return nil, err
		}
		if dimensionMethods[field] {
			return nil, collision(base.Name, field, "a method of "+t.dimensionType)
		}
		if prev, ok := fields[field]; ok {
			return nil, collision(base.Name, field, "base dimension "+prev)
		}
		fields[field] = base.Name.Name
		t.fields = append(t.fields, field)
	}

	for _, d := range r.Dimensions {
		if t.dimensions[d.Name.Name], err = t.claim(d.Name, "dimension"); err != nil {
			return nil, err
		}
	}
	for _, u := range r.Units {
		if t.units[u.Name.Name], err = t.claim(u.Name, "unit"); err != nil {
			return nil, err
		}
	}
	for _, c := range r.Constants {
		if t.constants[c.Name.Name], err = t.claim(c.Name, "constant"); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// claim reserves the Go identifier of id at package level.
func (t *nameTable) claim(id defs.Ident, kind string) (string, error) {
	name, err := checkIdentifier(id)
	if err != nil {
		return "", err
	}
	if prev, ok := t.taken[name]; ok {
		return "", collision(id, name, prev)
	}
	t.taken[name] = fmt.Sprintf("%s %s", kind, id.Name)
	return name, nil
}

func checkIdentifier(id defs.Ident) (string, error) {
	name := goName(id.Name)
	if !token.IsIdentifier(name) || !token.IsExported(name) {
		return "", &Error{
			Code:    cerrors.ErrInvalidGoIdentifier,
			Message: fmt.Sprintf("cannot be turned into an exported Go identifier (got %q)", name),
			Name:    id.Name,
			Loc:     id.Loc,
		}
	}
	return name, nil
}

func collision(id defs.Ident, name, prev string) *Error {
	return &Error{
		Code:    cerrors.ErrNameCollision,
		Message: fmt.Sprintf("Go identifier %s is already used by %s", name, prev),
		Name:    id.Name,
		Loc:     id.Loc,
	}
}

// validatePackageName accepts lower-case Go identifiers.
func validatePackageName(name string) error {
	if !token.IsIdentifier(name) || token.IsExported(name) || name == "_" {
		return &Error{
			Code:    cerrors.ErrInvalidPackageName,
			Message: fmt.Sprintf("invalid package name %q", name),
		}
	}
	return nil
}
