package codegen

import (
	"fmt"

	"github.com/dimc-lang/dimc/internal/compiler/ast"
)

// Error is a code generation failure. Loc is the declaration of the
// offending name when there is one.
type Error struct {
	Code    string
	Message string
	Name    string
	Loc     ast.SourceLocation
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}
