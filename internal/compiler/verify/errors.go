package verify

import (
	"fmt"
	"strings"

	"github.com/dimc-lang/dimc/internal/compiler/ast"
)

// Error is a shape error found while verifying a parsed file.
type Error struct {
	Code       string             `json:"code"`
	Message    string             `json:"message"`
	Location   ast.SourceLocation `json:"location"`
	Suggestion string             `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s [%s]", e.Location.Line, e.Location.Column, e.Message, e.Code)
}

// Format returns a human-readable error message for terminal output
func (e *Error) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: ERROR [%s]\n", "<source>", e.Location.Line, e.Location.Column, e.Code)
	fmt.Fprintf(&b, "  %s\n", e.Message)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s\n", e.Suggestion)
	}
	return b.String()
}

// ErrorList is a collection of verification errors
type ErrorList []*Error

// Error implements the error interface
func (l ErrorList) Error() string {
	if len(l) == 0 {
		return "no errors"
	}
	if len(l) == 1 {
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

func newError(code string, loc ast.SourceLocation, format string, args ...interface{}) *Error {
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	}
}

func (e *Error) withSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}
