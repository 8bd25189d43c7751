// Package parser implements the unit definition parser, transforming token streams into Abstract Syntax Trees (ASTs).
// It uses recursive descent parsing with panic mode error recovery to handle syntax errors gracefully.
package parser

import (
	"fmt"

	"github.com/dimc-lang/dimc/internal/compiler/ast"
	"github.com/dimc-lang/dimc/internal/compiler/lexer"
)

// ParseError represents an error encountered during parsing
type ParseError struct {
	Message  string
	Location ast.SourceLocation
	Token    lexer.Token
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Token.Type == lexer.TOKEN_EOF {
		return fmt.Sprintf("Parse error at %d:%d: %s (at end of file)",
			e.Location.Line, e.Location.Column, e.Message)
	}
	return fmt.Sprintf("Parse error at %d:%d: %s (near '%s')",
		e.Location.Line, e.Location.Column, e.Message, e.Token.Lexeme)
}

// NewParseError creates a new parse error
func NewParseError(message string, token lexer.Token) ParseError {
	return ParseError{
		Message: message,
		Location: ast.SourceLocation{
			Line:   token.Line,
			Column: token.Column,
		},
		Token: token,
	}
}
