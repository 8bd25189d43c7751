package pipeline

import (
	"errors"
	"fmt"
	"strings"

	cerrors "github.com/dimc-lang/dimc/compiler/errors"
	"github.com/dimc-lang/dimc/internal/compiler/ast"
	"github.com/dimc-lang/dimc/internal/compiler/codegen"
	"github.com/dimc-lang/dimc/internal/compiler/defs"
	"github.com/dimc-lang/dimc/internal/compiler/lexer"
	"github.com/dimc-lang/dimc/internal/compiler/parser"
	"github.com/dimc-lang/dimc/internal/compiler/resolver"
	"github.com/dimc-lang/dimc/internal/compiler/verify"
)

func (c *Compiler) location(loc ast.SourceLocation, length int) cerrors.SourceLocation {
	return cerrors.SourceLocation{
		File:   c.opts.File,
		Line:   loc.Line,
		Column: loc.Column,
		Length: length,
	}
}

func (c *Compiler) fromLexError(e lexer.LexError) cerrors.CompilerError {
	code := cerrors.ErrInvalidCharacter
	switch {
	case strings.HasPrefix(e.Message, "Unterminated string"):
		code = cerrors.ErrUnterminatedString
	case strings.HasPrefix(e.Message, "Invalid number"),
		strings.HasPrefix(e.Message, "Invalid integer"),
		strings.HasPrefix(e.Message, "Invalid float"):
		code = cerrors.ErrInvalidNumber
	case strings.HasPrefix(e.Message, "Expected annotation name"):
		code = cerrors.ErrInvalidAnnotation
	}
	loc := c.location(ast.SourceLocation{Line: e.Line, Column: e.Column}, len(e.Lexeme))
	return cerrors.New(code, e.Message, loc)
}

// parseCode maps a parser message onto its diagnostic code. Order matters:
// the more specific prefixes come first.
func parseCode(message string) string {
	switch {
	case strings.HasPrefix(message, "Expected ')'"):
		return cerrors.ErrUnmatchedParen
	case strings.HasPrefix(message, "Expected expression"),
		strings.HasPrefix(message, "Expected name, number or '('"):
		return cerrors.ErrExpectedExpression
	case strings.Contains(message, "xponent"):
		return cerrors.ErrInvalidExponent
	case strings.HasPrefix(message, "Expected '=' and a definition"):
		return cerrors.ErrMissingDefinition
	case strings.HasPrefix(message, "Dimensions cannot carry"),
		strings.HasPrefix(message, "Expected number after '-'"):
		return cerrors.ErrInvalidSyntax
	case strings.HasPrefix(message, "Expected") && strings.Contains(message, "name"):
		return cerrors.ErrExpectedIdentifier
	}
	return cerrors.ErrUnexpectedToken
}

func (c *Compiler) fromParseError(e parser.ParseError) cerrors.CompilerError {
	length := 0
	if e.Token.Type != lexer.TOKEN_EOF {
		length = len(e.Token.Lexeme)
	}
	return cerrors.New(parseCode(e.Message), e.Message, c.location(e.Location, length))
}

func (c *Compiler) fromVerifyError(e *verify.Error) cerrors.CompilerError {
	err := cerrors.New(e.Code, e.Message, c.location(e.Location, 0))
	if e.Suggestion != "" {
		err = err.WithHint(e.Suggestion)
	}
	return err
}

func (c *Compiler) fromResolveError(err error, input *defs.UnresolvedDefs) cerrors.CompilerError {
	var re *resolver.Error
	if !errors.As(err, &re) {
		return cerrors.NewCompilerError("resolve", cerrors.ErrUnknownReference, err.Error(),
			c.location(ast.SourceLocation{}, 0), cerrors.Fatal)
	}

	length := 0
	if re.Kind == resolver.UnknownReference {
		length = len(re.Reference)
	}
	diag := cerrors.New(re.Code(), re.Error(), c.location(re.Loc, length))

	switch re.Kind {
	case resolver.UnknownReference:
		if match := cerrors.ClosestMatch(re.Reference, declaredNames(input)); match != "" {
			diag = diag.WithHint(fmt.Sprintf("did you mean %s?", match))
		}
	case resolver.DuplicateDefinition, resolver.DuplicateSymbol:
		if re.Previous != nil {
			diag = diag.WithRelatedError(cerrors.NewCompilerError("resolve", re.Code(),
				fmt.Sprintf("%s is declared here", re.Previous.Name),
				c.location(re.Previous.Loc, 0), cerrors.Info))
		}
	}

	if re.AutogeneratedFrom != nil {
		diag = diag.WithRelatedError(cerrors.NewCompilerError("resolve", re.Code(),
			fmt.Sprintf("%s is generated by the prefixes and aliases of %s", re.Entry.Name, re.AutogeneratedFrom.Name),
			c.location(re.AutogeneratedFrom.Loc, 0), cerrors.Info))
	}
	return diag
}

func (c *Compiler) fromCodegenError(err error) cerrors.CompilerError {
	var ge *codegen.Error
	if !errors.As(err, &ge) {
		return cerrors.NewCompilerError("codegen", cerrors.ErrFormatFailed, err.Error(),
			c.location(ast.SourceLocation{}, 0), cerrors.Fatal)
	}
	return cerrors.New(ge.Code, ge.Error(), c.location(ge.Loc, 0))
}

func declaredNames(input *defs.UnresolvedDefs) []string {
	names := make([]string, 0, len(input.Dimensions)+len(input.Units)+len(input.Constants))
	for _, d := range input.Dimensions {
		names = append(names, d.Name.Name)
	}
	for _, u := range input.Units {
		names = append(names, u.Name.Name)
	}
	for _, k := range input.Constants {
		names = append(names, k.Name.Name)
	}
	return names
}
