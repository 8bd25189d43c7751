package parser

import (
	"fmt"

	"github.com/dimc-lang/dimc/internal/compiler/ast"
	"github.com/dimc-lang/dimc/internal/compiler/expr"
	"github.com/dimc-lang/dimc/internal/compiler/lexer"
)

// Parser transforms a stream of tokens into an Abstract Syntax Tree (AST)
//
// Grammar:
//
//	file       → declaration*
//	declaration→ "quantity_type" IDENTIFIER
//	           | "dimension_type" IDENTIFIER
//	           | annotation* ( dimension | unit | constant )
//	dimension  → "dimension" IDENTIFIER ( "=" expression )?
//	unit       → "unit" IDENTIFIER ( ":" IDENTIFIER )? ( "=" expression )?
//	constant   → "constant" IDENTIFIER ( ":" IDENTIFIER )? "=" expression
//	annotation → ANNOTATION ( "(" argument ( "," argument )* ")" )?
//	argument   → IDENTIFIER ( "(" argument ( "," argument )* ")" )? | STRING | "-"? NUMBER
//	expression → factor ( ( "*" | "/" ) factor )*
//	factor     → primary ( "^" exponent )?
//	primary    → IDENTIFIER | NUMBER | "(" expression ")"
//	exponent   → "-"? INT | "(" "-"? INT ( "/" INT )? ")"
type Parser struct {
	tokens  []lexer.Token
	current int
	errors  []ParseError
}

// New creates a new parser for the given token stream
func New(tokens []lexer.Token) *Parser {
	return &Parser{
		tokens:  tokens,
		current: 0,
		errors:  make([]ParseError, 0),
	}
}

// Parse parses the token stream and returns the AST and any errors
func (p *Parser) Parse() (*ast.File, []ParseError) {
	file := &ast.File{
		QuantityTypes:  make([]*ast.TypeNameNode, 0),
		DimensionTypes: make([]*ast.TypeNameNode, 0),
		Dimensions:     make([]*ast.DimensionNode, 0),
		Units:          make([]*ast.UnitNode, 0),
		Constants:      make([]*ast.ConstantNode, 0),
	}

	for !p.isAtEnd() {
		p.parseDeclaration(file)
	}

	return file, p.errors
}

// parseDeclaration parses one top-level declaration into file
func (p *Parser) parseDeclaration(file *ast.File) {
	switch {
	case p.match(lexer.TOKEN_QUANTITY_TYPE):
		if name := p.parseTypeName("quantity_type"); name != nil {
			file.QuantityTypes = append(file.QuantityTypes, name)
		}
		return
	case p.match(lexer.TOKEN_DIMENSION_TYPE):
		if name := p.parseTypeName("dimension_type"); name != nil {
			file.DimensionTypes = append(file.DimensionTypes, name)
		}
		return
	}

	annotations := make([]*ast.AnnotationNode, 0)
	for lexer.IsAnnotation(p.peek().Type) {
		annotation := p.parseAnnotation()
		if annotation == nil {
			p.synchronize()
			return
		}
		annotations = append(annotations, annotation)
	}

	switch {
	case p.match(lexer.TOKEN_DIMENSION):
		if dim := p.parseDimension(annotations); dim != nil {
			file.Dimensions = append(file.Dimensions, dim)
		}
	case p.match(lexer.TOKEN_UNIT):
		if unit := p.parseUnit(annotations); unit != nil {
			file.Units = append(file.Units, unit)
		}
	case p.match(lexer.TOKEN_CONSTANT):
		if constant := p.parseConstant(annotations); constant != nil {
			file.Constants = append(file.Constants, constant)
		}
	default:
		if len(annotations) > 0 {
			p.error(p.peek(), "Expected 'dimension', 'unit' or 'constant' after annotations")
		} else {
			p.error(p.peek(), fmt.Sprintf("Unexpected token at top level: '%s'", p.peek().Lexeme))
		}
		p.synchronize()
	}
}

// parseTypeName parses the name after quantity_type / dimension_type
func (p *Parser) parseTypeName(keyword string) *ast.TypeNameNode {
	keywordToken := p.previous()
	nameToken := p.consume(lexer.TOKEN_IDENTIFIER, fmt.Sprintf("Expected type name after '%s'", keyword))
	if nameToken.Type == lexer.TOKEN_ERROR {
		p.synchronize()
		return nil
	}
	return &ast.TypeNameNode{
		Name: nameToken.Lexeme,
		Loc:  ast.TokenLocation(keywordToken),
	}
}

// parseDimension parses a dimension declaration after the keyword
func (p *Parser) parseDimension(annotations []*ast.AnnotationNode) *ast.DimensionNode {
	keywordToken := p.previous()
	nameToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected dimension name")
	if nameToken.Type == lexer.TOKEN_ERROR {
		p.synchronize()
		return nil
	}

	dim := &ast.DimensionNode{
		Name:        nameToken.Lexeme,
		NameLoc:     ast.TokenLocation(nameToken),
		Annotations: annotations,
		Loc:         declarationLocation(keywordToken, annotations),
	}

	if p.match(lexer.TOKEN_COLON) {
		p.error(p.previous(), "Dimensions cannot carry a dimension annotation")
		p.synchronize()
		return nil
	}

	if p.match(lexer.TOKEN_EQUALS) {
		dim.Definition = p.parseExpression()
		if dim.Definition == nil {
			p.synchronize()
			return nil
		}
	}

	return dim
}

// parseUnit parses a unit declaration after the keyword
func (p *Parser) parseUnit(annotations []*ast.AnnotationNode) *ast.UnitNode {
	keywordToken := p.previous()
	nameToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected unit name")
	if nameToken.Type == lexer.TOKEN_ERROR {
		p.synchronize()
		return nil
	}

	unit := &ast.UnitNode{
		Name:        nameToken.Lexeme,
		NameLoc:     ast.TokenLocation(nameToken),
		Annotations: annotations,
		Loc:         declarationLocation(keywordToken, annotations),
	}

	if p.match(lexer.TOKEN_COLON) {
		dimToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected dimension name after ':'")
		if dimToken.Type == lexer.TOKEN_ERROR {
			p.synchronize()
			return nil
		}
		unit.DimensionAnnotation = &ast.IdentNode{Name: dimToken.Lexeme, Loc: ast.TokenLocation(dimToken)}
	}

	if p.match(lexer.TOKEN_EQUALS) {
		unit.Definition = p.parseExpression()
		if unit.Definition == nil {
			p.synchronize()
			return nil
		}
	}

	return unit
}

// parseConstant parses a constant declaration after the keyword
func (p *Parser) parseConstant(annotations []*ast.AnnotationNode) *ast.ConstantNode {
	keywordToken := p.previous()
	nameToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected constant name")
	if nameToken.Type == lexer.TOKEN_ERROR {
		p.synchronize()
		return nil
	}

	constant := &ast.ConstantNode{
		Name:        nameToken.Lexeme,
		NameLoc:     ast.TokenLocation(nameToken),
		Annotations: annotations,
		Loc:         declarationLocation(keywordToken, annotations),
	}

	if p.match(lexer.TOKEN_COLON) {
		dimToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected dimension name after ':'")
		if dimToken.Type == lexer.TOKEN_ERROR {
			p.synchronize()
			return nil
		}
		constant.DimensionAnnotation = &ast.IdentNode{Name: dimToken.Lexeme, Loc: ast.TokenLocation(dimToken)}
	}

	if p.consume(lexer.TOKEN_EQUALS, "Expected '=' and a definition for constant").Type == lexer.TOKEN_ERROR {
		p.synchronize()
		return nil
	}

	constant.Definition = p.parseExpression()
	if constant.Definition == nil {
		p.synchronize()
		return nil
	}

	return constant
}

// parseAnnotation parses an annotation and its optional argument list
func (p *Parser) parseAnnotation() *ast.AnnotationNode {
	annotationToken := p.advance()
	annotation := &ast.AnnotationNode{
		Name: annotationToken.Lexeme[1:],
		Args: make([]*ast.AnnotationArg, 0),
		Loc:  ast.TokenLocation(annotationToken),
	}

	// Unknown annotations arrive as '@' followed by an identifier
	if annotationToken.Type == lexer.TOKEN_AT {
		nameToken := p.consume(lexer.TOKEN_IDENTIFIER, "Expected annotation name after '@'")
		if nameToken.Type == lexer.TOKEN_ERROR {
			return nil
		}
		annotation.Name = nameToken.Lexeme
	}

	if p.match(lexer.TOKEN_LPAREN) {
		args, ok := p.parseArguments()
		if !ok {
			return nil
		}
		annotation.Args = args
	}

	return annotation
}

// parseArguments parses a comma separated argument list after '('
func (p *Parser) parseArguments() ([]*ast.AnnotationArg, bool) {
	args := make([]*ast.AnnotationArg, 0)

	if p.match(lexer.TOKEN_RPAREN) {
		return args, true
	}

	for {
		arg := p.parseArgument()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)

		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if p.consume(lexer.TOKEN_RPAREN, "Expected ')' after annotation arguments").Type == lexer.TOKEN_ERROR {
		return nil, false
	}
	return args, true
}

// parseArgument parses a single annotation argument
func (p *Parser) parseArgument() *ast.AnnotationArg {
	token := p.peek()
	loc := ast.TokenLocation(token)

	switch {
	case p.match(lexer.TOKEN_IDENTIFIER):
		if !p.match(lexer.TOKEN_LPAREN) {
			return &ast.AnnotationArg{Kind: ast.ArgIdent, Name: token.Lexeme, Loc: loc}
		}
		args, ok := p.parseArguments()
		if !ok {
			return nil
		}
		return &ast.AnnotationArg{Kind: ast.ArgCall, Name: token.Lexeme, Args: args, Loc: loc}

	case p.match(lexer.TOKEN_STRING_LITERAL):
		return &ast.AnnotationArg{Kind: ast.ArgString, Text: token.Literal.(string), Loc: loc}

	case p.check(lexer.TOKEN_MINUS) || p.check(lexer.TOKEN_INT_LITERAL) || p.check(lexer.TOKEN_FLOAT_LITERAL):
		sign := 1.0
		if p.match(lexer.TOKEN_MINUS) {
			sign = -1
		}
		if !p.match(lexer.TOKEN_INT_LITERAL, lexer.TOKEN_FLOAT_LITERAL) {
			p.error(p.peek(), "Expected number after '-'")
			return nil
		}
		value, _ := numberValue(p.previous())
		return &ast.AnnotationArg{Kind: ast.ArgNumber, Number: sign * value, Loc: loc}
	}

	p.error(token, fmt.Sprintf("Unexpected annotation argument: '%s'", token.Lexeme))
	return nil
}

// parseExpression parses a product/quotient of factors. Operators are left
// associative with equal precedence.
func (p *Parser) parseExpression() *ast.Expr {
	left := p.parseFactor()
	if left == nil {
		return nil
	}

	for p.match(lexer.TOKEN_STAR, lexer.TOKEN_SLASH) {
		op := expr.Mul
		if p.previous().Type == lexer.TOKEN_SLASH {
			op = expr.Div
		}
		right := p.parseFactor()
		if right == nil {
			return nil
		}
		left = expr.Binary(left, op, right)
	}

	return left
}

// parseFactor parses a primary with an optional exponent
func (p *Parser) parseFactor() *ast.Expr {
	token := p.peek()

	switch {
	case p.match(lexer.TOKEN_LPAREN):
		inner := p.parseExpression()
		if inner == nil {
			return nil
		}
		if p.consume(lexer.TOKEN_RPAREN, "Expected ')' after expression").Type == lexer.TOKEN_ERROR {
			return nil
		}
		if p.check(lexer.TOKEN_CARET) {
			p.error(p.peek(), "Exponents apply to a single name or number, not a parenthesized expression")
			return nil
		}
		return expr.Paren(inner)

	case p.match(lexer.TOKEN_IDENTIFIER):
		return p.parsePower(ast.Operand{
			Kind: ast.OperandName,
			Name: token.Lexeme,
			Loc:  ast.TokenLocation(token),
		})

	case p.match(lexer.TOKEN_INT_LITERAL, lexer.TOKEN_FLOAT_LITERAL):
		value, isInt := numberValue(token)
		return p.parsePower(ast.Operand{
			Kind:   ast.OperandNumber,
			Number: value,
			IsInt:  isInt,
			Loc:    ast.TokenLocation(token),
		})
	}

	if token.Type == lexer.TOKEN_EOF {
		p.error(token, "Expected expression, found end of file")
	} else {
		p.error(token, fmt.Sprintf("Expected name, number or '(' in expression, found '%s'", token.Lexeme))
	}
	return nil
}

// parsePower wraps operand in an optional ^exponent
func (p *Parser) parsePower(operand ast.Operand) *ast.Expr {
	if !p.match(lexer.TOKEN_CARET) {
		return expr.Value[ast.Operand, ast.ExponentLit](operand)
	}

	exp, ok := p.parseExponent()
	if !ok {
		return nil
	}
	return expr.Power(operand, exp)
}

// parseExponent parses ^n, ^-n or ^(p/q)
func (p *Parser) parseExponent() (ast.ExponentLit, bool) {
	loc := ast.TokenLocation(p.peek())

	if !p.match(lexer.TOKEN_LPAREN) {
		num, ok := p.parseSignedInt("Expected integer exponent after '^'")
		return ast.ExponentLit{Num: num, Den: 1, Loc: loc}, ok
	}

	num, ok := p.parseSignedInt("Expected integer exponent after '^('")
	if !ok {
		return ast.ExponentLit{}, false
	}
	den := int64(1)
	if p.match(lexer.TOKEN_SLASH) {
		den, ok = p.parseSignedInt("Expected integer denominator in exponent")
		if !ok {
			return ast.ExponentLit{}, false
		}
		if den == 0 {
			p.error(p.previous(), "Exponent denominator must not be zero")
			return ast.ExponentLit{}, false
		}
	}
	if p.consume(lexer.TOKEN_RPAREN, "Expected ')' after exponent").Type == lexer.TOKEN_ERROR {
		return ast.ExponentLit{}, false
	}
	return ast.ExponentLit{Num: num, Den: den, Loc: loc}, true
}

func (p *Parser) parseSignedInt(message string) (int64, bool) {
	sign := int64(1)
	if p.match(lexer.TOKEN_MINUS) {
		sign = -1
	}
	token := p.consume(lexer.TOKEN_INT_LITERAL, message)
	if token.Type == lexer.TOKEN_ERROR {
		return 0, false
	}
	return sign * token.Literal.(int64), true
}

// numberValue converts a numeric literal token to float64
func numberValue(token lexer.Token) (float64, bool) {
	switch v := token.Literal.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, false
	}
	return 0, false
}

// declarationLocation reports a declaration at its first annotation, if any
func declarationLocation(keyword lexer.Token, annotations []*ast.AnnotationNode) ast.SourceLocation {
	if len(annotations) > 0 {
		return annotations[0].Loc
	}
	return ast.TokenLocation(keyword)
}

// Token stream navigation

// peek returns the current token without advancing
func (p *Parser) peek() lexer.Token {
	if len(p.tokens) == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

// previous returns the most recently consumed token
func (p *Parser) previous() lexer.Token {
	if len(p.tokens) == 0 || p.current == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current-1]
}

// advance consumes the current token and returns it
func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

// check returns true if the current token matches the given type
func (p *Parser) check(tokenType lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

// match consumes the token if it matches any of the given types
func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances if the next token matches, otherwise reports an error
func (p *Parser) consume(tokenType lexer.TokenType, message string) lexer.Token {
	if p.check(tokenType) {
		return p.advance()
	}

	p.error(p.peek(), message)
	return lexer.Token{Type: lexer.TOKEN_ERROR}
}

// isAtEnd returns true if we've reached the end of the token stream
func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens) || p.tokens[p.current].Type == lexer.TOKEN_EOF
}

// Error handling

// error records a parse error
func (p *Parser) error(token lexer.Token, message string) {
	p.errors = append(p.errors, NewParseError(message, token))
}

// synchronize implements panic mode error recovery: skip to the start of the
// next declaration (a declaration keyword or a leading annotation). Every
// caller has consumed at least one token, so stopping in place is safe.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		next := p.peek().Type
		if lexer.IsDeclaration(next) || lexer.IsAnnotation(next) {
			return
		}

		p.advance()
	}
}
