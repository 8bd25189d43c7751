// Package lexer provides lexical analysis for unit definition files.
// It tokenizes .dim sources into a stream of tokens for the parser.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
)

// Lexer tokenizes unit definition source code.
//
// Lexer instances are NOT thread-safe. Each goroutine must create its own
// Lexer via New().
type Lexer struct {
	source  string     // Source code to tokenize
	start   int        // Start position of current token
	current int        // Current position in source
	line    int        // Current line number (1-indexed)
	column  int        // Current column number (1-indexed)
	tokens   []Token    // Collected tokens
	errors   []LexError // Collected errors
	comments []Comment  // Comments skipped while scanning
}

// Comment is a line comment as written, including its # or // marker
type Comment struct {
	Text   string
	Line   int
	Column int
}

// New creates a new Lexer for the given source code
func New(source string) *Lexer {
	return &Lexer{
		source:  source,
		start:   0,
		current: 0,
		line:    1,
		column:  1,
		tokens:  make([]Token, 0),
		errors:  make([]LexError, 0),
	}
}

// ScanTokens tokenizes the entire source and returns tokens and errors
func (l *Lexer) ScanTokens() ([]Token, []LexError) {
	for !l.isAtEnd() {
		l.start = l.current
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Type:   TOKEN_EOF,
		Lexeme: "",
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, l.errors
}

// scanToken processes the next token.
func (l *Lexer) scanToken() {
	c := l.advance()

	switch {
	case c == '(':
		l.addToken(TOKEN_LPAREN)
	case c == ')':
		l.addToken(TOKEN_RPAREN)
	case c == ',':
		l.addToken(TOKEN_COMMA)
	case c == ':':
		l.addToken(TOKEN_COLON)
	case c == '=':
		l.addToken(TOKEN_EQUALS)
	case c == '*':
		l.addToken(TOKEN_STAR)
	case c == '^':
		l.addToken(TOKEN_CARET)
	case c == '-':
		l.addToken(TOKEN_MINUS)
	case c == '/':
		l.scanSlashToken()
	case c == '#':
		l.comment()
	case c == '@':
		l.annotation()
	case c == '"':
		l.string()
	case c == '.':
		if l.isDigit(l.peek()) {
			l.number()
		} else {
			l.addError("Unexpected character: '.'")
		}
	case c == ' ' || c == '\r' || c == '\t' || c == ';':
		// Whitespace, and optional statement terminators
	case c == '\n':
		l.line++
		l.column = 1
	default:
		l.scanDefault(c)
	}
}

// scanSlashToken handles / and // comments
func (l *Lexer) scanSlashToken() {
	if l.match('/') {
		l.comment()
	} else {
		l.addToken(TOKEN_SLASH)
	}
}

// scanDefault handles the default case: numbers, identifiers, or errors
func (l *Lexer) scanDefault(c byte) {
	if l.isDigit(c) {
		l.number()
	} else if l.isAlpha(c) {
		l.identifier()
	} else {
		l.addError(fmt.Sprintf("Unexpected character: '%c'", c))
	}
}

// annotation handles @ symbols and following identifiers
func (l *Lexer) annotation() {
	if !l.isAlpha(l.peek()) {
		l.addError("Expected annotation name after '@'")
		return
	}

	startPos := l.current
	for l.isAlphaNumeric(l.peek()) {
		l.advance()
	}
	annotationName := l.source[startPos:l.current]

	if tokenType, ok := AnnotationKeywords[annotationName]; ok {
		l.addToken(tokenType)
		return
	}

	// Unknown annotation - emit @ and identifier separately so the parser
	// can report it with its name
	atColumn := l.column - (l.current - l.start)
	l.tokens = append(l.tokens, Token{
		Type:   TOKEN_AT,
		Lexeme: "@",
		Line:   l.line,
		Column: atColumn,
	}, Token{
		Type:   TOKEN_IDENTIFIER,
		Lexeme: annotationName,
		Line:   l.line,
		Column: atColumn + 1,
	})
}

// comment consumes until end of line
func (l *Lexer) comment() {
	column := l.column - (l.current - l.start)
	for l.peek() != '\n' && !l.isAtEnd() {
		l.advance()
	}
	l.comments = append(l.comments, Comment{
		Text:   strings.TrimRight(l.source[l.start:l.current], " \t\r"),
		Line:   l.line,
		Column: column,
	})
}

// Comments returns the comments seen by ScanTokens, in source order
func (l *Lexer) Comments() []Comment {
	return l.comments
}

// string handles string literals. Only \" and \\ escapes are recognized;
// symbols are short and rarely need more.
func (l *Lexer) string() {
	startLine := l.line
	startColumn := l.column - 1
	value := strings.Builder{}

	for !l.isAtEnd() && l.peek() != '"' && l.peek() != '\n' {
		if l.peek() == '\\' && (l.peekNext() == '"' || l.peekNext() == '\\') {
			l.advance()
		}
		value.WriteByte(l.advance())
	}

	if l.isAtEnd() || l.peek() == '\n' {
		l.addError(fmt.Sprintf("Unterminated string starting at %d:%d", startLine, startColumn))
		return
	}

	// Consume closing "
	l.advance()

	l.tokens = append(l.tokens, Token{
		Type:    TOKEN_STRING_LITERAL,
		Lexeme:  l.source[l.start:l.current],
		Literal: value.String(),
		Line:    startLine,
		Column:  startColumn,
	})
}

// number handles integer and float literals
func (l *Lexer) number() {
	for l.isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	isFloat := l.source[l.start] == '.'
	if l.peek() == '.' && l.isDigit(l.peekNext()) {
		isFloat = true
		l.advance() // consume .
		for l.isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if !l.isDigit(l.peek()) {
			l.addError("Invalid number: expected digits after exponent")
			return
		}
		for l.isDigit(l.peek()) {
			l.advance()
		}
	}

	lexeme := l.source[l.start:l.current]
	cleanLexeme := strings.ReplaceAll(lexeme, "_", "")

	if isFloat {
		value, err := strconv.ParseFloat(cleanLexeme, 64)
		if err != nil {
			l.addError(fmt.Sprintf("Invalid float literal: %s", lexeme))
			return
		}
		l.addTokenWithLiteral(TOKEN_FLOAT_LITERAL, value)
		return
	}

	value, err := strconv.ParseInt(cleanLexeme, 10, 64)
	if err != nil {
		l.addError(fmt.Sprintf("Invalid integer literal: %s", lexeme))
		return
	}
	l.addTokenWithLiteral(TOKEN_INT_LITERAL, value)
}

// identifier handles identifiers and keywords
func (l *Lexer) identifier() {
	for l.isAlphaNumeric(l.peek()) {
		l.advance()
	}

	text := l.source[l.start:l.current]
	tokenType, isKeyword := Keywords[text]
	if !isKeyword {
		tokenType = TOKEN_IDENTIFIER
	}
	l.addToken(tokenType)
}

// Helper methods

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	c := l.source[l.current]
	l.current++
	l.column++
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.current++
	l.column++
	return true
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func (l *Lexer) isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (l *Lexer) isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		c == '_'
}

func (l *Lexer) isAlphaNumeric(c byte) bool {
	return l.isAlpha(c) || l.isDigit(c)
}

// addToken adds a token with the current lexeme
func (l *Lexer) addToken(tokenType TokenType) {
	l.addTokenWithLiteral(tokenType, nil)
}

// addTokenWithLiteral adds a token with a literal value
func (l *Lexer) addTokenWithLiteral(tokenType TokenType, literal interface{}) {
	l.tokens = append(l.tokens, Token{
		Type:    tokenType,
		Lexeme:  l.source[l.start:l.current],
		Literal: literal,
		Line:    l.line,
		Column:  l.column - (l.current - l.start),
	})
}

// addError records a lexical error
func (l *Lexer) addError(message string) {
	lexeme := ""
	if l.start < len(l.source) {
		end := l.current
		if end > l.start+20 {
			end = l.start + 20
		}
		lexeme = l.source[l.start:end]
	}

	l.errors = append(l.errors, LexError{
		Message: message,
		Line:    l.line,
		Column:  l.column - (l.current - l.start),
		Lexeme:  lexeme,
	})
}
