package lexer

import "fmt"

// TokenType represents the type of a token in a unit definition file
type TokenType int

const (
	// TOKEN_EOF marks the end of the token stream.
	TOKEN_EOF TokenType = iota
	// TOKEN_ERROR represents a lexical error encountered during scanning.
	TOKEN_ERROR

	// Keywords - Declarations
	TOKEN_DIMENSION      // dimension
	TOKEN_UNIT           // unit
	TOKEN_CONSTANT       // constant
	TOKEN_QUANTITY_TYPE  // quantity_type
	TOKEN_DIMENSION_TYPE // dimension_type

	// Annotations
	TOKEN_BASE            // @base
	TOKEN_SYMBOL          // @symbol
	TOKEN_PREFIX          // @prefix
	TOKEN_METRIC_PREFIXES // @metric_prefixes
	TOKEN_BINARY_PREFIXES // @binary_prefixes
	TOKEN_ALIAS           // @alias
	TOKEN_AT              // @ followed by an unknown name

	// Literals
	TOKEN_IDENTIFIER     // meters, Length, speed_of_light
	TOKEN_INT_LITERAL    // 42, 1000
	TOKEN_FLOAT_LITERAL  // 3.14, 2.5e10
	TOKEN_STRING_LITERAL // "µ"

	// Operators
	TOKEN_STAR   // *
	TOKEN_SLASH  // /
	TOKEN_CARET  // ^
	TOKEN_MINUS  // -
	TOKEN_EQUALS // =
	TOKEN_COLON  // :
	TOKEN_COMMA  // ,

	// Delimiters
	TOKEN_LPAREN // (
	TOKEN_RPAREN // )
)

// TokenTypeNames maps token types to their string representations
var TokenTypeNames = map[TokenType]string{
	TOKEN_EOF:   "EOF",
	TOKEN_ERROR: "ERROR",

	TOKEN_DIMENSION:      "DIMENSION",
	TOKEN_UNIT:           "UNIT",
	TOKEN_CONSTANT:       "CONSTANT",
	TOKEN_QUANTITY_TYPE:  "QUANTITY_TYPE",
	TOKEN_DIMENSION_TYPE: "DIMENSION_TYPE",

	TOKEN_BASE:            "@base",
	TOKEN_SYMBOL:          "@symbol",
	TOKEN_PREFIX:          "@prefix",
	TOKEN_METRIC_PREFIXES: "@metric_prefixes",
	TOKEN_BINARY_PREFIXES: "@binary_prefixes",
	TOKEN_ALIAS:           "@alias",
	TOKEN_AT:              "@",

	TOKEN_IDENTIFIER:     "IDENTIFIER",
	TOKEN_INT_LITERAL:    "INT",
	TOKEN_FLOAT_LITERAL:  "FLOAT",
	TOKEN_STRING_LITERAL: "STRING",

	TOKEN_STAR:   "*",
	TOKEN_SLASH:  "/",
	TOKEN_CARET:  "^",
	TOKEN_MINUS:  "-",
	TOKEN_EQUALS: "=",
	TOKEN_COLON:  ":",
	TOKEN_COMMA:  ",",

	TOKEN_LPAREN: "(",
	TOKEN_RPAREN: ")",
}

// String returns the string representation of a TokenType
func (t TokenType) String() string {
	if name, ok := TokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", t)
}

// Token represents a single lexical token
type Token struct {
	Type    TokenType   // The type of the token
	Lexeme  string      // The raw text of the token
	Literal interface{} // The parsed value (for literals)
	Line    int         // Line number (1-indexed)
	Column  int         // Column number (1-indexed)
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s '%s' (%v) at %d:%d",
			t.Type.String(), t.Lexeme, t.Literal, t.Line, t.Column)
	}
	return fmt.Sprintf("%s '%s' at %d:%d",
		t.Type.String(), t.Lexeme, t.Line, t.Column)
}

// Keywords maps reserved words to their token types
var Keywords = map[string]TokenType{
	"dimension":      TOKEN_DIMENSION,
	"unit":           TOKEN_UNIT,
	"constant":       TOKEN_CONSTANT,
	"quantity_type":  TOKEN_QUANTITY_TYPE,
	"dimension_type": TOKEN_DIMENSION_TYPE,
}

// AnnotationKeywords maps annotation names (without @) to their token types
var AnnotationKeywords = map[string]TokenType{
	"base":            TOKEN_BASE,
	"symbol":          TOKEN_SYMBOL,
	"prefix":          TOKEN_PREFIX,
	"metric_prefixes": TOKEN_METRIC_PREFIXES,
	"binary_prefixes": TOKEN_BINARY_PREFIXES,
	"alias":           TOKEN_ALIAS,
}

// LexError represents an error encountered during lexical analysis
type LexError struct {
	Message string // Error message
	Line    int    // Line number where error occurred
	Column  int    // Column number where error occurred
	Lexeme  string // The problematic text
}

// Error implements the error interface
func (e LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// IsKeyword checks if a string is a reserved word
func IsKeyword(s string) bool {
	_, ok := Keywords[s]
	return ok
}

// IsDeclaration reports whether t starts a top-level declaration
func IsDeclaration(t TokenType) bool {
	return t >= TOKEN_DIMENSION && t <= TOKEN_DIMENSION_TYPE
}

// IsAnnotation reports whether t is an annotation token
func IsAnnotation(t TokenType) bool {
	return t >= TOKEN_BASE && t <= TOKEN_AT
}
