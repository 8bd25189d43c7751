package errors

// Error code constants organized by phase
// E001-E099: Lexer errors
// E100-E199: Parser errors
// E200-E299: Verification errors
// E300-E399: Resolution errors
// E400-E499: Codegen errors

const (
	// Lexer errors (E001-E099)
	ErrUnterminatedString = "E001"
	ErrInvalidCharacter   = "E002"
	ErrInvalidNumber      = "E003"
	ErrInvalidAnnotation  = "E004"

	// Parser errors (E100-E199)
	ErrUnexpectedToken    = "E100"
	ErrExpectedIdentifier = "E101"
	ErrExpectedExpression = "E102"
	ErrInvalidExponent    = "E103"
	ErrUnmatchedParen     = "E104"
	ErrMissingDefinition  = "E105"
	ErrInvalidSyntax      = "E106"

	// Verification errors (E200-E299)
	ErrUnknownAnnotation       = "E200"
	ErrInvalidAnnotationArgs   = "E201"
	ErrDuplicateAnnotation     = "E202"
	ErrAnnotationNotAllowed    = "E203"
	ErrBaseUnitWithDefinition  = "E204"
	ErrMissingUnitDefinition   = "E205"
	ErrUnknownPrefix           = "E206"
	ErrDuplicatePrefix         = "E207"
	ErrRationalExponent        = "E208"
	ErrInvalidDimensionLiteral = "E209"
	ErrDuplicateTypeName       = "E210"
	ErrEmptySymbol             = "E211"

	// Resolution errors (E300-E399)
	ErrUnknownReference           = "E300"
	ErrCyclicDefinition           = "E301"
	ErrDimensionMismatch          = "E302"
	ErrInvalidRootOperation       = "E303"
	ErrDuplicateSymbol            = "E304"
	ErrDuplicateDefinition        = "E305"
	ErrKindMismatch               = "E306"
	ErrInvalidDimensionAnnotation = "E307"
	ErrInvalidMagnitude           = "E308"
	ErrExponentOverflow           = "E309"

	// Codegen errors (E400-E499)
	ErrInvalidGoIdentifier = "E400"
	ErrNameCollision       = "E401"
	ErrFormatFailed        = "E402"
	ErrInvalidPackageName  = "E403"
)

// ErrorMessages maps error codes to their default messages
var ErrorMessages = map[string]string{
	// Lexer
	ErrUnterminatedString: "Unterminated string literal",
	ErrInvalidCharacter:   "Invalid character",
	ErrInvalidNumber:      "Invalid number format",
	ErrInvalidAnnotation:  "Invalid annotation",

	// Parser
	ErrUnexpectedToken:    "Unexpected token",
	ErrExpectedIdentifier: "Expected identifier",
	ErrExpectedExpression: "Expected expression",
	ErrInvalidExponent:    "Invalid exponent",
	ErrUnmatchedParen:     "Unmatched parenthesis",
	ErrMissingDefinition:  "Missing definition",
	ErrInvalidSyntax:      "Invalid syntax",

	// Verification
	ErrUnknownAnnotation:       "Unknown annotation",
	ErrInvalidAnnotationArgs:   "Invalid annotation arguments",
	ErrDuplicateAnnotation:     "Annotation given more than once",
	ErrAnnotationNotAllowed:    "Annotation not allowed here",
	ErrBaseUnitWithDefinition:  "Base unit cannot have a definition",
	ErrMissingUnitDefinition:   "Unit needs @base or a definition",
	ErrUnknownPrefix:           "Unknown prefix",
	ErrDuplicatePrefix:         "Prefix given more than once",
	ErrRationalExponent:        "Rational exponent requires rational_exponents",
	ErrInvalidDimensionLiteral: "Only the literal 1 may appear in a dimension",
	ErrDuplicateTypeName:       "Type name declared more than once",
	ErrEmptySymbol:             "Empty unit symbol",

	// Resolution
	ErrUnknownReference:           "Unknown identifier",
	ErrCyclicDefinition:           "Cyclic definition",
	ErrDimensionMismatch:          "Dimension mismatch",
	ErrInvalidRootOperation:       "Invalid root of a dimension",
	ErrDuplicateSymbol:            "Duplicate unit symbol",
	ErrDuplicateDefinition:        "Name defined more than once",
	ErrKindMismatch:               "Reference to the wrong kind of definition",
	ErrInvalidDimensionAnnotation: "Dimension annotation must name a dimension",
	ErrInvalidMagnitude:           "Magnitude is zero or not finite",
	ErrExponentOverflow:           "Dimension exponent out of range",

	// Codegen
	ErrInvalidGoIdentifier: "Name is not a valid Go identifier",
	ErrNameCollision:       "Generated names collide",
	ErrFormatFailed:        "Generated code failed to format",
	ErrInvalidPackageName:  "Invalid Go package name",
}

// GetErrorMessage returns the default message for an error code
func GetErrorMessage(code string) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	return "Unknown error"
}

// GetPhaseForCode returns the phase name for an error code
func GetPhaseForCode(code string) string {
	if len(code) != 4 || code[0] != 'E' {
		return "unknown"
	}

	// Determine phase based on error code range
	switch {
	case code >= "E001" && code <= "E099":
		return "lexer"
	case code >= "E100" && code <= "E199":
		return "parser"
	case code >= "E200" && code <= "E299":
		return "verify"
	case code >= "E300" && code <= "E399":
		return "resolve"
	case code >= "E400" && code <= "E499":
		return "codegen"
	default:
		return "unknown"
	}
}
