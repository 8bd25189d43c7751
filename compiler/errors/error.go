// Package errors defines the diagnostics every compiler phase reports: a
// coded CompilerError with location, source context and an optional fix,
// plus terminal and JSON renderers.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity represents the severity level of an error
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

var severityNames = []string{"info", "warning", "error", "fatal"}

// String returns the string representation of the severity
func (s Severity) String() string {
	if s < Info || s > Fatal {
		return "unknown"
	}
	return severityNames[s]
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler for Severity. Unknown names
// decode as Error.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = Error
	for i, n := range severityNames {
		if n == name {
			*s = Severity(i)
		}
	}
	return nil
}

// SourceLocation is a position in a .dim file. Line and Column are 1-based.
type SourceLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Length int    `json:"length"`
}

func (l SourceLocation) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ErrorContext contains surrounding code for an error
type ErrorContext struct {
	SourceLines []string  `json:"source_lines"`
	FirstLine   int       `json:"first_line"`
	Highlight   Highlight `json:"highlight"`
}

// Highlight specifies which part of the context to highlight
type Highlight struct {
	Line  int `json:"line"` // index into SourceLines
	Start int `json:"start"`
	End   int `json:"end"`
}

// FixSuggestion is a hint shown under the error, optionally with replacement
// code.
type FixSuggestion struct {
	Description string  `json:"description"`
	OldCode     string  `json:"old_code,omitempty"`
	NewCode     string  `json:"new_code,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// CompilerError is a diagnostic of any phase.
type CompilerError struct {
	Phase         string          `json:"phase"` // lexer, parser, verify, resolve, codegen
	Code          string          `json:"code"`
	Message       string          `json:"message"`
	Severity      Severity        `json:"severity"`
	Location      SourceLocation  `json:"location"`
	Context       ErrorContext    `json:"context"`
	Suggestion    *FixSuggestion  `json:"suggestion"`
	RelatedErrors []CompilerError `json:"related_errors"`
}

// Error implements the error interface
func (e CompilerError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Code, e.Message)
}

// NewCompilerError creates a new CompilerError
func NewCompilerError(phase, code, message string, location SourceLocation, severity Severity) CompilerError {
	return CompilerError{
		Phase:         phase,
		Code:          code,
		Message:       message,
		Location:      location,
		Severity:      severity,
		RelatedErrors: []CompilerError{},
	}
}

// New creates an error-severity CompilerError whose phase follows from code.
func New(code, message string, location SourceLocation) CompilerError {
	return NewCompilerError(GetPhaseForCode(code), code, message, location, Error)
}

// WithContext adds context to the error
func (e CompilerError) WithContext(ctx ErrorContext) CompilerError {
	e.Context = ctx
	return e
}

// WithSuggestion adds a fix suggestion to the error
func (e CompilerError) WithSuggestion(suggestion FixSuggestion) CompilerError {
	e.Suggestion = &suggestion
	return e
}

// WithHint adds a suggestion that has no replacement code.
func (e CompilerError) WithHint(description string) CompilerError {
	return e.WithSuggestion(FixSuggestion{Description: description, Confidence: 1})
}

// WithRelatedError adds a related error
func (e CompilerError) WithRelatedError(related CompilerError) CompilerError {
	e.RelatedErrors = append(e.RelatedErrors, related)
	return e
}

// IsError returns true if the error is at Error or Fatal severity
func (e CompilerError) IsError() bool {
	return e.Severity >= Error
}

// IsWarning returns true if the error is at Warning severity
func (e CompilerError) IsWarning() bool {
	return e.Severity == Warning
}

// IsFatal returns true if the error is at Fatal severity
func (e CompilerError) IsFatal() bool {
	return e.Severity == Fatal
}

// List is a set of diagnostics returned as one error.
type List []CompilerError

// Error implements the error interface
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors:\n%s", len(l), strings.Join(msgs, "\n"))
}
