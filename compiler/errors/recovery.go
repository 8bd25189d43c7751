package errors

import (
	"fmt"
	"strings"
)

// MaxErrors is the maximum number of errors to collect before stopping
const MaxErrors = 100

// ErrorRecovery collects the diagnostics of one compilation.
type ErrorRecovery struct {
	errors   []CompilerError
	warnings []CompilerError
	maxCount int
	source   string
}

// NewErrorRecovery creates a new ErrorRecovery instance
func NewErrorRecovery() *ErrorRecovery {
	return NewErrorRecoveryWithMax(MaxErrors)
}

// NewErrorRecoveryWithMax creates a new ErrorRecovery with custom max count
func NewErrorRecoveryWithMax(maxCount int) *ErrorRecovery {
	return &ErrorRecovery{maxCount: maxCount}
}

// WithSource sets the source text used to enrich recorded errors.
func (r *ErrorRecovery) WithSource(source string) *ErrorRecovery {
	r.source = source
	return r
}

// Recover adds an error to the collection. Errors beyond the maximum are
// dropped; warnings are always kept.
func (r *ErrorRecovery) Recover(err CompilerError) {
	if err.IsError() && r.Full() {
		return
	}

	if len(err.Context.SourceLines) == 0 {
		if r.source != "" {
			err = EnrichError(err, r.source)
		} else if err.Location.File != "" {
			err = EnrichErrorFromFile(err)
		}
	}

	if err.IsError() {
		r.errors = append(r.errors, err)
	} else {
		r.warnings = append(r.warnings, err)
	}
}

// RecoverMultiple adds multiple errors to the collection
func (r *ErrorRecovery) RecoverMultiple(errs []CompilerError) {
	for _, err := range errs {
		r.Recover(err)
	}
}

// Full reports whether the error limit has been reached.
func (r *ErrorRecovery) Full() bool {
	return len(r.errors) >= r.maxCount
}

// HasErrors returns true if there are any errors (not just warnings)
func (r *ErrorRecovery) HasErrors() bool {
	return len(r.errors) > 0
}

// ErrorCount returns the number of errors
func (r *ErrorRecovery) ErrorCount() int {
	return len(r.errors)
}

// WarningCount returns the number of warnings
func (r *ErrorRecovery) WarningCount() int {
	return len(r.warnings)
}

// GetErrors returns all errors
func (r *ErrorRecovery) GetErrors() []CompilerError {
	return r.errors
}

// GetAll returns all errors and warnings combined
func (r *ErrorRecovery) GetAll() []CompilerError {
	all := make([]CompilerError, 0, len(r.errors)+len(r.warnings))
	all = append(all, r.errors...)
	return append(all, r.warnings...)
}

// GetErrorsByPhase returns errors for a specific phase
func (r *ErrorRecovery) GetErrorsByPhase(phase string) []CompilerError {
	var result []CompilerError
	for _, err := range r.errors {
		if err.Phase == phase {
			result = append(result, err)
		}
	}
	return result
}

// Err returns the collected errors as a List, or nil when there are none.
func (r *ErrorRecovery) Err() error {
	if len(r.errors) == 0 {
		return nil
	}
	return List(append([]CompilerError(nil), r.errors...))
}

// FormatForTerminal formats all diagnostics followed by a summary.
func (r *ErrorRecovery) FormatForTerminal() string {
	var sb strings.Builder

	for i, err := range r.GetAll() {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(err.FormatForTerminal())
	}

	if len(r.errors) > 0 || len(r.warnings) > 0 {
		sb.WriteString(FormatSummary(len(r.errors), len(r.warnings)))
	}
	if r.Full() {
		sb.WriteString(fmt.Sprintf("\nNote: error limit reached (%d), further errors not shown.\n", r.maxCount))
	}
	return sb.String()
}

// FormatAsJSON formats all diagnostics as JSON
func (r *ErrorRecovery) FormatAsJSON() (string, error) {
	return FormatErrorsAsJSON(r.GetAll())
}
