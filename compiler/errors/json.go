package errors

import (
	"encoding/json"
)

// JSONOutput represents the JSON structure for error output
type JSONOutput struct {
	Status   string          `json:"status"`
	Errors   []CompilerError `json:"errors"`
	Warnings []CompilerError `json:"warnings"`
	Summary  Summary         `json:"summary"`
}

// Summary contains error and warning counts
type Summary struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	TotalCount   int `json:"total_count"`
}

// NewJSONOutput splits errs into errors and warnings and derives the status:
// "error", "warning" or "success".
func NewJSONOutput(errs []CompilerError) JSONOutput {
	out := JSONOutput{
		Status:   "success",
		Errors:   []CompilerError{},
		Warnings: []CompilerError{},
	}
	for _, err := range errs {
		switch {
		case err.IsError():
			out.Errors = append(out.Errors, err)
		case err.IsWarning():
			out.Warnings = append(out.Warnings, err)
		}
	}

	if len(out.Errors) > 0 {
		out.Status = "error"
	} else if len(out.Warnings) > 0 {
		out.Status = "warning"
	}
	out.Summary = Summary{
		ErrorCount:   len(out.Errors),
		WarningCount: len(out.Warnings),
		TotalCount:   len(errs),
	}
	return out
}

// FormatAsJSON formats a CompilerError as JSON
func (e CompilerError) FormatAsJSON() (string, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatErrorsAsJSON formats multiple errors as indented JSON
func FormatErrorsAsJSON(errs []CompilerError) (string, error) {
	data, err := json.MarshalIndent(NewJSONOutput(errs), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
