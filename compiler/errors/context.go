package errors

import (
	"os"
	"strings"
)

// contextRadius is the number of lines shown above and below an error.
const contextRadius = 2

// EnrichError adds source context and, when none is set yet, a fix
// suggestion.
func EnrichError(err CompilerError, source string) CompilerError {
	err = err.WithContext(extractSourceContext(err.Location, source))

	if err.Suggestion == nil {
		if suggestion := suggestFix(err); suggestion != nil {
			err = err.WithSuggestion(*suggestion)
		}
	}
	return err
}

// EnrichErrorFromFile reads the error's file and enriches the error. It
// returns err unchanged when the file cannot be read.
func EnrichErrorFromFile(err CompilerError) CompilerError {
	content, readErr := os.ReadFile(err.Location.File)
	if readErr != nil {
		return err
	}
	return EnrichError(err, string(content))
}

func extractSourceContext(location SourceLocation, source string) ErrorContext {
	lines := strings.Split(source, "\n")
	if location.Line < 1 || location.Line > len(lines) {
		return ErrorContext{}
	}

	errorLine := location.Line - 1
	first := max(0, errorLine-contextRadius)
	last := min(len(lines), errorLine+contextRadius+1)

	start := max(0, location.Column-1)
	length := location.Length
	if length <= 0 {
		length = tokenLength(lines[errorLine], start)
	}

	return ErrorContext{
		SourceLines: append([]string(nil), lines[first:last]...),
		FirstLine:   first + 1,
		Highlight: Highlight{
			Line:  errorLine - first,
			Start: start,
			End:   start + length,
		},
	}
}

// tokenLength returns the length of the identifier or number starting at
// start, or 1.
func tokenLength(line string, start int) int {
	n := 0
	for i := start; i < len(line); i++ {
		c := line[i]
		if c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			n++
			continue
		}
		break
	}
	return max(1, n)
}
