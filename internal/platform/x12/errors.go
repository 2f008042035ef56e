package x12

import "fmt"

// FormatError reports that an X12 document could not be read or that its
// delimiters and envelope anchor could not be determined.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("x12: %s: %v", e.Reason, e.Err)
	}
	return "x12: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErrorf(format string, args ...interface{}) *FormatError {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}
