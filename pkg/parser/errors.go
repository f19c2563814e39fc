package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrZeroDuration is matched by ZeroDurationError via errors.Is.
var ErrZeroDuration = errors.New("zero transfer duration")

// FormatError reports a timestamp that does not match the GridFTP layout.
type FormatError struct {
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid GridFTP timestamp %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid GridFTP timestamp %q (want YYYYMMDDHHMMSS.ffffff)", e.Value)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a required field missing from a transfer-summary line.
type ExtractionError struct {
	Field string
	Line  string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("transfer stats line missing %s field", e.Field)
}

// ZeroDurationError reports a transfer whose start and end timestamps are identical.
type ZeroDurationError struct {
	Start string
	End   string
}

func (e *ZeroDurationError) Error() string {
	return fmt.Sprintf("zero transfer duration (START=%s DATE=%s)", e.Start, e.End)
}

func (e *ZeroDurationError) Is(target error) bool {
	return target == ErrZeroDuration
}

// Reason returns a short machine-friendly reason for a line failure.
func Reason(err error) string {
	var formatErr *FormatError
	var extractErr *ExtractionError
	switch {
	case errors.Is(err, ErrZeroDuration):
		return "zero_duration"
	case errors.As(err, &formatErr):
		return "bad_timestamp"
	case errors.As(err, &extractErr):
		return "missing_" + strings.ToLower(extractErr.Field)
	default:
		return "error"
	}
}
