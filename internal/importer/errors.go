package importer

import (
	"errors"
	"fmt"
)

// Parse error codes (E300-E309).
const (
	ErrCodeMalformed = "E300" // input bytes are not well-formed XML
	ErrCodeNoProcess = "E301" // document contains no process container
)

// ParseError is a fatal import failure. No partial document is returned
// alongside one.
type ParseError struct {
	Code     string
	Message  string
	Filename string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Filename, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsParseError reports whether the error is a fatal import failure.
// Uses errors.As to handle wrapped errors.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Structural warnings. These accompany a successful import; they are never
// raised as errors.
const (
	WarnNoSubprocess = "no subprocess boundaries found; all content imported as a single stage"
	WarnNoTasks      = "no recognizable task elements found in the document"
)
