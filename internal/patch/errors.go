package patch

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes patch validation errors.
type ErrorCode string

const (
	// ErrCodeInvalidOp indicates an unknown or malformed operation.
	ErrCodeInvalidOp ErrorCode = "INVALID_OP"

	// ErrCodeInvalidPointer indicates a path that is not a valid JSON pointer.
	ErrCodeInvalidPointer ErrorCode = "INVALID_POINTER"

	// ErrCodePathNotFound indicates a path that does not resolve in the
	// current document state.
	ErrCodePathNotFound ErrorCode = "PATH_NOT_FOUND"

	// ErrCodeIndexOutOfRange indicates an array index outside the valid range.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeValueRequired indicates a missing value member on add, replace
	// or test.
	ErrCodeValueRequired ErrorCode = "VALUE_REQUIRED"

	// ErrCodeFromRequired indicates a missing from member on move or copy.
	ErrCodeFromRequired ErrorCode = "FROM_REQUIRED"

	// ErrCodeTestFailed indicates a test operation whose value did not match.
	ErrCodeTestFailed ErrorCode = "TEST_FAILED"

	// ErrCodeInvalidMove indicates a move whose from path is a proper prefix
	// of its target path.
	ErrCodeInvalidMove ErrorCode = "INVALID_MOVE"

	// ErrCodeValueForbidden indicates a value the document tree cannot carry
	// (e.g. a float).
	ErrCodeValueForbidden ErrorCode = "VALUE_FORBIDDEN"

	// ErrCodeDocumentInvalid indicates a batch whose result does not decode
	// into a structurally valid document.
	ErrCodeDocumentInvalid ErrorCode = "DOCUMENT_INVALID"
)

// Error is a patch validation error. The batch it belongs to is rejected as
// a whole; the caller's document is unchanged.
type Error struct {
	Code    ErrorCode
	OpIndex int    // index of the offending operation, -1 for batch-level errors
	Path    string // offending path, when applicable
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.OpIndex >= 0 && e.Path != "":
		return fmt.Sprintf("%s: op[%d] %s: %s", e.Code, e.OpIndex, e.Path, e.Message)
	case e.OpIndex >= 0:
		return fmt.Sprintf("%s: op[%d]: %s", e.Code, e.OpIndex, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsTestFailed reports whether the error is a failed test operation.
// Uses errors.As to handle wrapped errors.
func IsTestFailed(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == ErrCodeTestFailed
}

// IsPatchError reports whether the error originated in the patch engine.
func IsPatchError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

func newError(code ErrorCode, opIndex int, path, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		OpIndex: opIndex,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}
