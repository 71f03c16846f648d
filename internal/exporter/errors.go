package exporter

import (
	"errors"
	"fmt"
)

// Inconsistency codes (E400-E409).
const (
	ErrCodeBranchTarget = "E400" // decision branch target resolves to no known element
	ErrCodeDuplicateID  = "E401" // two elements would serialize with the same id
)

// InconsistencyError is a structurally invalid document. It is raised by
// the pre-serialization check, never mid-write.
type InconsistencyError struct {
	Code    string
	Path    string // where in the document the problem sits, slash-delimited
	Message string
}

// Error implements the error interface.
func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// IsInconsistency reports whether the error is a pre-serialization
// rejection. Uses errors.As to handle wrapped errors.
func IsInconsistency(err error) bool {
	var ie *InconsistencyError
	return errors.As(err, &ie)
}
