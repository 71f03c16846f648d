package patch

import (
	"encoding/json"
	"fmt"

	"github.com/casewright/casewright/internal/ir"
)

// Op names the six RFC 6902 operation kinds.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
	OpMove    Op = "move"
	OpCopy    Op = "copy"
	OpTest    Op = "test"
)

// Operation is one RFC 6902 patch operation. Value stays raw until the
// batch is applied so that absent and null values are distinguishable.
type Operation struct {
	Op    Op              `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ParseOperations decodes a JSON array of operations.
func ParseOperations(data []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, newError(ErrCodeInvalidOp, -1, "", "parsing operations: %v", err)
	}
	return ops, nil
}

// checkShape validates one operation's static shape: known op, parseable
// paths, required members present. Path resolution happens later, against
// the progressively mutated document.
func (op Operation) checkShape(index int) (shape, *Error) {
	var s shape

	switch op.Op {
	case OpAdd, OpRemove, OpReplace, OpMove, OpCopy, OpTest:
	default:
		return s, newError(ErrCodeInvalidOp, index, op.Path, "unknown op %q", op.Op)
	}

	path, ok := ParsePointer(op.Path)
	if !ok {
		return s, newError(ErrCodeInvalidPointer, index, op.Path, "invalid pointer")
	}
	s.path = path

	switch op.Op {
	case OpAdd, OpReplace, OpTest:
		if op.Value == nil {
			return s, newError(ErrCodeValueRequired, index, op.Path, "%s requires a value member", op.Op)
		}
		val, err := ir.DecodeValue(op.Value)
		if err != nil {
			return s, newError(ErrCodeValueForbidden, index, op.Path, "invalid value: %v", err)
		}
		s.value = val
	case OpMove, OpCopy:
		if op.From == "" {
			return s, newError(ErrCodeFromRequired, index, op.Path, "%s requires a from member", op.Op)
		}
		from, ok := ParsePointer(op.From)
		if !ok {
			return s, newError(ErrCodeInvalidPointer, index, op.From, "invalid from pointer")
		}
		if op.Op == OpMove && from.IsPrefixOf(path) {
			return s, newError(ErrCodeInvalidMove, index, op.Path,
				"cannot move %s into its own descendant %s", op.From, op.Path)
		}
		s.from = from
		s.hasFrom = true
	}

	return s, nil
}

// shape is a statically checked operation: parsed pointers plus the decoded
// value.
type shape struct {
	path    Pointer
	from    Pointer
	hasFrom bool
	value   ir.Value
}

func (s shape) String() string {
	if s.hasFrom {
		return fmt.Sprintf("%s <- %s", s.path, s.from)
	}
	return s.path.String()
}
