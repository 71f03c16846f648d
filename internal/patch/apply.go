package patch

import (
	"github.com/casewright/casewright/internal/ir"
)

// Apply applies an ordered operation batch to a document and returns the
// resulting new document. The input is never mutated. On any error the
// input document itself is returned alongside the error, so callers can
// rely on the returned document always being usable.
//
// Operations apply sequentially against the progressively mutated copy
// (standard RFC 6902 semantics): a later operation's path must account for
// the structural effects of earlier operations in the same batch.
func Apply(doc *ir.CaseIR, ops []Operation) (*ir.CaseIR, error) {
	shapes := make([]shape, len(ops))
	for i, op := range ops {
		s, err := op.checkShape(i)
		if err != nil {
			return doc, err
		}
		shapes[i] = s
	}

	root, convErr := ir.ToValue(doc)
	if convErr != nil {
		return doc, newError(ErrCodeDocumentInvalid, -1, "", "converting document: %v", convErr)
	}

	for i, op := range ops {
		next, err := applyOne(root, op.Op, shapes[i])
		if err != nil {
			err.OpIndex = i
			return doc, err
		}
		root = next
	}

	out := new(ir.CaseIR)
	if err := ir.FromValue(root, out); err != nil {
		return doc, newError(ErrCodeDocumentInvalid, -1, "", "result does not decode into a document: %v", err)
	}
	if verrs := ir.Validate(out); len(verrs) > 0 {
		return doc, newError(ErrCodeDocumentInvalid, -1, verrs[0].Field, "result violates document invariants: %v", verrs[0])
	}
	return out, nil
}

func applyOne(root ir.Value, op Op, s shape) (ir.Value, *Error) {
	switch op {
	case OpAdd:
		return addAt(root, s.path, s.value)

	case OpRemove:
		next, _, err := removeAt(root, s.path)
		return next, err

	case OpReplace:
		return setAt(root, s.path, s.value)

	case OpMove:
		next, removed, err := removeAt(root, s.from)
		if err != nil {
			return nil, err
		}
		return addAt(next, s.path, removed)

	case OpCopy:
		src, err := getAt(root, s.from)
		if err != nil {
			return nil, err
		}
		return addAt(root, s.path, ir.CopyValue(src))

	case OpTest:
		target, err := getAt(root, s.path)
		if err != nil {
			return nil, err
		}
		if !ir.EqualValue(target, s.value) {
			return nil, newError(ErrCodeTestFailed, -1, s.path.String(), "value does not match")
		}
		return root, nil

	default:
		return nil, newError(ErrCodeInvalidOp, -1, s.path.String(), "unknown op %q", op)
	}
}

// getAt resolves a pointer to an existing value.
func getAt(node ir.Value, ptr Pointer) (ir.Value, *Error) {
	cur := node
	for depth, tok := range ptr {
		switch c := cur.(type) {
		case ir.Obj:
			child, ok := c[tok]
			if !ok {
				return nil, notFound(ptr, depth)
			}
			cur = child
		case ir.Arr:
			idx, ok := arrayIndex(tok, len(c), false)
			if !ok {
				return nil, outOfRange(ptr, depth, len(c))
			}
			cur = c[idx]
		default:
			return nil, notFound(ptr, depth)
		}
	}
	return cur, nil
}

// addAt inserts val at ptr: objects gain or replace the key, arrays insert
// before the index (with "-" or the length meaning append). An empty
// pointer replaces the whole document.
func addAt(node ir.Value, ptr Pointer, val ir.Value) (ir.Value, *Error) {
	if len(ptr) == 0 {
		return val, nil
	}
	tok := ptr[0]

	switch c := node.(type) {
	case ir.Obj:
		if len(ptr) == 1 {
			c[tok] = val
			return c, nil
		}
		child, ok := c[tok]
		if !ok {
			return nil, notFound(ptr, 0)
		}
		next, err := addAt(child, ptr[1:], val)
		if err != nil {
			return nil, descend(err, tok)
		}
		c[tok] = next
		return c, nil

	case ir.Arr:
		if len(ptr) == 1 {
			idx, ok := arrayIndex(tok, len(c), true)
			if !ok {
				return nil, outOfRange(ptr, 0, len(c))
			}
			out := make(ir.Arr, 0, len(c)+1)
			out = append(out, c[:idx]...)
			out = append(out, val)
			out = append(out, c[idx:]...)
			return out, nil
		}
		idx, ok := arrayIndex(tok, len(c), false)
		if !ok {
			return nil, outOfRange(ptr, 0, len(c))
		}
		next, err := addAt(c[idx], ptr[1:], val)
		if err != nil {
			return nil, descend(err, tok)
		}
		c[idx] = next
		return c, nil

	default:
		return nil, notFound(ptr, 0)
	}
}

// setAt replaces the value at an existing location.
func setAt(node ir.Value, ptr Pointer, val ir.Value) (ir.Value, *Error) {
	if len(ptr) == 0 {
		return val, nil
	}
	tok := ptr[0]

	switch c := node.(type) {
	case ir.Obj:
		child, ok := c[tok]
		if !ok {
			return nil, notFound(ptr, 0)
		}
		if len(ptr) == 1 {
			c[tok] = val
			return c, nil
		}
		next, err := setAt(child, ptr[1:], val)
		if err != nil {
			return nil, descend(err, tok)
		}
		c[tok] = next
		return c, nil

	case ir.Arr:
		idx, ok := arrayIndex(tok, len(c), false)
		if !ok {
			return nil, outOfRange(ptr, 0, len(c))
		}
		if len(ptr) == 1 {
			c[idx] = val
			return c, nil
		}
		next, err := setAt(c[idx], ptr[1:], val)
		if err != nil {
			return nil, descend(err, tok)
		}
		c[idx] = next
		return c, nil

	default:
		return nil, notFound(ptr, 0)
	}
}

// removeAt deletes the value at an existing location and returns it.
func removeAt(node ir.Value, ptr Pointer) (ir.Value, ir.Value, *Error) {
	if len(ptr) == 0 {
		return nil, nil, newError(ErrCodePathNotFound, -1, "", "cannot remove the whole document")
	}
	tok := ptr[0]

	switch c := node.(type) {
	case ir.Obj:
		child, ok := c[tok]
		if !ok {
			return nil, nil, notFound(ptr, 0)
		}
		if len(ptr) == 1 {
			delete(c, tok)
			return c, child, nil
		}
		next, removed, err := removeAt(child, ptr[1:])
		if err != nil {
			return nil, nil, descend(err, tok)
		}
		c[tok] = next
		return c, removed, nil

	case ir.Arr:
		idx, ok := arrayIndex(tok, len(c), false)
		if !ok {
			return nil, nil, outOfRange(ptr, 0, len(c))
		}
		if len(ptr) == 1 {
			removed := c[idx]
			out := make(ir.Arr, 0, len(c)-1)
			out = append(out, c[:idx]...)
			out = append(out, c[idx+1:]...)
			return out, removed, nil
		}
		next, removed, err := removeAt(c[idx], ptr[1:])
		if err != nil {
			return nil, nil, descend(err, tok)
		}
		c[idx] = next
		return c, removed, nil

	default:
		return nil, nil, notFound(ptr, 0)
	}
}

func notFound(ptr Pointer, depth int) *Error {
	return newError(ErrCodePathNotFound, -1, ptr[:depth+1].String(), "path does not resolve")
}

func outOfRange(ptr Pointer, depth, length int) *Error {
	return newError(ErrCodeIndexOutOfRange, -1, ptr[:depth+1].String(),
		"index %q out of range for array of length %d", ptr[depth], length)
}

// descend re-roots a nested navigation error at the parent token so that
// reported paths are absolute.
func descend(err *Error, tok string) *Error {
	err.Path = Pointer{tok}.String() + err.Path
	return err
}
