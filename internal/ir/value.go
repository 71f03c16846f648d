package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the generic JSON shape of a document.
// Only Null, Str, Int, Bool, Arr and Obj implement it. The patch engine
// mutates Value trees; CaseIR converts to and from them losslessly.
//
// There is no float variant: the document tree never contains floats, and
// patch values carrying them are rejected at decode time.
type Value interface {
	value() // sealed
}

// Null represents a JSON null.
type Null struct{}

func (Null) value() {}

// Str represents a JSON string.
type Str string

func (Str) value() {}

// Int represents a JSON integer. Always int64.
type Int int64

func (Int) value() {}

// Bool represents a JSON boolean.
type Bool bool

func (Bool) value() {}

// Arr represents a JSON array.
type Arr []Value

func (Arr) value() {}

// Obj represents a JSON object. Use SortedKeys for deterministic iteration.
type Obj map[string]Value

func (Obj) value() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings compares UTF-8 bytes, which produces a different order
// for strings outside the BMP.
func (o Obj) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// DecodeValue parses JSON bytes into a Value tree. Floats are rejected;
// null is admitted (RFC 6902 values may legitimately be null).
func DecodeValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return fromAny(raw)
}

func fromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return Str(val), nil
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats are forbidden in the document tree: %s", val)
		}
		return Int(i), nil
	case []any:
		arr := make(Arr, len(val))
		for i, elem := range val {
			e, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		obj := make(Obj, len(val))
		for k, elem := range val {
			e, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value type: %T", v)
	}
}

// EncodeValue serializes a Value tree to JSON bytes with object keys in
// canonical order. This is plain JSON, not the canonical form used for
// hashing; use MarshalCanonical for identity computation.
func EncodeValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Null:
		buf.WriteString("null")
	case Str:
		data, err := json.Marshal(string(val))
		if err != nil {
			return err
		}
		buf.Write(data)
	case Int:
		fmt.Fprintf(buf, "%d", int64(val))
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Arr:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Obj:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := encodeValue(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}
	return nil
}

// CopyValue returns a deep copy of the tree. Str, Int, Bool and Null are
// value types and copy by assignment.
func CopyValue(v Value) Value {
	switch val := v.(type) {
	case Arr:
		out := make(Arr, len(val))
		for i, elem := range val {
			out[i] = CopyValue(elem)
		}
		return out
	case Obj:
		out := make(Obj, len(val))
		for k, elem := range val {
			out[k] = CopyValue(elem)
		}
		return out
	default:
		return v
	}
}

// EqualValue reports deep structural equality of two trees.
func EqualValue(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Arr:
		bv, ok := b.(Arr)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !EqualValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Obj:
		bv, ok := b.(Obj)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, elem := range av {
			other, present := bv[k]
			if !present || !EqualValue(elem, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ToValue converts any JSON-marshalable value (typically a *CaseIR) into a
// fresh Value tree. The result shares no memory with the input.
func ToValue(v any) (Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("to value: %w", err)
	}
	return DecodeValue(data)
}

// FromValue decodes a Value tree into out. Unknown fields are rejected so
// that patches cannot silently attach properties the model does not have.
func FromValue(v Value, out any) error {
	data, err := EncodeValue(v)
	if err != nil {
		return fmt.Errorf("from value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("from value: %w", err)
	}
	return nil
}
