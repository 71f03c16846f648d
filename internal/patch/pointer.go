package patch

import (
	"strconv"
	"strings"
)

// AppendMarker is the RFC 6901 token denoting the position past the last
// array element.
const AppendMarker = "-"

// Pointer is a parsed RFC 6901 JSON pointer: a sequence of reference
// tokens with ~1 and ~0 escapes already resolved.
type Pointer []string

// ParsePointer parses a slash-delimited pointer. The empty string addresses
// the whole document. A pointer must be empty or start with "/".
func ParsePointer(s string) (Pointer, bool) {
	if s == "" {
		return Pointer{}, true
	}
	if !strings.HasPrefix(s, "/") {
		return nil, false
	}
	raw := strings.Split(s[1:], "/")
	tokens := make(Pointer, len(raw))
	for i, tok := range raw {
		// Order matters: ~1 first, then ~0, so "~01" decodes to "~1".
		tok = strings.ReplaceAll(tok, "~1", "/")
		tok = strings.ReplaceAll(tok, "~0", "~")
		tokens[i] = tok
	}
	return tokens, true
}

// String re-serializes the pointer with RFC 6901 escaping.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range p {
		b.WriteByte('/')
		tok = strings.ReplaceAll(tok, "~", "~0")
		tok = strings.ReplaceAll(tok, "/", "~1")
		b.WriteString(tok)
	}
	return b.String()
}

// IsPrefixOf reports whether p is a proper prefix of other. Used to reject
// moves of a node into its own descendant.
func (p Pointer) IsPrefixOf(other Pointer) bool {
	if len(p) >= len(other) {
		return false
	}
	for i, tok := range p {
		if other[i] != tok {
			return false
		}
	}
	return true
}

// arrayIndex parses a reference token as an array index for a container of
// the given length. allowAppend admits the length itself and the "-"
// marker (add semantics); without it, only existing positions resolve.
func arrayIndex(tok string, length int, allowAppend bool) (int, bool) {
	if tok == AppendMarker {
		if allowAppend {
			return length, true
		}
		return 0, false
	}
	// RFC 6901 forbids leading zeros.
	if len(tok) > 1 && tok[0] == '0' {
		return 0, false
	}
	idx, err := strconv.Atoi(tok)
	if err != nil || idx < 0 {
		return 0, false
	}
	if idx > length || (!allowAppend && idx == length) {
		return 0, false
	}
	return idx, true
}
