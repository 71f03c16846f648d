package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValueRejectsFloats(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare float", `1.5`},
		{"float in object", `{"priority": 2.7}`},
		{"float in array", `[1, 2, 3.14]`},
		{"exponent", `1e3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeValue([]byte(tt.input))
			require.Error(t, err)
		})
	}
}

func TestDecodeValueAdmitsNull(t *testing.T) {
	v, err := DecodeValue([]byte(`{"a": null}`))
	require.NoError(t, err)

	obj, ok := v.(Obj)
	require.True(t, ok)
	assert.Equal(t, Null{}, obj["a"])
}

func TestDecodeValueIntegers(t *testing.T) {
	v, err := DecodeValue([]byte(`{"n": 42, "neg": -7}`))
	require.NoError(t, err)

	obj := v.(Obj)
	assert.Equal(t, Int(42), obj["n"])
	assert.Equal(t, Int(-7), obj["neg"])
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// RFC 8785 orders by UTF-16 code units: a supplementary-plane character
	// sorts by its surrogate pair (0xD800...), below U+FF00 area characters.
	obj := Obj{
		"！": Int(1),
		"\U00010000": Int(2),
		"a":          Int(3),
	}
	assert.Equal(t, []string{"a", "\U00010000", "！"}, obj.SortedKeys())
}

func TestCopyValueIsDeep(t *testing.T) {
	orig := Obj{
		"steps": Arr{Obj{"name": Str("one")}},
	}
	clone := CopyValue(orig).(Obj)
	clone["steps"].(Arr)[0].(Obj)["name"] = Str("changed")

	assert.Equal(t, Str("one"), orig["steps"].(Arr)[0].(Obj)["name"])
}

func TestEqualValue(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal objects", Obj{"k": Int(1)}, Obj{"k": Int(1)}, true},
		{"different values", Obj{"k": Int(1)}, Obj{"k": Int(2)}, false},
		{"different keys", Obj{"k": Int(1)}, Obj{"j": Int(1)}, false},
		{"nested arrays", Arr{Arr{Str("x")}}, Arr{Arr{Str("x")}}, true},
		{"type mismatch", Str("1"), Int(1), false},
		{"null equals null", Null{}, Null{}, true},
		{"null vs string", Null{}, Str(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EqualValue(tt.a, tt.b))
		})
	}
}

func TestToValueFromValueRoundTrip(t *testing.T) {
	doc := &CaseIR{
		ID:      "Case_rt",
		Name:    "Round trip",
		Trigger: Trigger{Kind: TriggerManual},
		Stages: []Stage{{
			ID:   "stage_1",
			Name: "Only",
			Groups: []Group{{
				ID:    "grp_1",
				Steps: []Step{{Kind: StepAutomation, ID: "s1", Name: "Do it"}},
			}},
		}},
		End: EndEvent{Kind: EndNone},
	}

	v, err := ToValue(doc)
	require.NoError(t, err)

	out := &CaseIR{}
	require.NoError(t, FromValue(v, out))
	assert.Equal(t, doc, out)
}

func TestFromValueRejectsUnknownFields(t *testing.T) {
	v := Obj{
		"id":      Str("Case_1"),
		"name":    Str("X"),
		"trigger": Obj{"kind": Str("manual")},
		"stages":  Arr{},
		"end":     Obj{"kind": Str("none")},
		"bogus":   Str("nope"),
	}
	err := FromValue(v, &CaseIR{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}
