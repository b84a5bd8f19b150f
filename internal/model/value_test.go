package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("s")
	var _ Value = Int(1)
	var _ Value = Bool(true)
	var _ Value = List{String("a")}
	var _ Value = Object{"k": Int(1)}
}

func TestObjectSortedKeys_UTF16Order(t *testing.T) {
	obj := Object{"a": Int(1), "A": Int(2), "aa": Int(3), "AA": Int(4), "Aa": Int(5)}
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aa"}, obj.SortedKeys())
}

func TestObjectSortedKeys_SurrogatePairs(t *testing.T) {
	// U+1F600 encodes as 0xD83D 0xDE00 in UTF-16, which sorts before
	// U+FF61 (0xFF61) even though its UTF-8 bytes sort after.
	obj := Object{"\U0001F600": Int(1), "\uff61": Int(2)}
	assert.Equal(t, []string{"\U0001F600", "\uff61"}, obj.SortedKeys())
}

func TestParseObject_RoundTrip(t *testing.T) {
	original := Object{
		"title": String("Todos <&>"),
		"count": Int(-3),
		"done":  Bool(false),
		"none":  Null{},
		"items": List{
			Object{"text": String("milk"), "done": Bool(true)},
			Object{"text": String("eggs"), "done": Bool(false)},
		},
		"query": Object{"tag": Strings("a", "b")},
	}

	data, err := MarshalCanonical(original)
	require.NoError(t, err)

	parsed, err := ParseObject(data)
	require.NoError(t, err)
	assert.True(t, Equal(original, parsed), "round trip must be value-equal")
}

func TestParseObject_RejectsFloats(t *testing.T) {
	_, err := ParseObject([]byte(`{"n": 1.5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-integer")
}

func TestParseObject_RejectsNonObject(t *testing.T) {
	_, err := ParseObject([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestObject_StdlibJSON(t *testing.T) {
	obj := Object{"b": Int(2), "a": String("x")}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":2}`, string(data))

	var back Object
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, obj, back)
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"name":  "x",
		"n":     3,
		"f":     float64(4),
		"list":  []any{"a", true},
		"empty": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, Object{
		"name":  String("x"),
		"n":     Int(3),
		"f":     Int(4),
		"list":  List{String("a"), Bool(true)},
		"empty": Null{},
	}, v)

	_, err = FromAny(2.5)
	assert.Error(t, err)

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestObjectFromAny_RequiresObject(t *testing.T) {
	_, err := ObjectFromAny([]any{1})
	assert.Error(t, err)
}
