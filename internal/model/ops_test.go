package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClone_IsDeep(t *testing.T) {
	item := Object{"text": String("milk")}
	orig := Object{"items": List{item}}

	cp := orig.Clone()
	cp.List("items")[0].(Object)["text"] = String("eggs")

	assert.Equal(t, String("milk"), item["text"])
	assert.True(t, Equal(Object{"items": List{Object{"text": String("milk")}}}, orig))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, Null{}))
	assert.True(t, Equal(Strings("a", "b"), List{String("a"), String("b")}))
	assert.False(t, Equal(Strings("a"), Strings("a", "b")))
	assert.False(t, Equal(String("1"), Int(1)))
	assert.False(t, Equal(Object{"a": Int(1)}, Object{"b": Int(1)}))
}

func TestLookup(t *testing.T) {
	obj := Object{"route": Object{"page": String("users")}}

	v, ok := obj.Lookup("route.page")
	assert.True(t, ok)
	assert.Equal(t, String("users"), v)

	_, ok = obj.Lookup("route.page.deeper")
	assert.False(t, ok)

	_, ok = obj.Lookup("missing")
	assert.False(t, ok)
}

func TestAccessors(t *testing.T) {
	obj := Object{"s": String("x"), "i": Int(2), "b": Bool(true), "o": Object{}, "l": List{}}

	assert.Equal(t, "x", obj.Str("s"))
	assert.Equal(t, int64(2), obj.Int("i"))
	assert.True(t, obj.Bool("b"))
	assert.NotNil(t, obj.Obj("o"))
	assert.NotNil(t, obj.List("l"))

	assert.Equal(t, "", obj.Str("i"))
	assert.Nil(t, obj.Obj("s"))
}
