package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertiesGet(t *testing.T) {
	props := Properties{
		"fields": []string{"title"},
		"nested": map[string]any{
			"deep": map[string]any{"leaf": "x"},
		},
		"scalar": 3,
	}

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{"top level", "fields", []string{"title"}, true},
		{"nested leaf", "nested.deep.leaf", "x", true},
		{"missing key", "nope", nil, false},
		{"missing nested", "nested.nope.leaf", nil, false},
		{"through scalar", "scalar.inner", nil, false},
		{"empty path", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := props.Get(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPropertiesGetNil(t *testing.T) {
	var props Properties
	_, ok := props.Get("fields")
	assert.False(t, ok)
}

func TestPropertiesSet(t *testing.T) {
	props := Properties{"scalar": 3}

	got := props.Set("scalar.inner", "v")

	v, ok := got.Get("scalar.inner")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, 3, props["scalar"])

	var empty Properties
	created := empty.Set("locales", []string{"en"})
	assert.Equal(t, []string{"en"}, created.Locales())
	assert.Nil(t, empty)

	assert.Equal(t, props, props.Set("", "ignored"))
}

func TestPropertiesDelete(t *testing.T) {
	props := Properties{
		"fields":  []string{"a"},
		"locales": []string{"en"},
		"nested":  map[string]any{"k": 1, "j": 2},
	}

	got := props.Delete("nested.k")
	assert.Equal(t, map[string]any{"j": 2}, got["nested"])
	assert.Equal(t, map[string]any{"k": 1, "j": 2}, props["nested"])

	got = got.Delete("locales")
	assert.Nil(t, got.Locales())
	assert.Equal(t, []string{"en"}, props.Locales())

	assert.Equal(t, props, props.Delete("fields.inner"))
	assert.Equal(t, props, props.Delete("missing"))

	var empty Properties
	assert.Nil(t, empty.Delete("fields"))
}

func TestPropertiesStringLists(t *testing.T) {
	props := Properties{
		"fields":  []any{"title", 7, "body"},
		"locales": "en",
	}

	assert.Equal(t, []string{"title", "body"}, props.Fields())
	assert.Nil(t, props.Locales())
}

func TestPropertiesCloneIsDeep(t *testing.T) {
	props := Properties{
		"nested": map[string]any{"list": []any{"a", map[string]any{"b": 1}}},
	}

	clone := props.Clone()
	clone["nested"].(map[string]any)["list"].([]any)[1].(map[string]any)["b"] = 2

	v, ok := props.Get("nested")
	require.True(t, ok)
	inner := v.(map[string]any)["list"].([]any)[1].(map[string]any)
	assert.Equal(t, 1, inner["b"])
}
