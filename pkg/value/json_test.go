package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind Kind
		wantStr  string
		wantErr  bool
	}{
		{name: "null", input: "null", wantKind: KindNull, wantStr: "null"},
		{name: "bool", input: "true", wantKind: KindBool, wantStr: "true"},
		{name: "integer", input: "8", wantKind: KindNumber, wantStr: "8"},
		{name: "float", input: "3.25", wantKind: KindNumber, wantStr: "3.25"},
		{name: "whole float keeps fraction", input: "8.0", wantKind: KindNumber, wantStr: "8.0"},
		{name: "exponent", input: "1e-05", wantKind: KindNumber, wantStr: "1e-05"},
		{name: "string", input: `"a\"b"`, wantKind: KindString, wantStr: `"a\"b"`},
		{name: "array", input: "[1, 2.5, null]", wantKind: KindSeq, wantStr: "[1,2.5,null]"},
		{name: "object keeps key order", input: `{"z": 1, "a": [1, 2], "m": {"y": true, "b": "x"}}`, wantKind: KindMap, wantStr: `{"z":1,"a":[1,2],"m":{"y":true,"b":"x"}}`},
		{name: "empty object", input: "{}", wantKind: KindMap, wantStr: "{}"},
		{name: "surrounding whitespace", input: "  [1] \n", wantKind: KindSeq, wantStr: "[1]"},
		{name: "invalid syntax", input: "{x: 1}", wantErr: true},
		{name: "truncated", input: "[1, 2", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "trailing data", input: "1 2", wantErr: true},
		{name: "console text", input: "[1] 8", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, v.Kind())
			assert.Equal(t, tt.wantStr, v.String())
		})
	}
}

func TestDecodeJSON_IntegralFlag(t *testing.T) {
	v, err := DecodeJSON([]byte("[5, 5.5, 1e3, 100000000000000000000]"))
	require.NoError(t, err)

	items, ok := v.AsSeq()
	require.True(t, ok)
	require.Len(t, items, 4)
	assert.True(t, items[0].IsIntegral())
	assert.False(t, items[1].IsIntegral())
	assert.False(t, items[2].IsIntegral())
	assert.False(t, items[3].IsIntegral(), "integers beyond int64 are treated as floats")

	got, err := Coerce(items[3], ShapeAuto)
	require.NoError(t, err)
	assert.Equal(t, 1e20, got)
}

func TestDecodeJSON_DuplicateKeysKeepFirstPosition(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"a": 1, "b": 2, "a": 3}`))
	require.NoError(t, err)

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	got, _ := m.Get("a")
	assert.True(t, got.Equal(Int(3)))
}

func TestValue_JSONRoundTrip(t *testing.T) {
	m := NewMap()
	m.Set("mean", Number(3))
	m.Set("n", Int(5))
	m.Set("xs", Seq(Number(1.5), Null(), String("NA")))
	orig := FromMap(m)

	data, err := orig.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"mean":3.0,"n":5,"xs":[1.5,null,"NA"]}`, string(data))

	var back Value
	require.NoError(t, back.UnmarshalJSON(data))
	assert.True(t, orig.Equal(back))

	n, _ := back.AsMap()
	mean, _ := n.Get("mean")
	assert.False(t, mean.IsIntegral(), "whole floats must stay non-integral")
}

func TestValue_Interface(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"n": 5, "x": 2.5, "s": "a", "l": [true, null]}`))
	require.NoError(t, err)

	got := v.Interface()
	assert.Equal(t, map[string]any{
		"n": int64(5),
		"x": 2.5,
		"s": "a",
		"l": []any{true, nil},
	}, got)
}

func TestValue_Clone(t *testing.T) {
	orig := mustJSON(t, `{"a":[1,{"b":2}],"c":"x"}`)
	cp := orig.Clone()
	require.True(t, orig.Equal(cp))

	m, _ := cp.AsMap()
	m.Set("d", Int(4))
	items, _ := m.Values()[0].AsSeq()
	items[0] = Null()
	inner, _ := items[1].AsMap()
	inner.Set("b", String("changed"))

	assert.Equal(t, `{"a":[1,{"b":2}],"c":"x"}`, orig.String())
	assert.Equal(t, "7", Int(7).Clone().String())
}
