package starlark

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{name: "int", expr: "5", want: "5"},
		{name: "negative float", expr: "-2.5", want: "-2.5"},
		{name: "arithmetic", expr: "1 + 2 * 3", want: "7"},
		{name: "string", expr: `"cyl"`, want: `"cyl"`},
		{name: "r logical", expr: "TRUE", want: "true"},
		{name: "python logical", expr: "False", want: "false"},
		{name: "null", expr: "NULL", want: "null"},
		{name: "list", expr: "[1, 2.5, 'a']", want: `[1,2.5,"a"]`},
		{name: "tuple", expr: "(1, 2)", want: "[1,2]"},
		{name: "range", expr: "range(3)", want: "[0,1,2]"},
		{name: "nested", expr: "[[1, 2], [3, 4]]", want: "[[1,2],[3,4]]"},
		{name: "dict keeps order", expr: "{'b': 1, 'a': [TRUE]}", want: `{"b":1,"a":[true]}`},
		{name: "big int", expr: "1 << 70", want: "1.1805916207174113e+21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLiteral(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseLiteral_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "syntax", expr: "[1, 2"},
		{name: "undefined", expr: "mpg"},
		{name: "function value", expr: "len"},
		{name: "int dict key", expr: "{1: 2}"},
		{name: "runaway", expr: "[x for x in range(1000000)]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLiteral(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestParseLiteral_EvalError(t *testing.T) {
	_, err := ParseLiteral("1 +")
	var ee *EvalError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "1 +", ee.Expr)
	assert.Contains(t, ee.Error(), `error evaluating "1 +"`)
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		name     string
		arg      string
		wantName string
		want     string
	}{
		{name: "number", arg: "x=5", wantName: "x", want: "5"},
		{name: "vector", arg: "xs=[1, 2, 3]", wantName: "xs", want: "[1,2,3]"},
		{name: "bare word falls back to string", arg: "label=mpg", wantName: "label", want: `"mpg"`},
		{name: "equals in value", arg: "f=a=b", wantName: "f", want: `"a=b"`},
		{name: "empty value", arg: "s=", wantName: "s", want: `""`},
		{name: "spaced name", arg: " y =3", wantName: "y", want: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, v, err := ParseArg(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestParseArg_Malformed(t *testing.T) {
	for _, arg := range []string{"novalue", "=5"} {
		t.Run(arg, func(t *testing.T) {
			_, _, err := ParseArg(arg)
			assert.Error(t, err)
		})
	}
}

func TestToValue(t *testing.T) {
	set := starlark.NewSet(2)
	require.NoError(t, set.Insert(starlark.String("a")))
	require.NoError(t, set.Insert(starlark.String("b")))

	got, err := ToValue(set)
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, got.String())

	_, err = ToValue(starlark.NewList([]starlark.Value{starlark.MakeInt(1), starlark.Universe["len"]}))
	assert.EqualError(t, err, "list index 1: unsupported Starlark type builtin_function_or_method")
}
