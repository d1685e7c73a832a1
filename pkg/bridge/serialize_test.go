package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

func TestSerializeJSON(t *testing.T) {
	tests := []struct {
		name string
		args Args
		want string
	}{
		{name: "no args", args: nil, want: `{}`},
		{name: "scalars sorted", args: Args{"y": 3, "x": 5}, want: `{"x":5,"y":3}`},
		{name: "float keeps fraction", args: Args{"x": 2.0}, want: `{"x":2.0}`},
		{name: "single quote escaped", args: Args{"s": "it's"}, want: `{"s":"it\'s"}`},
		{name: "backslash doubled", args: Args{"p": `C:\tmp`}, want: `{"p":"C:\\\\tmp"}`},
		{name: "newline escape survives", args: Args{"s": "a\nb"}, want: `{"s":"a\\nb"}`},
		{name: "vectors and null", args: Args{"v": []float64{1.5, 2}, "n": nil}, want: `{"n":null,"v":[1.5,2.0]}`},
		{
			name: "table flattened to columns",
			args: Args{"df": &value.Table{Columns: []value.Column{
				{Name: "a", Values: []value.Value{value.Int(1), value.Int(2)}},
			}}},
			want: `{"df":{"a":[1,2]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SerializeJSON(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerializeJSON_Errors(t *testing.T) {
	type point struct{ X int }

	tests := []struct {
		name    string
		args    Args
		wantArg string
	}{
		{name: "struct", args: Args{"p": point{1}}, wantArg: "p"},
		{name: "function", args: Args{"f": func() {}}, wantArg: "f"},
		{name: "nested", args: Args{"xs": []any{1, make(chan int)}}, wantArg: "xs[1]"},
		{name: "map entry", args: Args{"m": map[string]any{"k": complex(1, 1)}}, wantArg: "m.k"},
		{name: "empty name", args: Args{"": 1}, wantArg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SerializeJSON(tt.args)
			var se *SerializationError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.wantArg, se.Arg)

			var ve *ValidationError
			assert.True(t, errors.As(err, &ve), "serialization errors are validation errors")
		})
	}
}

func TestSerializeLiteral(t *testing.T) {
	tests := []struct {
		name string
		args Args
		want string
	}{
		{name: "no args", args: Args{}, want: ""},
		{name: "numbers", args: Args{"y": 3, "x": 5}, want: "x=5, y=3"},
		{name: "float", args: Args{"x": 0.25}, want: "x=0.25"},
		{name: "logical and null", args: Args{"a": true, "b": false, "c": nil}, want: "a=TRUE, b=FALSE, c=NULL"},
		{name: "string", args: Args{"s": "it's"}, want: `s='it\'s'`},
		{name: "vector", args: Args{"v": []int{1, 2, 3}}, want: "v=c(1, 2, 3)"},
		{name: "character vector", args: Args{"v": []string{"a", "b"}}, want: "v=c('a', 'b')"},
		{name: "nested", args: Args{"m": [][]int{{1, 2}, {3}}}, want: "m=list(c(1, 2), c(3))"},
		{name: "empty vector", args: Args{"v": []int{}}, want: "v=c()"},
		{name: "non-syntactic name", args: Args{"my arg": 1}, want: "`my arg`=1"},
		{name: "dotted name", args: Args{"na.rm": true}, want: "na.rm=TRUE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SerializeLiteral(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerializeLiteral_MapRejected(t *testing.T) {
	_, err := SerializeLiteral(Args{"opts": map[string]int{"a": 1}})
	var se *SerializationError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "opts", se.Arg)
	assert.Contains(t, se.Reason, "no R literal form")
}

func TestQuoteR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: `''`},
		{in: "plain", want: `'plain'`},
		{in: "it's", want: `'it\'s'`},
		{in: `a\b`, want: `'a\\b'`},
		{in: "line\nbreak\ttab", want: `'line\nbreak\ttab'`},
		{in: "bell\x07", want: `'bell\x07'`},
		{in: `say "hi"`, want: `'say "hi"'`},
		{in: "ünïcode", want: `'ünïcode'`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteR(tt.in))
		})
	}
}
