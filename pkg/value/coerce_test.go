package value

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, s string) Value {
	t.Helper()
	v, err := DecodeJSON([]byte(s))
	require.NoError(t, err)
	return v
}

func TestToIntAndFloat_ScalarRoundTrip(t *testing.T) {
	for _, n := range []float64{0, 8, -3, 42, 1 << 40} {
		for _, v := range []Value{Number(n), Seq(Number(n)), Int(int64(n))} {
			f, err := ToFloat(v)
			require.NoError(t, err)
			assert.Equal(t, n, f)

			i, err := ToInt(v)
			require.NoError(t, err)
			assert.Equal(t, int64(n), i)
		}
	}
}

func TestToInt_Mismatch(t *testing.T) {
	tests := []struct {
		name    string
		input   Value
		wantGot string
	}{
		{name: "string", input: String("8"), wantGot: "string"},
		{name: "multi element seq", input: Seq(Int(1), Int(2)), wantGot: "seq of 2"},
		{name: "map", input: FromMap(NewMap()), wantGot: "map of 0"},
		{name: "null", input: Null(), wantGot: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToInt(tt.input)
			var sm *ShapeMismatchError
			require.True(t, errors.As(err, &sm))
			assert.Equal(t, ShapeInt, sm.Want)
			assert.Equal(t, tt.wantGot, sm.Got)

			_, err = ToFloat(tt.input)
			require.True(t, errors.As(err, &sm))
			assert.Equal(t, ShapeFloat, sm.Want)
		})
	}
}

func TestToInt_Truncates(t *testing.T) {
	i, err := ToInt(Number(3.9))
	require.NoError(t, err)
	assert.Equal(t, int64(3), i)

	i, err = ToInt(Number(-3.9))
	require.NoError(t, err)
	assert.Equal(t, int64(-3), i)
}

func TestToInt_Range(t *testing.T) {
	tests := []struct {
		name    string
		input   Value
		want    int64
		wantErr bool
	}{
		{name: "largest float below 2^63", input: Number(9223372036854774784), want: 9223372036854774784},
		{name: "min int64", input: Number(-9223372036854775808), want: math.MinInt64},
		{name: "2^63", input: Number(9223372036854775808), wantErr: true},
		{name: "huge", input: Number(1e300), wantErr: true},
		{name: "below min int64", input: Number(-1e19), wantErr: true},
		{name: "infinity", input: Number(math.Inf(1)), wantErr: true},
		{name: "nan", input: Number(math.NaN()), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToInt(tt.input)
			if tt.wantErr {
				var sm *ShapeMismatchError
				require.True(t, errors.As(err, &sm), "got %v", err)
				assert.Equal(t, ShapeInt, sm.Want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToList(t *testing.T) {
	m := mustJSON(t, `{"b": 1, "a": 2, "c": [3]}`)
	list := ToList(m)
	require.Len(t, list, 3)
	assert.True(t, list[0].Equal(Int(1)))
	assert.True(t, list[1].Equal(Int(2)))
	assert.True(t, list[2].Equal(Seq(Int(3))))

	assert.Equal(t, []Value{String("x")}, ToList(String("x")))

	seq := Seq(Int(1), Int(2))
	assert.Len(t, ToList(seq), 2)
}

func TestListThenDict_IsPositional(t *testing.T) {
	m := mustJSON(t, `{"mean": 3, "sd": 1.5}`)

	back := ToDict(Seq(ToList(m)...))
	assert.Equal(t, []string{"0", "1"}, back.Keys())
	v, _ := back.Get("1")
	assert.True(t, v.Equal(Number(1.5)))
}

func TestToDict(t *testing.T) {
	m := mustJSON(t, `{"x": 1}`)
	got := ToDict(m)
	assert.Equal(t, []string{"x"}, got.Keys())

	scalar := ToDict(Number(2.5))
	assert.Equal(t, []string{ResultKey}, scalar.Keys())
}

func TestToStrAndBool(t *testing.T) {
	assert.Equal(t, "hello", ToStr(Seq(String("hello"))))
	assert.Equal(t, "8", ToStr(Int(8)))
	assert.Equal(t, "2.5", ToStr(Number(2.5)))
	assert.Equal(t, `[1,2]`, ToStr(Seq(Int(1), Int(2))))

	assert.True(t, ToBool(Seq(Bool(true))))
	assert.False(t, ToBool(Int(0)))
	assert.True(t, ToBool(String("x")))
	assert.False(t, ToBool(Null()))
}

func TestToArray(t *testing.T) {
	t.Run("flat sequence", func(t *testing.T) {
		a, err := ToArray(mustJSON(t, `[1, 2, null]`))
		require.NoError(t, err)
		assert.Equal(t, []int{3}, a.Shape)
		assert.Equal(t, 2.0, a.At(1, 0))
		assert.True(t, math.IsNaN(a.Data[2]))
	})

	t.Run("sequence of sequences is row major", func(t *testing.T) {
		a, err := ToArray(mustJSON(t, `[[1, 2], [3, 4], [5, 6]]`))
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2}, a.Shape)
		assert.Equal(t, 4.0, a.At(1, 1))
	})

	t.Run("mapping of sequences becomes columns", func(t *testing.T) {
		a, err := ToArray(mustJSON(t, `{"x": [1, 2, 3], "y": [10, 20, 30]}`))
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2}, a.Shape)
		assert.Equal(t, []float64{2, 20}, a.Row(1))
	})

	t.Run("mapping of scalars", func(t *testing.T) {
		a, err := ToArray(mustJSON(t, `{"a": 1, "b": 2}`))
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, a.Data)
	})

	t.Run("ragged rows", func(t *testing.T) {
		_, err := ToArray(mustJSON(t, `[[1, 2], [3]]`))
		var sm *ShapeMismatchError
		assert.True(t, errors.As(err, &sm))
	})

	t.Run("strings are rejected", func(t *testing.T) {
		_, err := ToArray(mustJSON(t, `["a"]`))
		var sm *ShapeMismatchError
		assert.True(t, errors.As(err, &sm))
	})
}

func TestToTable(t *testing.T) {
	t.Run("column mapping", func(t *testing.T) {
		tbl, err := ToTable(mustJSON(t, `{"mpg": [21, 22.8], "cyl": [6, 4]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"mpg", "cyl"}, tbl.ColumnNames())
		assert.Equal(t, 2, tbl.NumRows())
		cell, ok := tbl.Cell(1, "mpg")
		require.True(t, ok)
		assert.True(t, cell.Equal(Number(22.8)))
	})

	t.Run("labeled vector", func(t *testing.T) {
		tbl, err := ToTable(mustJSON(t, `{"mean": 3, "n": 5}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"mean", "n"}, tbl.RowNames)
		assert.Equal(t, []string{"value"}, tbl.ColumnNames())
	})

	t.Run("rows", func(t *testing.T) {
		tbl, err := ToTable(mustJSON(t, `[[1, "a"], [2, "b"]]`))
		require.NoError(t, err)
		assert.Equal(t, []string{"0", "1"}, tbl.ColumnNames())
		cell, _ := tbl.Cell(1, "1")
		assert.True(t, cell.Equal(String("b")))
	})

	t.Run("unequal columns", func(t *testing.T) {
		_, err := ToTable(mustJSON(t, `{"a": [1, 2], "b": [1]}`))
		assert.Error(t, err)
	})

	t.Run("scalar", func(t *testing.T) {
		_, err := ToTable(Int(1))
		var sm *ShapeMismatchError
		assert.True(t, errors.As(err, &sm))
	})
}

func TestInfer(t *testing.T) {
	tests := []struct {
		input string
		want  Shape
	}{
		{`{"a": [1], "b": [2]}`, ShapeTable},
		{`{"a": [1], "b": 2}`, ShapeDict},
		{`{}`, ShapeDict},
		{`[1, 2.5]`, ShapeArray},
		{`[1, "a"]`, ShapeList},
		{`[]`, ShapeList},
		{`true`, ShapeBool},
		{`8`, ShapeInt},
		{`8.5`, ShapeFloat},
		{`"s"`, ShapeStr},
		{`null`, ShapeRaw},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Infer(mustJSON(t, tt.input)))
		})
	}
}

func TestCoerce(t *testing.T) {
	v := mustJSON(t, `8`)

	got, err := Coerce(v, ShapeFloat)
	require.NoError(t, err)
	assert.Equal(t, 8.0, got)

	got, err = Coerce(v, ShapeAuto)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got)

	got, err = Coerce(v, ShapeRaw)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = Coerce(v, Shape("tensor"))
	assert.ErrorIs(t, err, ErrUnknownShape)
}

func TestParseShape(t *testing.T) {
	got, err := ParseShape("FLOAT")
	require.NoError(t, err)
	assert.Equal(t, ShapeFloat, got)

	got, err = ParseShape("string")
	require.NoError(t, err)
	assert.Equal(t, ShapeStr, got)

	got, err = ParseShape("")
	require.NoError(t, err)
	assert.Equal(t, ShapeAuto, got)

	for _, name := range []string{"tuple", "numpy", "pandas"} {
		_, err = ParseShape(name)
		assert.ErrorIs(t, err, ErrUnknownShape, name)
	}

	assert.True(t, ShapeDict.In(TextShapes))
	assert.False(t, ShapeTable.In(TextShapes))
}
