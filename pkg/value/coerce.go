package value

import (
	"fmt"
	"math"
	"strconv"
)

// ResultKey is the key under which a scalar is stored when it is coerced to
// a mapping.
const ResultKey = "result"

// ShapeMismatchError reports a value whose runtime shape cannot satisfy the
// requested shape.
type ShapeMismatchError struct {
	Want   Shape
	Got    string // runtime shape of the value, see Value.Describe
	Detail string
}

func (e *ShapeMismatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cannot convert %s to %s: %s", e.Got, e.Want, e.Detail)
	}
	return fmt.Sprintf("cannot convert %s to %s", e.Got, e.Want)
}

func mismatch(v Value, want Shape, detail string) error {
	return &ShapeMismatchError{Want: want, Got: v.Describe(), Detail: detail}
}

// Coerce converts v into the Go type associated with shape:
//
//	raw   Value
//	int   int64
//	float float64
//	str   string
//	bool  bool
//	list  []Value
//	dict  *Map
//	array *Array
//	table *Table
//
// ShapeAuto picks one of the above from the structure of v; see Infer.
func Coerce(v Value, shape Shape) (any, error) {
	if shape == ShapeAuto {
		shape = Infer(v)
	}

	switch shape {
	case ShapeRaw:
		return v, nil
	case ShapeInt:
		return ToInt(v)
	case ShapeFloat:
		return ToFloat(v)
	case ShapeStr:
		return ToStr(v), nil
	case ShapeBool:
		return ToBool(v), nil
	case ShapeList:
		return ToList(v), nil
	case ShapeDict:
		return ToDict(v), nil
	case ShapeArray:
		return ToArray(v)
	case ShapeTable:
		return ToTable(v)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownShape, shape)
	}
}

// Infer chooses a shape from the structure of v: a non-empty mapping of
// sequences is a table, any other mapping a dict, a non-empty sequence of
// numbers an array, any other sequence a list; scalars map to bool, int,
// float or str, and null stays raw.
func Infer(v Value) Shape {
	switch v.Kind() {
	case KindMap:
		m, _ := v.AsMap()
		if m.Len() == 0 {
			return ShapeDict
		}
		for _, item := range m.Values() {
			if item.Kind() != KindSeq {
				return ShapeDict
			}
		}
		return ShapeTable
	case KindSeq:
		items, _ := v.AsSeq()
		if len(items) == 0 {
			return ShapeList
		}
		for _, item := range items {
			if item.Kind() != KindNumber {
				return ShapeList
			}
		}
		return ShapeArray
	case KindBool:
		return ShapeBool
	case KindNumber:
		if v.IsIntegral() {
			return ShapeInt
		}
		return ShapeFloat
	case KindString:
		return ShapeStr
	default:
		return ShapeRaw
	}
}

// unwrapSingle returns the only element of a one-element sequence, or v.
func unwrapSingle(v Value) Value {
	if items, ok := v.AsSeq(); ok && len(items) == 1 {
		return items[0]
	}
	return v
}

// ToInt accepts a number or a one-element sequence holding one. Fractional
// parts are truncated toward zero.
func ToInt(v Value) (int64, error) {
	n, ok := unwrapSingle(v).AsNumber()
	if !ok {
		return 0, mismatch(v, ShapeInt, "")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, mismatch(v, ShapeInt, "non-finite number")
	}
	if n >= 1<<63 || n < -(1<<63) {
		return 0, mismatch(v, ShapeInt, strconv.FormatFloat(n, 'g', -1, 64)+" is out of int64 range")
	}
	return int64(n), nil
}

// ToFloat accepts a number or a one-element sequence holding one.
func ToFloat(v Value) (float64, error) {
	n, ok := unwrapSingle(v).AsNumber()
	if !ok {
		return 0, mismatch(v, ShapeFloat, "")
	}
	return n, nil
}

// ToStr returns strings as is and renders anything else as JSON text.
func ToStr(v Value) string {
	inner := unwrapSingle(v)
	if s, ok := inner.AsString(); ok {
		return s
	}
	if n, ok := inner.AsNumber(); ok && !inner.IsIntegral() {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return inner.String()
}

// ToBool follows truthiness: false, null, zero, and empty strings and
// collections are false.
func ToBool(v Value) bool {
	inner := unwrapSingle(v)
	switch inner.Kind() {
	case KindBool:
		b, _ := inner.AsBool()
		return b
	case KindNumber:
		n, _ := inner.AsNumber()
		return n != 0
	case KindString:
		s, _ := inner.AsString()
		return s != ""
	case KindSeq, KindMap:
		return inner.Len() > 0
	default:
		return false
	}
}

// ToList passes sequences through, takes a mapping's values in key order,
// and wraps anything else in a one-element list.
func ToList(v Value) []Value {
	switch v.Kind() {
	case KindSeq:
		items, _ := v.AsSeq()
		return items
	case KindMap:
		m, _ := v.AsMap()
		return m.Values()
	default:
		return []Value{v}
	}
}

// ToDict passes mappings through, keys sequences by stringified position,
// and stores anything else under ResultKey.
func ToDict(v Value) *Map {
	switch v.Kind() {
	case KindMap:
		m, _ := v.AsMap()
		return m
	case KindSeq:
		items, _ := v.AsSeq()
		m := NewMap()
		for i, item := range items {
			m.Set(strconv.Itoa(i), item)
		}
		return m
	default:
		m := NewMap()
		m.Set(ResultKey, v)
		return m
	}
}

// ToArray builds a numeric array. A mapping of sequences becomes a 2-D
// array whose columns are the mapping entries; a mapping of scalars a 1-D
// array of its values; a sequence of sequences a 2-D array of rows; a flat
// sequence or scalar a 1-D array.
func ToArray(v Value) (*Array, error) {
	switch v.Kind() {
	case KindMap:
		m, _ := v.AsMap()
		cols := m.Values()
		if allSeqs(cols) && len(cols) > 0 {
			colData := make([][]float64, len(cols))
			for i, c := range cols {
				data, err := numbers(c, ShapeArray)
				if err != nil {
					return nil, err
				}
				colData[i] = data
			}
			return transpose(v, colData)
		}
		data, err := numbers(Seq(cols...), ShapeArray)
		if err != nil {
			return nil, err
		}
		return NewVector(data), nil
	case KindSeq:
		items, _ := v.AsSeq()
		if len(items) > 0 && items[0].Kind() == KindSeq {
			rows := make([][]float64, len(items))
			for i, r := range items {
				if r.Kind() != KindSeq {
					return nil, mismatch(v, ShapeArray, fmt.Sprintf("row %d is %s", i, r.Describe()))
				}
				data, err := numbers(r, ShapeArray)
				if err != nil {
					return nil, err
				}
				rows[i] = data
			}
			return stack(v, rows)
		}
		data, err := numbers(v, ShapeArray)
		if err != nil {
			return nil, err
		}
		return NewVector(data), nil
	default:
		data, err := numbers(Seq(v), ShapeArray)
		if err != nil {
			return nil, err
		}
		return NewVector(data), nil
	}
}

// ToTable builds a column-oriented table. A mapping of sequences becomes one
// column per entry; a mapping of scalars a single "value" column labeled by
// the keys; a sequence of sequences one row per inner sequence with columns
// "0".."n-1"; a flat sequence a single "value" column.
func ToTable(v Value) (*Table, error) {
	switch v.Kind() {
	case KindMap:
		m, _ := v.AsMap()
		vals := m.Values()
		if allSeqs(vals) {
			t := &Table{}
			rows := -1
			for i, k := range m.Keys() {
				items, _ := vals[i].AsSeq()
				if rows >= 0 && len(items) != rows {
					return nil, mismatch(v, ShapeTable, fmt.Sprintf("column %q has %d rows, want %d", k, len(items), rows))
				}
				rows = len(items)
				t.Columns = append(t.Columns, Column{Name: k, Values: items})
			}
			return t, nil
		}
		return &Table{
			Columns:  []Column{{Name: "value", Values: vals}},
			RowNames: m.Keys(),
		}, nil
	case KindSeq:
		items, _ := v.AsSeq()
		if len(items) > 0 && items[0].Kind() == KindSeq {
			width := 0
			for _, r := range items {
				if r.Len() > width {
					width = r.Len()
				}
			}
			t := &Table{}
			for _, name := range positionalNames(width) {
				t.Columns = append(t.Columns, Column{Name: name, Values: make([]Value, len(items))})
			}
			for i, r := range items {
				cells, ok := r.AsSeq()
				if !ok {
					return nil, mismatch(v, ShapeTable, fmt.Sprintf("row %d is %s", i, r.Describe()))
				}
				for j := range t.Columns {
					if j < len(cells) {
						t.Columns[j].Values[i] = cells[j]
					}
				}
			}
			return t, nil
		}
		return &Table{Columns: []Column{{Name: "value", Values: items}}}, nil
	default:
		return nil, mismatch(v, ShapeTable, "")
	}
}

func allSeqs(vals []Value) bool {
	for _, v := range vals {
		if v.Kind() != KindSeq {
			return false
		}
	}
	return true
}

func numbers(v Value, want Shape) ([]float64, error) {
	items, _ := v.AsSeq()
	out := make([]float64, len(items))
	for i, item := range items {
		switch item.Kind() {
		case KindNumber:
			out[i], _ = item.AsNumber()
		case KindNull:
			out[i] = math.NaN()
		case KindBool:
			if b, _ := item.AsBool(); b {
				out[i] = 1
			}
		default:
			return nil, mismatch(v, want, fmt.Sprintf("element %d is %s", i, item.Describe()))
		}
	}
	return out, nil
}

// stack assembles equal-length rows into a 2-D array.
func stack(v Value, rows [][]float64) (*Array, error) {
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, mismatch(v, ShapeArray, fmt.Sprintf("row %d has %d elements, want %d", i, len(r), cols))
		}
		data = append(data, r...)
	}
	return NewMatrix(len(rows), cols, data)
}

// transpose assembles equal-length columns into a 2-D array.
func transpose(v Value, cols [][]float64) (*Array, error) {
	rows := len(cols[0])
	data := make([]float64, rows*len(cols))
	for j, c := range cols {
		if len(c) != rows {
			return nil, mismatch(v, ShapeArray, fmt.Sprintf("column %d has %d elements, want %d", j, len(c), rows))
		}
		for i, f := range c {
			data[i*len(cols)+j] = f
		}
	}
	return NewMatrix(rows, len(cols), data)
}
