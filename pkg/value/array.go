package value

import (
	"fmt"
	"math"
	"strconv"
)

// Array is a dense numeric array of one or two dimensions stored in
// row-major order. Missing values (R's NA) are NaN.
type Array struct {
	Shape []int
	Data  []float64
}

// NewVector creates a 1-D array.
func NewVector(data []float64) *Array {
	return &Array{Shape: []int{len(data)}, Data: data}
}

// NewMatrix creates a rows x cols array from row-major data.
func NewMatrix(rows, cols int, data []float64) (*Array, error) {
	if rows*cols != len(data) {
		return nil, fmt.Errorf("matrix %dx%d needs %d elements, got %d", rows, cols, rows*cols, len(data))
	}
	return &Array{Shape: []int{rows, cols}, Data: data}, nil
}

// Dims returns the number of dimensions.
func (a *Array) Dims() int { return len(a.Shape) }

// Len returns the total number of elements.
func (a *Array) Len() int { return len(a.Data) }

// At returns the element at (row, col) of a 2-D array, or the element at
// index row of a 1-D array when col is 0.
func (a *Array) At(row, col int) float64 {
	if a.Dims() == 1 {
		return a.Data[row]
	}
	return a.Data[row*a.Shape[1]+col]
}

// Row returns a copy of row i of a 2-D array.
func (a *Array) Row(i int) []float64 {
	if a.Dims() == 1 {
		return []float64{a.Data[i]}
	}
	cols := a.Shape[1]
	out := make([]float64, cols)
	copy(out, a.Data[i*cols:(i+1)*cols])
	return out
}

// Value converts the array back to nested sequences. NaN becomes null.
func (a *Array) Value() Value {
	if a.Dims() < 2 {
		return Seq(floatsToValues(a.Data)...)
	}
	rows := make([]Value, a.Shape[0])
	for i := range rows {
		rows[i] = Seq(floatsToValues(a.Row(i))...)
	}
	return Seq(rows...)
}

func floatsToValues(data []float64) []Value {
	out := make([]Value, len(data))
	for i, f := range data {
		if math.IsNaN(f) {
			out[i] = Null()
			continue
		}
		out[i] = Number(f)
	}
	return out
}

// Column is one named column of a Table.
type Column struct {
	Name   string
	Values []Value
}

// Table is a column-oriented table. RowNames is empty unless the table was
// built from a labeled vector.
type Table struct {
	Columns  []Column
	RowNames []string
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return len(t.RowNames)
	}
	return len(t.Columns[0].Values)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Cell returns the value at row i of the named column.
func (t *Table) Cell(i int, name string) (Value, bool) {
	c, ok := t.Column(name)
	if !ok || i < 0 || i >= len(c.Values) {
		return Value{}, false
	}
	return c.Values[i], true
}

// Value flattens the table into a column mapping, the layout jsonlite uses
// for data frames with dataframe = "columns". A labeled vector becomes a
// mapping from row name to value.
func (t *Table) Value() Value {
	m := NewMap()
	if len(t.RowNames) > 0 && len(t.Columns) == 1 {
		for i, name := range t.RowNames {
			m.Set(name, t.Columns[0].Values[i])
		}
		return FromMap(m)
	}
	for _, c := range t.Columns {
		m.Set(c.Name, Seq(c.Values...))
	}
	return FromMap(m)
}

func positionalNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return names
}
