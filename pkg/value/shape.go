package value

import (
	"errors"
	"fmt"
	"strings"
)

// Shape is the host-side type a caller asks a result to be coerced into.
type Shape string

// Supported shapes.
const (
	ShapeAuto  Shape = "auto"
	ShapeRaw   Shape = "raw"
	ShapeInt   Shape = "int"
	ShapeFloat Shape = "float"
	ShapeStr   Shape = "str"
	ShapeBool  Shape = "bool"
	ShapeList  Shape = "list"
	ShapeDict  Shape = "dict"
	ShapeArray Shape = "array"
	ShapeTable Shape = "table"
)

// AllShapes lists every shape in documentation order.
var AllShapes = []Shape{
	ShapeAuto, ShapeRaw, ShapeInt, ShapeFloat, ShapeStr, ShapeBool,
	ShapeList, ShapeDict, ShapeArray, ShapeTable,
}

// TextShapes lists the shapes available when the result is recovered from
// R's printed console output.
var TextShapes = []Shape{ShapeRaw, ShapeInt, ShapeFloat, ShapeList, ShapeDict}

// ErrUnknownShape is returned by ParseShape for unrecognized names.
var ErrUnknownShape = errors.New("unknown shape")

// shapeAliases maps alternate names accepted on input.
var shapeAliases = map[string]Shape{
	"string": ShapeStr,
}

// ParseShape parses a shape name, case-insensitively. The empty string
// parses as ShapeAuto.
func ParseShape(s string) (Shape, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return ShapeAuto, nil
	}
	if alias, ok := shapeAliases[name]; ok {
		return alias, nil
	}
	for _, shape := range AllShapes {
		if string(shape) == name {
			return shape, nil
		}
	}
	return "", fmt.Errorf("%w %q (valid: %s)", ErrUnknownShape, s, JoinShapes(AllShapes))
}

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	for _, shape := range AllShapes {
		if shape == s {
			return true
		}
	}
	return false
}

// In reports whether s is one of shapes.
func (s Shape) In(shapes []Shape) bool {
	for _, shape := range shapes {
		if shape == s {
			return true
		}
	}
	return false
}

// JoinShapes renders shapes as a comma separated list.
func JoinShapes(shapes []Shape) string {
	names := make([]string, len(shapes))
	for i, s := range shapes {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
