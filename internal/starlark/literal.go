// Package starlark evaluates command-line argument values as Starlark
// expressions, so "--arg x=[1, 2.5]" passes a list and "--arg opts={'k': 1}"
// a mapping. R spellings TRUE, FALSE and NULL are predeclared.
package starlark

import (
	"fmt"
	"math/big"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// maxSteps bounds the work one literal may take to evaluate.
const maxSteps = 100_000

var predeclared = starlark.StringDict{
	"TRUE":  starlark.True,
	"FALSE": starlark.False,
	"NULL":  starlark.None,
}

// ParseLiteral evaluates expr and converts the result into a Value.
func ParseLiteral(expr string) (value.Value, error) {
	thread := &starlark.Thread{
		Name:  "arg",
		Print: func(_ *starlark.Thread, _ string) {},
	}
	thread.SetMaxExecutionSteps(maxSteps)

	result, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, "arg", expr, predeclared)
	if err != nil {
		return value.Value{}, &EvalError{Expr: expr, Message: err.Error()}
	}
	return ToValue(result)
}

// ParseArg splits "name=expr" and evaluates expr. When expr is not a valid
// expression it is taken as a plain string, so "--arg label=mpg" works
// without quoting.
func ParseArg(arg string) (string, value.Value, error) {
	name, expr, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", value.Value{}, fmt.Errorf("argument %q must have the form name=value", arg)
	}

	v, err := ParseLiteral(expr)
	if err != nil {
		return name, value.String(expr), nil
	}
	return name, v, nil
}

// EvalError represents an error during Starlark expression evaluation.
type EvalError struct {
	Expr    string
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("error evaluating %q: %s", e.Expr, e.Message)
}

// ToValue converts a Starlark value into a Value. Dicts keep their
// insertion order and must have string keys; lists, tuples, ranges and sets
// become sequences. Functions and other values fail.
func ToValue(v starlark.Value) (value.Value, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return value.Null(), nil

	case starlark.Bool:
		return value.Bool(bool(val)), nil

	case starlark.String:
		return value.String(string(val)), nil

	case starlark.Int:
		if i64, ok := val.Int64(); ok {
			return value.Int(i64), nil
		}
		f, _ := new(big.Float).SetInt(val.BigInt()).Float64()
		return value.Number(f), nil

	case starlark.Float:
		return value.Number(float64(val)), nil

	case *starlark.Dict:
		m := value.NewMap()
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return value.Value{}, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := ToValue(item[1])
			if err != nil {
				return value.Value{}, fmt.Errorf("dict key %q: %w", string(key), err)
			}
			m.Set(string(key), gv)
		}
		return value.FromMap(m), nil

	case starlark.Indexable:
		items := make([]value.Value, val.Len())
		for i := range items {
			gv, err := ToValue(val.Index(i))
			if err != nil {
				return value.Value{}, fmt.Errorf("%s index %d: %w", val.Type(), i, err)
			}
			items[i] = gv
		}
		return value.Seq(items...), nil

	case *starlark.Set:
		var items []value.Value
		iter := val.Iterate()
		defer iter.Done()
		var x starlark.Value
		for iter.Next(&x) {
			gv, err := ToValue(x)
			if err != nil {
				return value.Value{}, fmt.Errorf("set element: %w", err)
			}
			items = append(items, gv)
		}
		return value.Seq(items...), nil

	default:
		return value.Value{}, fmt.Errorf("unsupported Starlark type %s", v.Type())
	}
}
