package value

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// ConversionError reports a Go value that has no interchange representation.
type ConversionError struct {
	Path   string // location inside the converted value, e.g. "x[2]"
	Type   string // Go type of the offending value
	Reason string
}

func (e *ConversionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot convert %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("cannot convert %s at %s: %s", e.Type, e.Path, e.Reason)
}

// FromGo converts a Go value into a Value.
//
// Supported: nil, bool, integer and float kinds (finite only), string,
// slices and arrays, maps with string keys (encoded with sorted keys), Value,
// *Map, *Array and *Table. Tables flatten to a column mapping and arrays to
// nested sequences. Everything else is rejected with a *ConversionError.
func FromGo(v any) (Value, error) {
	return fromGo(v, "")
}

func fromGo(v any, path string) (Value, error) {
	if v == nil {
		return Null(), nil
	}

	switch val := v.(type) {
	case Value:
		return val, nil
	case *Map:
		return FromMap(val), nil
	case *Array:
		if val == nil {
			return Null(), nil
		}
		return val.Value(), nil
	case *Table:
		if val == nil {
			return Null(), nil
		}
		return val.Value(), nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case float64:
		return fromFloat(val, path, "float64")
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Number(float64(u)), nil
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return fromFloat(rv.Float(), path, rv.Type().String())
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Seq(), nil
		}
		items := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := fromGo(rv.Index(i).Interface(), path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return Seq(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, &ConversionError{Path: path, Type: rv.Type().String(), Reason: "map keys must be strings"}
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			item, err := fromGo(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface(), joinPath(path, k))
			if err != nil {
				return Value{}, err
			}
			m.Set(k, item)
		}
		return FromMap(m), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		elem := rv.Elem()
		if elem.Kind() == reflect.Struct {
			break
		}
		return fromGo(elem.Interface(), path)
	}

	return Value{}, &ConversionError{Path: path, Type: fmt.Sprintf("%T", v), Reason: "type has no interchange representation"}
}

func fromFloat(f float64, path, typ string) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, &ConversionError{Path: path, Type: typ, Reason: "non-finite number"}
	}
	return Number(f), nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
