// Package value defines the interchange value model shared by the structured
// and text decoders, and the coercions from it into typed Go results.
//
// A Value is a small recursive sum type: null, bool, number, string, ordered
// sequence, or key-ordered mapping. Sequence and mapping order is the order
// in which the R interpreter emitted the elements and is always preserved.
package value

import (
	"fmt"
	"math"
)

// Kind identifies the variant held by a Value.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSeq
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an immutable interchange value. The zero Value is null.
type Value struct {
	kind     Kind
	b        bool
	num      float64
	integral bool
	str      string
	seq      []Value
	m        *Map
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a non-integral number value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int returns an integral number value.
func Int(i int64) Value { return Value{kind: KindNumber, num: float64(i), integral: true} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Seq returns an ordered sequence of values.
func Seq(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSeq, seq: items}
}

// FromMap wraps m as a mapping value. A nil map yields an empty mapping.
func FromMap(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

// numberFromLiteral builds a number whose integral flag comes from the source
// text rather than from the parsed float.
func numberFromLiteral(f float64, integral bool) Value {
	return Value{kind: KindNumber, num: f, integral: integral}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// IsIntegral reports whether v is a number that was written without a
// fractional part or exponent and fits in an int64.
func (v Value) IsIntegral() bool {
	return v.kind == KindNumber && v.integral && v.num >= -(1<<63) && v.num < 1<<63
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsSeq returns the elements of a sequence. The slice must not be modified.
func (v Value) AsSeq() ([]Value, bool) { return v.seq, v.kind == KindSeq }

// AsMap returns the mapping held by v.
func (v Value) AsMap() (*Map, bool) { return v.m, v.kind == KindMap }

// Len returns the number of elements of a sequence or mapping, and 0 for
// scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindSeq:
		return len(v.seq)
	case KindMap:
		return v.m.Len()
	default:
		return 0
	}
}

// Describe returns a short description of the runtime shape of v, used in
// shape mismatch errors.
func (v Value) Describe() string {
	switch v.kind {
	case KindSeq:
		return fmt.Sprintf("seq of %d", len(v.seq))
	case KindMap:
		return fmt.Sprintf("map of %d", v.m.Len())
	default:
		return v.kind.String()
	}
}

// String returns the JSON text of v.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}
	return string(data)
}

// Equal reports whether v and o hold the same data. Number integrality is
// ignored and mapping key order is significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		if math.IsNaN(v.num) && math.IsNaN(o.num) {
			return true
		}
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindSeq:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.equal(o.m)
	}
	return false
}

// Clone returns a deep copy of v. Sequences and mappings in the copy share
// no storage with v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSeq:
		items := make([]Value, len(v.seq))
		for i, item := range v.seq {
			items[i] = item.Clone()
		}
		v.seq = items
	case KindMap:
		v.m = v.m.Clone()
	}
	return v
}

// Interface converts v into plain Go values: nil, bool, int64 (integral
// numbers), float64, string, []any, or map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.IsIntegral() && math.Abs(v.num) <= maxExactInt {
			return int64(v.num)
		}
		return v.num
	case KindString:
		return v.str
	case KindSeq:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		for _, k := range v.m.keys {
			out[k] = v.m.vals[k].Interface()
		}
		return out
	default:
		return nil
	}
}

// maxExactInt is the largest magnitude at which every integer is exactly
// representable as a float64.
const maxExactInt = 1 << 53

// Map is an insertion-ordered mapping from string keys to values. Keys are
// unique; setting an existing key replaces its value in place.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap creates an empty mapping.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Set stores val under key, keeping the key's original position if present.
func (m *Map) Set(key string, val Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = val
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in key order.
func (m *Map) Values() []Value {
	if m == nil {
		return nil
	}
	out := make([]Value, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.vals[k]
	}
	return out
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	out := NewMap()
	if m == nil {
		return out
	}
	out.keys = make([]string, len(m.keys))
	copy(out.keys, m.keys)
	for k, v := range m.vals {
		out.vals[k] = v.Clone()
	}
	return out
}

func (m *Map) equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i, k := range m.keys {
		if o.keys[i] != k {
			return false
		}
		if !m.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}
