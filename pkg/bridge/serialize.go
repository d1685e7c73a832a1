package bridge

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// Args are the named arguments of an R call.
type Args map[string]any

// rName matches syntactic R names that need no backtick quoting.
var rName = regexp.MustCompile(`^(?:[A-Za-z]|\.[A-Za-z._]|\.$)[A-Za-z0-9._]*$`)

// normalize converts every argument into a Value, in sorted key order.
func normalize(args Args) ([]string, map[string]value.Value, error) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vals := make(map[string]value.Value, len(args))
	for _, k := range keys {
		if k == "" {
			return nil, nil, &SerializationError{Arg: k, Reason: "argument name is empty"}
		}
		v, err := value.FromGo(args[k])
		if err != nil {
			var ce *value.ConversionError
			if errors.As(err, &ce) {
				return nil, nil, &SerializationError{Arg: argPath(k, ce.Path), Reason: fmt.Sprintf("%s: %s", ce.Type, ce.Reason)}
			}
			return nil, nil, &SerializationError{Arg: k, Reason: err.Error()}
		}
		vals[k] = v
	}
	return keys, vals, nil
}

func argPath(name, path string) string {
	switch {
	case path == "":
		return name
	case strings.HasPrefix(path, "["):
		return name + path
	default:
		return name + "." + path
	}
}

// SerializeJSON encodes args as one JSON object, escaped for embedding in a
// single-quoted R string literal.
func SerializeJSON(args Args) (string, error) {
	keys, vals, err := normalize(args)
	if err != nil {
		return "", err
	}

	m := value.NewMap()
	for _, k := range keys {
		m.Set(k, vals[k])
	}
	data, err := value.FromMap(m).MarshalJSON()
	if err != nil {
		return "", &SerializationError{Arg: "*", Reason: err.Error()}
	}
	return escapeSingleQuoted(string(data)), nil
}

func escapeSingleQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// SerializeLiteral renders args as the argument list of an R call,
// "x=5, y=c(1, 2)", in sorted key order.
func SerializeLiteral(args Args) (string, error) {
	keys, vals, err := normalize(args)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		lit, err := literal(vals[k])
		if err != nil {
			return "", &SerializationError{Arg: k, Reason: err.Error()}
		}
		parts = append(parts, rArgName(k)+"="+lit)
	}
	return strings.Join(parts, ", "), nil
}

func rArgName(k string) string {
	if rName.MatchString(k) {
		return k
	}
	return "`" + strings.ReplaceAll(k, "`", "\\`") + "`"
}

func literal(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindNull:
		return "NULL", nil
	case value.KindBool:
		if b, _ := v.AsBool(); b {
			return "TRUE", nil
		}
		return "FALSE", nil
	case value.KindNumber:
		f, _ := v.AsNumber()
		if v.IsIntegral() {
			return strconv.FormatInt(int64(f), 10), nil
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case value.KindString:
		s, _ := v.AsString()
		return QuoteR(s), nil
	case value.KindSeq:
		items, _ := v.AsSeq()
		ctor := "c"
		parts := make([]string, len(items))
		for i, item := range items {
			if k := item.Kind(); k == value.KindSeq || k == value.KindMap {
				ctor = "list"
			}
			lit, err := literal(item)
			if err != nil {
				return "", err
			}
			parts[i] = lit
		}
		return ctor + "(" + strings.Join(parts, ", ") + ")", nil
	default:
		return "", fmt.Errorf("%s values have no R literal form; use JSON mode", v.Kind())
	}
}

// QuoteR quotes s as a single-quoted R string literal.
func QuoteR(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
