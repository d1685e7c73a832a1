package rtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// ParseVector parses a printed vector. The index marker is stripped from
// every line that carries one and the remaining elements are flattened in
// line order; lines without a marker, such as the name header of a named
// vector, are ignored. A single element is returned as a bare scalar.
func ParseVector(text string) (value.Value, error) {
	var items []value.Value
	for n, line := range lines(text) {
		toks := fields(line)
		if len(toks) == 0 || !indexMarker.MatchString(toks[0]) {
			continue
		}
		for _, tok := range toks[1:] {
			v, err := parseElement(tok)
			if err != nil {
				return value.Value{}, fmt.Errorf("line %d: %w", n+1, err)
			}
			items = append(items, v)
		}
	}

	switch len(items) {
	case 0:
		return value.Value{}, fmt.Errorf("no vector elements found")
	case 1:
		return items[0], nil
	default:
		return value.Seq(items...), nil
	}
}

// parseElement converts one printed element: a number (including Inf, NaN
// and exponent forms), NA, a logical, or a double-quoted string.
func parseElement(tok string) (value.Value, error) {
	switch tok {
	case "NA", "<NA>", "NULL":
		return value.Null(), nil
	case "TRUE":
		return value.Bool(true), nil
	case "FALSE":
		return value.Bool(false), nil
	}

	if strings.HasPrefix(tok, `"`) {
		s, err := strconv.Unquote(tok)
		if err != nil {
			// R escapes are close to but not identical with Go's.
			return value.String(strings.Trim(tok, `"`)), nil
		}
		return value.String(s), nil
	}

	return parseNumber(tok)
}

func parseNumber(tok string) (value.Value, error) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("invalid element %q", tok)
	}
	if strings.ContainsAny(tok, ".eEIN") {
		return value.Number(f), nil
	}
	i, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return value.Number(f), nil
	}
	return value.Int(i), nil
}
