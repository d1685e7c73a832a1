package rtext

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// Section is one fragment of a named-list dump: the text between a list
// marker and the next one.
type Section struct {
	Key    string
	Marker string
	Body   string
}

// Skipped records a list entry that could not be recovered.
type Skipped struct {
	Key    string
	Reason string
}

// NamedList is a recovered named list. Map holds the entries that decoded, in
// marker order; Skipped lists the ones that did not.
type NamedList struct {
	Map     *value.Map
	Skipped []Skipped
}

// Value returns the decoded entries as a map value.
func (n *NamedList) Value() value.Value {
	return value.FromMap(n.Map)
}

// Complete reports whether every entry decoded.
func (n *NamedList) Complete() bool {
	return len(n.Skipped) == 0
}

// Sections splits text at list marker lines. Text before the first marker is
// dropped. Sections are returned in the order their markers appear.
func Sections(text string) []Section {
	var out []Section
	var body []string

	flush := func() {
		if len(out) > 0 {
			out[len(out)-1].Body = strings.Join(body, "\n")
		}
		body = body[:0]
	}

	for _, line := range lines(text) {
		trimmed := strings.TrimSpace(line)
		if listMarker.MatchString(trimmed) {
			flush()
			out = append(out, Section{Key: markerKey(trimmed), Marker: trimmed})
			continue
		}
		body = append(body, line)
	}
	flush()
	return out
}

// markerKey recovers the entry key from a list marker. Each segment
// contributes its name, or its position for "[[n]]"; nested segments are
// joined with "$".
func markerKey(marker string) string {
	var parts []string
	for _, m := range listSegment.FindAllStringSubmatch(marker, -1) {
		switch {
		case m[2] != "":
			parts = append(parts, m[2])
		case m[3] != "":
			parts = append(parts, m[3])
		default:
			parts = append(parts, m[1])
		}
	}
	return strings.Join(parts, "$")
}

// ParseNamedList decodes a flattened named-list dump. Each section body is
// classified on its own and decoded as a vector or a matrix; sections that
// are neither, or that fail to decode, are left out of the map and recorded
// in Skipped.
func ParseNamedList(text string) (*NamedList, error) {
	sections := Sections(text)
	if len(sections) == 0 {
		return nil, fmt.Errorf("no list markers found")
	}

	out := &NamedList{Map: value.NewMap()}
	for _, s := range sections {
		v, err := decodeSection(s.Body)
		if err != nil {
			out.Skipped = append(out.Skipped, Skipped{Key: s.Key, Reason: err.Error()})
			continue
		}
		out.Map.Set(s.Key, v)
	}
	return out, nil
}

func decodeSection(body string) (value.Value, error) {
	switch layout := Classify(body); layout {
	case LayoutVector:
		return ParseVector(body)
	case LayoutMatrix:
		m, err := ParseMatrix(body)
		if err != nil {
			return value.Value{}, err
		}
		return m.Value(), nil
	default:
		if strings.TrimSpace(body) == "" {
			return value.Value{}, fmt.Errorf("empty section")
		}
		return value.Value{}, fmt.Errorf("%s layout", layout)
	}
}
