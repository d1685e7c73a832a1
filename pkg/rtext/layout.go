// Package rtext recovers values from R's auto-printed console output.
//
// R prints a result differently depending on its structure. The printed
// forms handled here are:
//
//	vector       [1]  1.5  2.0  3.0
//	             [4]  4.0
//
//	matrix             [,1] [,2]
//	             [1,]    6  160
//	             [2,]    4  108
//
//	named list   $x
//	             [1] 21.0 22.8
//
//	             [[2]]
//	             [1] 5
//
// Classify inspects the text once and returns a Layout; the parsers then
// handle exactly one layout each.
package rtext

import (
	"regexp"
	"strings"
)

// Layout is the printed layout of an R result.
type Layout int

// Recognized layouts.
const (
	LayoutUnrecognized Layout = iota
	LayoutVector
	LayoutMatrix
	LayoutNamedList
)

func (l Layout) String() string {
	switch l {
	case LayoutVector:
		return "vector"
	case LayoutMatrix:
		return "matrix"
	case LayoutNamedList:
		return "named-list"
	default:
		return "unrecognized"
	}
}

var (
	// indexMarker is the position prefix of a printed vector line, "[12]".
	indexMarker = regexp.MustCompile(`^\[\d+\]$`)

	// rowMarker is the row prefix of a printed matrix line, "[3,]".
	rowMarker = regexp.MustCompile(`^\[(\d+),\]$`)

	// listMarker is a whole line naming a list entry: "$name", "$`odd name`",
	// "[[2]]", or a nested path such as "$a$b" or "[[1]]$x".
	listMarker = regexp.MustCompile("^(?:\\$(?:`[^`]*`|[^\\s$\\[`]+)|\\[\\[\\d+\\]\\])+$")

	// listSegment splits a list marker into its path segments.
	listSegment = regexp.MustCompile("\\$`([^`]*)`|\\$([^\\s$\\[`]+)|\\[\\[(\\d+)\\]\\]")
)

// Classify determines the layout of text in a single pass over its lines. A
// list marker anywhere wins over row markers, which win over index markers.
func Classify(text string) Layout {
	layout := LayoutUnrecognized
	for _, line := range lines(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if listMarker.MatchString(trimmed) {
			return LayoutNamedList
		}
		first := firstField(trimmed)
		switch {
		case rowMarker.MatchString(first):
			layout = LayoutMatrix
		case indexMarker.MatchString(first) && layout == LayoutUnrecognized:
			layout = LayoutVector
		}
	}
	return layout
}

func lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func firstField(line string) string {
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i]
	}
	return line
}

// fields splits a printed line on whitespace, keeping double-quoted strings
// (with backslash escapes) together as one field.
func fields(line string) []string {
	var out []string
	var cur strings.Builder
	inQuote, escaped, started := false, false, false

	flush := func() {
		if started {
			out = append(out, cur.String())
			cur.Reset()
			started = false
		}
	}

	for _, r := range line {
		switch {
		case inQuote:
			cur.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inQuote = false
			}
		case r == '"':
			inQuote, started = true, true
			cur.WriteRune(r)
		case r == ' ' || r == '\t':
			flush()
		default:
			started = true
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
