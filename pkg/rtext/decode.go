package rtext

import (
	"errors"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// ErrUnrecognized is returned when printed output matches no known layout.
var ErrUnrecognized = errors.New("unrecognized R output layout")

// Report describes how a text decode went.
type Report struct {
	Layout  Layout
	Skipped []Skipped
}

// Decode classifies text and runs the matching parser.
func Decode(text string) (value.Value, *Report, error) {
	report := &Report{Layout: Classify(text)}

	switch report.Layout {
	case LayoutVector:
		v, err := ParseVector(text)
		return v, report, err
	case LayoutMatrix:
		m, err := ParseMatrix(text)
		if err != nil {
			return value.Value{}, report, err
		}
		return m.Value(), report, nil
	case LayoutNamedList:
		nl, err := ParseNamedList(text)
		if err != nil {
			return value.Value{}, report, err
		}
		report.Skipped = nl.Skipped
		return nl.Value(), report, nil
	default:
		return value.Value{}, report, ErrUnrecognized
	}
}
