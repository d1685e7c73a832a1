package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// Result writes a coerced call result in the effective mode. v is one of
// the types value.Coerce returns.
func (r *Renderer) Result(v any) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(asValue(v))
	case ModeYAML:
		return r.YAML(yamlNode(asValue(v)))
	case ModeTable:
		return r.resultTable(v)
	default:
		return r.resultText(v)
	}
}

// asValue converts a coerced result back into a Value so structured output
// keeps mapping order.
func asValue(v any) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null()
	case value.Value:
		return x
	case *value.Map:
		return value.FromMap(x)
	case []value.Value:
		return value.Seq(x...)
	case *value.Array:
		return x.Value()
	case *value.Table:
		return x.Value()
	case int64:
		return value.Int(x)
	case float64:
		return value.Number(x)
	case string:
		return value.String(x)
	case bool:
		return value.Bool(x)
	default:
		if gv, err := value.FromGo(x); err == nil {
			return gv
		}
		return value.String(fmt.Sprint(x))
	}
}

func (r *Renderer) resultText(v any) error {
	switch x := v.(type) {
	case []value.Value:
		for i, item := range x {
			r.Printf("[%d] %s\n", i+1, Cell(item))
		}
	case *value.Map:
		for _, k := range x.Keys() {
			item, _ := x.Get(k)
			r.Printf("%s: %s\n", k, Cell(item))
		}
	case *value.Array:
		r.array(x)
	case *value.Table:
		r.table(x)
	default:
		r.Println(Cell(v))
	}
	return nil
}

func (r *Renderer) resultTable(v any) error {
	switch x := v.(type) {
	case []value.Value:
		t := r.newTable()
		t.AppendHeader(table.Row{"#", "value"})
		for i, item := range x {
			t.AppendRow(table.Row{i + 1, Cell(item)})
		}
		t.Render()
	case *value.Map:
		t := r.newTable()
		t.AppendHeader(table.Row{"key", "value"})
		for _, k := range x.Keys() {
			item, _ := x.Get(k)
			t.AppendRow(table.Row{k, Cell(item)})
		}
		t.Render()
	default:
		return r.resultText(v)
	}
	return nil
}

func (r *Renderer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	return t
}

func (r *Renderer) array(a *value.Array) {
	if a.Dims() < 2 {
		vals := make([]string, a.Len())
		for i, f := range a.Data {
			vals[i] = formatFloat(f)
		}
		r.Printf("[1] %s\n", strings.Join(vals, " "))
		return
	}

	t := r.newTable()
	header := table.Row{""}
	for j := 0; j < a.Shape[1]; j++ {
		header = append(header, fmt.Sprintf("[,%d]", j+1))
	}
	t.AppendHeader(header)
	for i := 0; i < a.Shape[0]; i++ {
		row := table.Row{fmt.Sprintf("[%d,]", i+1)}
		for _, f := range a.Row(i) {
			row = append(row, formatFloat(f))
		}
		t.AppendRow(row)
	}
	t.Render()
}

func (r *Renderer) table(tb *value.Table) {
	t := r.newTable()
	named := len(tb.RowNames) == tb.NumRows() && len(tb.RowNames) > 0

	var header table.Row
	if named {
		header = append(header, "")
	}
	for _, name := range tb.ColumnNames() {
		header = append(header, name)
	}
	t.AppendHeader(header)

	for i := 0; i < tb.NumRows(); i++ {
		var row table.Row
		if named {
			row = append(row, tb.RowNames[i])
		}
		for _, c := range tb.Columns {
			row = append(row, Cell(c.Values[i]))
		}
		t.AppendRow(row)
	}
	t.Render()
}

// Cell formats one result on a single line, using R spellings for logicals
// and missing values. Structured values are written as compact JSON.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		return x
	case value.Value:
		switch x.Kind() {
		case value.KindSeq, value.KindMap:
			return x.String()
		default:
			return Cell(x.Interface())
		}
	default:
		return asValue(v).String()
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NA"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// yamlNode builds a YAML node tree from v, preserving mapping order.
func yamlNode(v value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case value.KindBool:
		b, _ := v.AsBool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
	case value.KindNumber:
		f, _ := v.AsNumber()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		if v.IsIntegral() {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(f), 10)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}
	case value.KindString:
		s, _ := v.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case value.KindSeq:
		items, _ := v.AsSeq()
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	default:
		m, _ := v.AsMap()
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range m.Keys() {
			item, _ := m.Get(k)
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, yamlNode(item))
		}
		return n
	}
}
