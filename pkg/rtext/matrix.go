package rtext

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// Matrix is a printed R matrix recovered row by row.
type Matrix struct {
	ColNames []string
	RowIDs   []int // row marker numbers, in order of first appearance
	Rows     [][]value.Value
}

// Value returns the rows as a sequence of sequences, or the only row as a
// flat sequence.
func (m *Matrix) Value() value.Value {
	if len(m.Rows) == 1 {
		return value.Seq(m.Rows[0]...)
	}
	rows := make([]value.Value, len(m.Rows))
	for i, r := range m.Rows {
		rows[i] = value.Seq(r...)
	}
	return value.Seq(rows...)
}

type matrixBlock struct {
	header []string
	rows   []matrixRow
}

type matrixRow struct {
	id     int
	tokens []string
}

// ParseMatrix parses a printed matrix. R wraps wide matrices into several
// column blocks, each a header line of column labels followed by marked rows;
// rows with the same marker are joined across blocks.
//
// Within a block every row keeps only its last N elements, where N is the
// smallest element count of any row in the block (and of the header), so
// ragged leading tokens never shift columns and never cause an error.
func ParseMatrix(text string) (*Matrix, error) {
	var blocks []*matrixBlock
	var cur *matrixBlock

	for _, line := range lines(text) {
		toks := fields(line)
		if len(toks) == 0 {
			continue
		}
		if m := rowMarker.FindStringSubmatch(toks[0]); m != nil {
			if cur == nil {
				cur = &matrixBlock{}
				blocks = append(blocks, cur)
			}
			id, _ := strconv.Atoi(m[1])
			cur.rows = append(cur.rows, matrixRow{id: id, tokens: toks[1:]})
			continue
		}
		cur = &matrixBlock{header: toks}
		blocks = append(blocks, cur)
	}

	out := &Matrix{}
	position := make(map[int]int)

	for _, b := range blocks {
		if len(b.rows) == 0 {
			continue
		}

		width := len(b.rows[0].tokens)
		for _, r := range b.rows[1:] {
			width = min(width, len(r.tokens))
		}
		if b.header != nil {
			width = min(width, len(b.header))
		}

		if b.header != nil {
			out.ColNames = append(out.ColNames, b.header[len(b.header)-width:]...)
		} else {
			for j := 0; j < width; j++ {
				out.ColNames = append(out.ColNames, fmt.Sprintf("[,%d]", len(out.ColNames)+1))
			}
		}

		for _, r := range b.rows {
			cells := make([]value.Value, width)
			for j, tok := range r.tokens[len(r.tokens)-width:] {
				v, err := parseElement(tok)
				if err != nil {
					v = value.String(tok)
				}
				cells[j] = v
			}

			pos, ok := position[r.id]
			if !ok {
				pos = len(out.Rows)
				position[r.id] = pos
				out.RowIDs = append(out.RowIDs, r.id)
				out.Rows = append(out.Rows, nil)
			}
			out.Rows[pos] = append(out.Rows[pos], cells...)
		}
	}

	if len(out.Rows) == 0 {
		return nil, fmt.Errorf("no matrix rows found")
	}
	return out, nil
}
