package layout

import (
	"strings"

	"github.com/soderasen-au/go-sheetmerge/table"
)

const OthersLabel = "Others"

// HeaderGroup is a run of adjacent columns sharing the same top header text.
type HeaderGroup struct {
	Name   string `json:"name" yaml:"name"`
	Start  int    `json:"start" yaml:"start"`
	Length int    `json:"length" yaml:"length"`
}

// HeaderCell is one drawn cell of the two header rows. A cell covers
// Cols x Rows grid cells starting at (Col, Row).
type HeaderCell struct {
	Text string `json:"text" yaml:"text"`
	Col  int    `json:"col" yaml:"col"`
	Row  int    `json:"row" yaml:"row"`
	Cols int    `json:"cols" yaml:"cols"`
	Rows int    `json:"rows" yaml:"rows"`
	Dark bool   `json:"dark,omitempty" yaml:"dark,omitempty"`
}

func (c HeaderCell) IsSpan() bool {
	return c.Cols > 1 || c.Rows > 1
}

// HeaderRow computes the printed header text of each column: an "Unnamed"
// column repeats the previous header, any name containing "Others" is
// printed as "Others".
func HeaderRow(columns []string) []string {
	ret := make([]string, len(columns))
	for i, c := range columns {
		switch {
		case i > 0 && table.IsUnnamed(c):
			ret[i] = ret[i-1]
		case strings.Contains(c, OthersLabel):
			ret[i] = OthersLabel
		default:
			ret[i] = c
		}
	}
	return ret
}

// BuildGrid lays out a table as the printed grid: row 0 holds the header
// text, row 1 the first data row (second header row), the rest is body.
func BuildGrid(t *table.Table) [][]string {
	grid := make([][]string, 0, t.NumRows()+2)
	grid = append(grid, HeaderRow(t.Columns))
	for _, row := range t.Rows {
		grid = append(grid, append([]string(nil), row...))
	}
	if len(grid) < 2 {
		grid = append(grid, make([]string, t.NumCols()))
	}
	return grid
}

func isOthers(s string) bool {
	return s == "Other" || s == OthersLabel
}

// HeaderGroups returns the runs of at least two adjacent equal texts in row0.
func HeaderGroups(row0 []string) []HeaderGroup {
	ret := make([]HeaderGroup, 0)
	for i := 0; i < len(row0); {
		j := i + 1
		for j < len(row0) && row0[j] == row0[i] {
			j++
		}
		if j-i > 1 {
			ret = append(ret, HeaderGroup{Name: row0[i], Start: i, Length: j - i})
		}
		i = j
	}
	return ret
}

// HeaderCells merges the two header rows:
//   - a group of equal row-0 texts becomes one cell, spanning both rows when
//     the row-1 cells below it are all empty or the text is Other/Others;
//   - a single column spans both rows when its row-1 text is empty or its
//     row-0 text is Other/Others;
//   - Other/Others cells are dark.
func HeaderCells(row0, row1 []string) []HeaderCell {
	groups := make(map[int]HeaderGroup)
	for _, g := range HeaderGroups(row0) {
		groups[g.Start] = g
	}

	ret := make([]HeaderCell, 0, 2*len(row0))
	for c := 0; c < len(row0); {
		width := 1
		if g, ok := groups[c]; ok {
			width = g.Length
		}

		dark := isOthers(row0[c])
		blank := true
		for i := c; i < c+width; i++ {
			if i < len(row1) && row1[i] != "" {
				blank = false
			}
		}

		if dark || blank {
			ret = append(ret, HeaderCell{Text: row0[c], Col: c, Row: 0, Cols: width, Rows: 2, Dark: dark})
		} else {
			ret = append(ret, HeaderCell{Text: row0[c], Col: c, Row: 0, Cols: width, Rows: 1})
			for i := c; i < c+width; i++ {
				v := ""
				if i < len(row1) {
					v = row1[i]
				}
				ret = append(ret, HeaderCell{Text: v, Col: i, Row: 1, Cols: 1, Rows: 1, Dark: isOthers(v)})
			}
		}
		c += width
	}
	return ret
}

// HeaderSpans returns only the merged header cells.
func HeaderSpans(row0, row1 []string) []HeaderCell {
	ret := make([]HeaderCell, 0)
	for _, c := range HeaderCells(row0, row1) {
		if c.IsSpan() {
			ret = append(ret, c)
		}
	}
	return ret
}
