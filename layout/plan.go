package layout

import (
	"fmt"

	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-sheetmerge/table"
)

// HeaderRows is the number of grid rows repeated on top of every page.
const HeaderRows = 2

// RowPage is a slice [Start, End) of body rows.
type RowPage struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// RowPages splits body rows into pages of rowsPerPage rows. There is always
// at least one page, so a table with no body still prints its header.
func RowPages(bodyRows, rowsPerPage int) []RowPage {
	if rowsPerPage < 1 {
		rowsPerPage = 1
	}
	n := (bodyRows + rowsPerPage - 1) / rowsPerPage
	if n < 1 {
		n = 1
	}
	ret := make([]RowPage, n)
	for i := range ret {
		ret[i] = RowPage{Start: i * rowsPerPage, End: min((i+1)*rowsPerPage, bodyRows)}
	}
	return ret
}

// Plan is the full pagination of one table.
type Plan struct {
	Grid     [][]string `json:"grid" yaml:"grid"`
	Names    []string   `json:"names" yaml:"names"`
	Widths   []float64  `json:"widths" yaml:"widths"`
	Columns  ColumnPlan `json:"columns" yaml:"columns"`
	RowPages []RowPage  `json:"row_pages" yaml:"row_pages"`
}

// Page is one printed table page: the two header rows and a body slice.
type Page struct {
	Index  int        `json:"index" yaml:"index"`
	Row    int        `json:"row" yaml:"row"`
	Col    int        `json:"col" yaml:"col"`
	Header [][]string `json:"header" yaml:"header"`
	Body   [][]string `json:"body" yaml:"body"`
	Widths []float64  `json:"widths" yaml:"widths"`
}

func NewPlan(t *table.Table, usable float64, rowsPerPage int, opts Options) (*Plan, *util.Result) {
	if t.NumCols() == 0 {
		return nil, util.MsgError("NewPlan", "table has no columns")
	}
	if usable <= 0 {
		return nil, util.MsgError("NewPlan", fmt.Sprintf("invalid usable width %.2f", usable))
	}
	opts.MaybeDefault()

	grid := BuildGrid(t)
	widths := ColumnWidths(grid, opts)
	columns := PlanColumns(widths, usable, opts.frames(len(widths)))
	eg, names, ew := Expand(grid, t.Columns, widths, columns, opts)

	return &Plan{
		Grid:     eg,
		Names:    names,
		Widths:   ew,
		Columns:  columns,
		RowPages: RowPages(len(eg)-HeaderRows, rowsPerPage),
	}, nil
}

func (p *Plan) NumPages() int {
	return len(p.RowPages) * len(p.Columns.Pages)
}

// Pages lists every (row page, column page) pair, column pages varying fastest.
func (p *Plan) Pages() []Page {
	ret := make([]Page, 0, p.NumPages())
	for ri, rp := range p.RowPages {
		for ci, cp := range p.Columns.Pages {
			page := Page{
				Index:  len(ret),
				Row:    ri,
				Col:    ci,
				Widths: p.Widths[cp.Start:cp.End],
			}
			for r := 0; r < HeaderRows; r++ {
				page.Header = append(page.Header, p.Grid[r][cp.Start:cp.End])
			}
			for r := rp.Start; r < rp.End; r++ {
				page.Body = append(page.Body, p.Grid[r+HeaderRows][cp.Start:cp.End])
			}
			ret = append(ret, page)
		}
	}
	return ret
}

func (p Page) IsLast(total int) bool {
	return p.Index == total-1
}
