package table

import (
	"fmt"
	"strings"

	"github.com/soderasen-au/go-common/util"
)

const (
	UnnamedPrefix = "Unnamed"
)

// Table is an uploaded or merged spreadsheet held as strings.
// Every row has exactly len(Columns) cells.
type Table struct {
	Name    string     `json:"name,omitempty" yaml:"name,omitempty"`
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

func New(name string, columns []string, rows [][]string) *Table {
	t := &Table{Name: name, Columns: append([]string(nil), columns...)}
	t.Rows = make([][]string, 0, len(rows))
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t
}

// AppendRow pads or truncates row to the column count before appending.
func (t *Table) AppendRow(row []string) {
	r := make([]string, len(t.Columns))
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Empty mirrors an empty data frame: no columns or no data rows.
func (t *Table) Empty() bool {
	return t.NumCols() == 0 || t.NumRows() == 0
}

func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

func (t *Table) Column(i int) []string {
	ret := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		ret[r] = row[i]
	}
	return ret
}

func (t *Table) Cell(row, col int) string {
	return t.Rows[row][col]
}

func (t *Table) SetCell(row int, column string, value string) *util.Result {
	if row < 0 || row >= len(t.Rows) {
		return util.MsgError("SetCell", fmt.Sprintf("row %d out of range [0,%d)", row, len(t.Rows)))
	}
	ci := t.ColumnIndex(column)
	if ci < 0 {
		return util.MsgError("SetCell", fmt.Sprintf("unknown column '%s'", column))
	}
	t.Rows[row][ci] = value
	return nil
}

func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	c.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	return c
}

// Select projects the table on columns, in that order.
func (t *Table) Select(columns []string) (*Table, *util.Result) {
	idx := make([]int, len(columns))
	for i, name := range columns {
		ci := t.ColumnIndex(name)
		if ci < 0 {
			return nil, util.MsgError("Select", fmt.Sprintf("unknown column '%s'", name))
		}
		idx[i] = ci
	}

	ret := &Table{Name: t.Name, Columns: append([]string(nil), columns...)}
	ret.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]string, len(idx))
		for i, ci := range idx {
			nr[i] = row[ci]
		}
		ret.Rows[r] = nr
	}
	return ret, nil
}

// Normalize blanks the literal "nan"/"NaN" cells produced by string-casting missing values.
func (t *Table) Normalize() {
	for _, row := range t.Rows {
		for i, v := range row {
			if IsNaN(v) {
				row[i] = ""
			}
		}
	}
}

// NormalizeKey strips a trailing ".0" left over from float-typed keys.
func (t *Table) NormalizeKey(col int) {
	if col < 0 || col >= len(t.Columns) {
		return
	}
	for _, row := range t.Rows {
		row[col] = strings.TrimSuffix(row[col], ".0")
	}
}

// Grid returns the header followed by all rows.
func (t *Table) Grid() [][]string {
	grid := make([][]string, 0, len(t.Rows)+1)
	grid = append(grid, append([]string(nil), t.Columns...))
	for _, row := range t.Rows {
		grid = append(grid, append([]string(nil), row...))
	}
	return grid
}

func IsNaN(v string) bool {
	return v == "nan" || v == "NaN"
}

func IsUnnamed(column string) bool {
	return strings.Contains(column, UnnamedPrefix)
}

// Headers turns a raw header record into unique column names.
// Blank cells become "Unnamed: <i>", repeated names get ".1", ".2"... suffixes.
func Headers(record []string) []string {
	ret := make([]string, len(record))
	used := make(map[string]bool)
	for i, h := range record {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("%s: %d", UnnamedPrefix, i)
		}
		name := h
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		used[name] = true
		ret[i] = name
	}
	return ret
}
