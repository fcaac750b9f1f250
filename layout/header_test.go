package layout

import (
	"reflect"
	"testing"

	"github.com/soderasen-au/go-sheetmerge/table"
)

func TestHeaderRow(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    []string
	}{
		{"Plain", []string{"ID", "Name"}, []string{"ID", "Name"}},
		{"Unnamed", []string{"ID", "Group", "Unnamed: 2", "Unnamed: 3"}, []string{"ID", "Group", "Group", "Group"}},
		{"LeadingUnnamed", []string{"Unnamed: 0", "B"}, []string{"Unnamed: 0", "B"}},
		{"Others", []string{"ID", "Others 2023", "Unnamed: 2"}, []string{"ID", "Others", "Others"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeaderRow(tt.columns); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HeaderRow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildGrid(t *testing.T) {
	tb := table.New("t", []string{"ID", "Unnamed: 1"}, [][]string{{"sub", "sub2"}, {"1", "2"}})
	want := [][]string{{"ID", "ID"}, {"sub", "sub2"}, {"1", "2"}}
	if got := BuildGrid(tb); !reflect.DeepEqual(got, want) {
		t.Errorf("BuildGrid() = %v, want %v", got, want)
	}

	empty := table.New("t", []string{"a", "b"}, nil)
	if got := BuildGrid(empty); len(got) != 2 || len(got[1]) != 2 {
		t.Errorf("BuildGrid() of empty table = %v", got)
	}
}

func TestHeaderGroups(t *testing.T) {
	got := HeaderGroups([]string{"A", "A", "B", "C", "C", "C"})
	want := []HeaderGroup{{Name: "A", Start: 0, Length: 2}, {Name: "C", Start: 3, Length: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HeaderGroups() = %v, want %v", got, want)
	}
}

func TestHeaderSpans(t *testing.T) {
	tests := []struct {
		name string
		row0 []string
		row1 []string
		want []HeaderCell
	}{
		{
			name: "HorizontalRun",
			row0: []string{"A", "A", "B"},
			row1: []string{"a1", "a2", "b"},
			want: []HeaderCell{{Text: "A", Col: 0, Row: 0, Cols: 2, Rows: 1}},
		},
		{
			name: "EmptySecondRow",
			row0: []string{"X", "Y"},
			row1: []string{"", "val"},
			want: []HeaderCell{{Text: "X", Col: 0, Row: 0, Cols: 1, Rows: 2}},
		},
		{
			name: "OthersSpansDark",
			row0: []string{"ID", "Others"},
			row1: []string{"1", "x"},
			want: []HeaderCell{{Text: "Others", Col: 1, Row: 0, Cols: 1, Rows: 2, Dark: true}},
		},
		{
			name: "RunOverEmptySecondRow",
			row0: []string{"G", "G"},
			row1: []string{"", ""},
			want: []HeaderCell{{Text: "G", Col: 0, Row: 0, Cols: 2, Rows: 2}},
		},
		{
			name: "NoSpans",
			row0: []string{"A", "B"},
			row1: []string{"a", "b"},
			want: []HeaderCell{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeaderSpans(tt.row0, tt.row1); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HeaderSpans() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeaderCellsCoverGrid(t *testing.T) {
	row0 := []string{"ID", "G", "G", "Other", "Z"}
	row1 := []string{"", "g1", "g2", "o", "Others"}
	cells := HeaderCells(row0, row1)

	covered := make(map[[2]int]int)
	for _, c := range cells {
		for r := c.Row; r < c.Row+c.Rows; r++ {
			for col := c.Col; col < c.Col+c.Cols; col++ {
				covered[[2]int{r, col}]++
			}
		}
	}
	for r := 0; r < 2; r++ {
		for col := range row0 {
			if covered[[2]int{r, col}] != 1 {
				t.Errorf("cell (%d,%d) covered %d times", r, col, covered[[2]int{r, col}])
			}
		}
	}

	last := cells[len(cells)-1]
	if last.Text != "Others" || !last.Dark || last.Row != 1 {
		t.Errorf("row-1 Others cell = %+v, want dark", last)
	}
}
