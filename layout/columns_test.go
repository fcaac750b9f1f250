package layout

import (
	"reflect"
	"strings"
	"testing"
)

func TestPlanColumns(t *testing.T) {
	tests := []struct {
		name       string
		widths     []float64
		usable     float64
		pages      []ColumnPage
		boundaries []int
	}{
		{
			name:       "Overflow",
			widths:     []float64{70, 70, 70, 120, 300, 300},
			usable:     500,
			pages:      []ColumnPage{{0, 4}, {4, 8}, {8, 12}},
			boundaries: []int{4, 8},
		},
		{
			name:   "FitsOnePage",
			widths: []float64{70, 70, 70, 120, 80},
			usable: 1000,
			pages:  []ColumnPage{{0, 5}},
		},
		{
			name:       "SecondPageKeepsGrowing",
			widths:     []float64{70, 70, 70, 120, 80, 80, 80},
			usable:     420,
			pages:      []ColumnPage{{0, 5}, {5, 10}},
			boundaries: []int{5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanColumns(tt.widths, tt.usable, 3)
			if !reflect.DeepEqual(got.Pages, tt.pages) {
				t.Errorf("pages = %v, want %v", got.Pages, tt.pages)
			}
			if !reflect.DeepEqual(got.Boundaries, tt.boundaries) {
				t.Errorf("boundaries = %v, want %v", got.Boundaries, tt.boundaries)
			}
		})
	}
}

func TestPlanColumnsFewColumns(t *testing.T) {
	got := PlanColumns([]float64{70, 70}, 100, 3)
	if got.Frames != 2 {
		t.Errorf("frames = %d, want 2", got.Frames)
	}
	want := []ColumnPage{{0, 1}, {1, 4}}
	if !reflect.DeepEqual(got.Pages, want) {
		t.Errorf("pages = %v, want %v", got.Pages, want)
	}
}

func TestColumnWidths(t *testing.T) {
	long := strings.Repeat("x", 46)
	grid := [][]string{
		{"a", "b", "c", "d", "e", "f"},
		{"1", "2", "3", "4", "5", "6"},
		{"", "", "", "", long, ""},
		{"", "", "", "", "", ""},
		{"", "", "", "", "", ""},
		{"", "", "", "", "", long},
	}
	got := ColumnWidths(grid, DefaultOptions())
	want := []float64{70, 70, 70, 120, 300, 80}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ColumnWidths() = %v, want %v", got, want)
	}
}

func TestFrameColumnName(t *testing.T) {
	tests := []struct {
		page, j int
		want    string
	}{
		{0, 0, "id1_0"},
		{0, 1, "column_1_1"},
		{0, 2, "column_1_2"},
		{2, 2, "column_3_2"},
	}
	for _, tt := range tests {
		if got := FrameColumnName(tt.page, tt.j); got != tt.want {
			t.Errorf("FrameColumnName(%d, %d) = %s, want %s", tt.page, tt.j, got, tt.want)
		}
	}
}

func TestExpand(t *testing.T) {
	grid := [][]string{
		{"c0", "c1", "c2", "c3", "c4", "c5"},
		{"v0", "v1", "v2", "v3", "v4", "v5"},
	}
	names := []string{"c0", "c1", "c2", "c3", "c4", "c5"}
	widths := []float64{70, 70, 70, 120, 300, 300}
	opts := DefaultOptions()
	plan := PlanColumns(widths, 500, 3)

	eg, en, ew := Expand(grid, names, widths, plan, opts)

	wantRow0 := []string{"c0", "c1", "c2", "c3", "c0", "c1", "c2", "c4", "c0", "c1", "c2", "c5"}
	if !reflect.DeepEqual(eg[0], wantRow0) {
		t.Errorf("row 0 = %v, want %v", eg[0], wantRow0)
	}
	wantNames := []string{"c0", "c1", "c2", "c3", "id1_0", "column_1_1", "column_1_2", "c4", "id2_0", "column_2_1", "column_2_2", "c5"}
	if !reflect.DeepEqual(en, wantNames) {
		t.Errorf("names = %v, want %v", en, wantNames)
	}
	wantWidths := []float64{70, 70, 70, 120, 70, 70, 70, 300, 70, 70, 70, 80}
	if !reflect.DeepEqual(ew, wantWidths) {
		t.Errorf("widths = %v, want %v", ew, wantWidths)
	}
	if grid[0][4] != "c4" {
		t.Error("Expand() modified its input")
	}
}

func TestExpandWithoutBoundaries(t *testing.T) {
	grid := [][]string{{"a", "b", "c", "d", "e"}, {"1", "2", "3", "4", "5"}}
	opts := DefaultOptions()
	opts.LastWidth = 90
	widths := ColumnWidths(grid, opts)
	plan := PlanColumns(widths, 1000, 3)

	_, _, ew := Expand(grid, grid[0], widths, plan, opts)
	want := []float64{70, 70, 70, 90, 90}
	if !reflect.DeepEqual(ew, want) {
		t.Errorf("widths = %v, want %v", ew, want)
	}
}
