package session

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/soderasen-au/go-common/loggers"

	"github.com/soderasen-au/go-sheetmerge/merge"
	"github.com/soderasen-au/go-sheetmerge/table"
)

func loaded(t *testing.T) *Session {
	t.Helper()
	tb := table.New("merged", []string{"ID", "filter", "Amount"}, [][]string{
		{"", "kind", "sub"},
		{"1", "a", "10"},
		{"2", "b", "20"},
		{"3", "a", "30"},
	})
	s := New("s1", "", loggers.CoreDebugLogger)
	if res := s.Load(&merge.Result{Table: tb, Notices: []merge.Notice{{Level: merge.NOTICE_WARNING, Message: "The file x.csv is empty."}}}); res != nil {
		t.Fatal(res)
	}
	return s
}

func column(tb *table.Table, name string) []string {
	return tb.Column(tb.ColumnIndex(name))
}

func TestLoad(t *testing.T) {
	s := loaded(t)
	if !reflect.DeepEqual(s.ColumnOrder, []string{"ID", "filter", "Amount"}) {
		t.Errorf("column order = %v", s.ColumnOrder)
	}
	if s.Filtered.NumRows() != 4 || len(s.Notices) != 1 {
		t.Errorf("filtered = %d rows, notices = %v", s.Filtered.NumRows(), s.Notices)
	}
	if res := New("x", "", nil).Load(nil); res == nil {
		t.Error("Load(nil) should fail")
	}
}

func TestApplyFilter(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name   string
		filter FilterSpec
		want   []string
	}{
		{"All", FilterSpec{Value: FILTER_ALL}, []string{"", "1", "2", "3"}},
		{"Empty", FilterSpec{}, []string{"", "1", "2", "3"}},
		{"Value", FilterSpec{Value: "a"}, []string{"", "1", "3"}},
		{"FirstRowOnce", FilterSpec{Value: "kind"}, []string{""}},
		{"Range", FilterSpec{Column: "Amount", Min: f(15), Max: f(30)}, []string{"", "2", "3"}},
		{"OpenRange", FilterSpec{Column: "Amount", Max: f(10)}, []string{"", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loaded(t)
			if res := s.ApplyFilter(tt.filter); res != nil {
				t.Fatal(res)
			}
			if got := column(s.Filtered, "ID"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyFilterMissingColumn(t *testing.T) {
	s := loaded(t)
	if res := s.ApplyFilter(FilterSpec{Column: "nope", Value: "a"}); res != nil {
		t.Fatal(res)
	}
	if s.Filtered.NumRows() != 4 {
		t.Errorf("rows = %d", s.Filtered.NumRows())
	}
	last := s.Notices[len(s.Notices)-1]
	if last.Level != merge.NOTICE_INFO || !strings.Contains(last.Message, "'nope' not found") {
		t.Errorf("notice = %+v", last)
	}

	lo, hi := 5.0, 1.0
	if res := s.ApplyFilter(FilterSpec{Column: "Amount", Min: &lo, Max: &hi}); res == nil {
		t.Error("inverted range accepted")
	}
}

func TestFilterResetsEdits(t *testing.T) {
	s := loaded(t)
	if res := s.EditCell(1, "Amount", "99"); res != nil {
		t.Fatal(res)
	}
	if s.Filtered.Cell(1, 2) != "99" || s.Merged.Cell(1, 2) != "10" {
		t.Fatal("edit should change only the view")
	}
	s.ApplyFilter(FilterSpec{Value: FILTER_ALL})
	if s.Filtered.Cell(1, 2) != "10" {
		t.Error("filter should re-seed from the merged table")
	}
	if res := s.EditCell(10, "Amount", "x"); res == nil {
		t.Error("out of range edit accepted")
	}
}

func TestFilterOptions(t *testing.T) {
	s := loaded(t)
	opts := s.FilterOptions()
	if !opts.Found || opts.Numeric || !reflect.DeepEqual(opts.Values, []string{"All", "kind", "a", "b"}) {
		t.Errorf("options = %+v", opts)
	}

	num := New("n", "Amount", nil)
	num.Load(&merge.Result{Table: table.New("t", []string{"Amount"}, [][]string{{""}, {"3"}, {"1.5"}})})
	opts = num.FilterOptions()
	if !opts.Numeric || *opts.Min != 1.5 || *opts.Max != 3 {
		t.Errorf("numeric options = %+v", opts)
	}
}

func TestColumns(t *testing.T) {
	s := loaded(t)
	if res := s.SelectColumns([]string{"Amount", "ID"}); res != nil {
		t.Fatal(res)
	}
	view, res := s.View()
	if res != nil {
		t.Fatal(res)
	}
	if !reflect.DeepEqual(view.Columns, []string{"Amount", "ID"}) || view.Rows[1][0] != "10" {
		t.Errorf("view = %v %v", view.Columns, view.Rows)
	}

	if res = s.ReorderColumns([]string{"ID", "Amount"}); res != nil {
		t.Error(res)
	}
	if res = s.ReorderColumns([]string{"ID", "filter"}); res == nil {
		t.Error("reorder with an unselected column accepted")
	}
	if res = s.SelectColumns([]string{"ID", "nope"}); res == nil {
		t.Error("unknown column accepted")
	}

	s.SelectColumns(nil)
	if _, res = s.View(); res == nil || !strings.Contains(res.Error(), NoColumnsMessage) {
		t.Errorf("View() = %v", res)
	}
	if st := s.State(); st.Message != NoColumnsMessage || len(st.Rows) != 0 {
		t.Errorf("state = %+v", st)
	}

	s.ResetColumns()
	if !reflect.DeepEqual(s.ColumnOrder, []string{"ID", "filter", "Amount"}) {
		t.Errorf("reset order = %v", s.ColumnOrder)
	}
}

func TestStaleOrderResets(t *testing.T) {
	s := loaded(t)
	s.ColumnOrder = []string{"ID", "gone"}
	view, res := s.View()
	if res != nil {
		t.Fatal(res)
	}
	if len(view.Columns) != 3 {
		t.Errorf("columns = %v", view.Columns)
	}
}

func TestStore(t *testing.T) {
	st := NewStore(time.Minute, "", loggers.CoreDebugLogger)
	a := st.Create()
	b := st.Create()
	if a.ID == b.ID || st.Len() != 2 {
		t.Fatalf("ids %s %s, len %d", a.ID, b.ID, st.Len())
	}
	if got, ok := st.Get(a.ID); !ok || got != a {
		t.Error("Get() missed a session")
	}

	b.UpdatedAt = time.Now().Add(-2 * time.Minute)
	if n := st.Sweep(time.Now()); n != 1 {
		t.Errorf("Sweep() = %d", n)
	}
	if _, ok := st.Get(b.ID); ok {
		t.Error("expired session still present")
	}
	if !st.Delete(a.ID) || st.Delete(a.ID) {
		t.Error("Delete() results wrong")
	}
}
