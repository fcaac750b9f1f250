package session

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-sheetmerge/merge"
	"github.com/soderasen-au/go-sheetmerge/table"
)

const (
	DEFAULT_FILTER_COLUMN = "filter"
	FILTER_ALL            = "All"

	NoColumnsMessage = "Please select at least one column to display."
)

// FilterSpec selects rows of the merged table. Value filters text columns by
// exact match; Min and Max bound numeric columns.
type FilterSpec struct {
	Column string   `json:"column,omitempty" yaml:"column,omitempty"`
	Value  string   `json:"value,omitempty" yaml:"value,omitempty"`
	Min    *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

func (f FilterSpec) IsAll() bool {
	return (f.Value == "" || f.Value == FILTER_ALL) && f.Min == nil && f.Max == nil
}

func (f FilterSpec) IsRange() bool {
	return f.Min != nil || f.Max != nil
}

// FilterOptions describes what the filter column offers.
type FilterOptions struct {
	Column  string   `json:"column"`
	Found   bool     `json:"found"`
	Numeric bool     `json:"numeric"`
	Values  []string `json:"values,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// Session is the state of one user's merge/filter/edit interaction.
type Session struct {
	ID           string         `json:"id"`
	FilterColumn string         `json:"filter_column"`
	Merged       *table.Table   `json:"-"`
	Filtered     *table.Table   `json:"-"`
	ColumnOrder  []string       `json:"column_order"`
	Filter       FilterSpec     `json:"filter"`
	Notices      []merge.Notice `json:"notices,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Logger *zerolog.Logger `json:"-"`
	mu     sync.Mutex
}

func New(id, filterColumn string, logger *zerolog.Logger) *Session {
	if filterColumn == "" {
		filterColumn = DEFAULT_FILTER_COLUMN
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("session", id).Logger()
	return &Session{ID: id, FilterColumn: filterColumn, Logger: &l, UpdatedAt: time.Now()}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

func (s *Session) info(msg string) {
	s.Notices = append(s.Notices, merge.Notice{Level: merge.NOTICE_INFO, Source: s.FilterColumn, Message: msg})
}

// Load installs a merge result: no filter and every column visible.
func (s *Session) Load(res *merge.Result) *util.Result {
	if res == nil || res.Table == nil {
		return util.MsgError("Load", "no merged table")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Merged = res.Table
	s.Notices = append([]merge.Notice(nil), res.Notices...)
	s.Filter = FilterSpec{Column: s.FilterColumn, Value: FILTER_ALL}
	s.applyFilter()
	s.ColumnOrder = append([]string(nil), s.Merged.Columns...)
	s.touch()
	s.Logger.Info().Msgf("loaded %d rows, %d columns", s.Merged.NumRows(), s.Merged.NumCols())
	return nil
}

func parseNumber(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f, err == nil
}

// isNumeric is true when every non-empty cell parses as a number.
func isNumeric(values []string) bool {
	seen := false
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := parseNumber(v); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func (s *Session) keep(v string) bool {
	f := s.Filter
	if f.IsRange() {
		n, ok := parseNumber(v)
		if !ok {
			return false
		}
		return (f.Min == nil || n >= *f.Min) && (f.Max == nil || n <= *f.Max)
	}
	return v == f.Value
}

// applyFilter rebuilds Filtered from Merged. The first row holds the second
// header line and always stays on top, once.
func (s *Session) applyFilter() {
	if s.Merged == nil {
		return
	}
	ci := s.Merged.ColumnIndex(s.Filter.Column)
	if ci < 0 || s.Filter.IsAll() {
		s.Filtered = s.Merged.Clone()
		return
	}

	ret := table.New(s.Merged.Name, append([]string(nil), s.Merged.Columns...), nil)
	for ri, row := range s.Merged.Rows {
		if ri == 0 || s.keep(row[ci]) {
			ret.AppendRow(append([]string(nil), row...))
		}
	}
	s.Filtered = ret
}

// ApplyFilter re-seeds the view from the merged table, dropping edits.
func (s *Session) ApplyFilter(f FilterSpec) *util.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Merged == nil {
		return util.MsgError("ApplyFilter", "no data loaded")
	}
	if f.Column == "" {
		f.Column = s.FilterColumn
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return util.MsgError("ApplyFilter", fmt.Sprintf("invalid range [%g, %g]", *f.Min, *f.Max))
	}
	if !s.Merged.HasColumn(f.Column) {
		s.info(fmt.Sprintf("Filter column '%s' not found, showing all rows.", f.Column))
	}

	s.Filter = f
	s.applyFilter()
	s.resetStaleOrder()
	s.touch()
	s.Logger.Debug().Msgf("filter %+v: %d rows", f, s.Filtered.NumRows())
	return nil
}

// FilterOptions lists All plus the distinct values of the filter column in
// first-seen order, or its bounds when the column is numeric.
func (s *Session) FilterOptions() FilterOptions {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret := FilterOptions{Column: s.FilterColumn}
	if s.Merged == nil {
		return ret
	}
	ci := s.Merged.ColumnIndex(s.FilterColumn)
	if ci < 0 {
		return ret
	}
	ret.Found = true
	values := s.Merged.Column(ci)

	if isNumeric(values) {
		ret.Numeric = true
		for _, v := range values {
			n, ok := parseNumber(v)
			if !ok {
				continue
			}
			if ret.Min == nil || n < *ret.Min {
				lo := n
				ret.Min = &lo
			}
			if ret.Max == nil || n > *ret.Max {
				hi := n
				ret.Max = &hi
			}
		}
		return ret
	}

	ret.Values = []string{FILTER_ALL}
	seen := make(map[string]bool)
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		ret.Values = append(ret.Values, v)
	}
	return ret
}

func (s *Session) resetStaleOrder() {
	if s.Filtered == nil {
		return
	}
	for _, c := range s.ColumnOrder {
		if !s.Filtered.HasColumn(c) {
			s.ColumnOrder = append([]string(nil), s.Filtered.Columns...)
			return
		}
	}
}

// SelectColumns sets the visible columns in display order. An empty list is
// accepted; View reports it.
func (s *Session) SelectColumns(columns []string) *util.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Filtered == nil {
		return util.MsgError("SelectColumns", "no data loaded")
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if !s.Filtered.HasColumn(c) {
			return util.MsgError("SelectColumns", fmt.Sprintf("unknown column '%s'", c))
		}
		if seen[c] {
			return util.MsgError("SelectColumns", fmt.Sprintf("column '%s' selected twice", c))
		}
		seen[c] = true
	}
	s.ColumnOrder = append([]string{}, columns...)
	s.touch()
	return nil
}

func (s *Session) ResetColumns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Filtered != nil {
		s.ColumnOrder = append([]string(nil), s.Filtered.Columns...)
	}
	s.touch()
}

// ReorderColumns applies a column move from the grid: columns must be a
// permutation of the current selection.
func (s *Session) ReorderColumns(columns []string) *util.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(columns) != len(s.ColumnOrder) {
		return util.MsgError("ReorderColumns", fmt.Sprintf("expected %d columns, got %d", len(s.ColumnOrder), len(columns)))
	}
	current := make(map[string]int, len(s.ColumnOrder))
	for _, c := range s.ColumnOrder {
		current[c]++
	}
	for _, c := range columns {
		if current[c] == 0 {
			return util.MsgError("ReorderColumns", fmt.Sprintf("column '%s' is not selected", c))
		}
		current[c]--
	}
	s.ColumnOrder = append([]string(nil), columns...)
	s.touch()
	return nil
}

// EditCell changes one cell of the filtered view; row counts from the first
// data row.
func (s *Session) EditCell(row int, column, value string) *util.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Filtered == nil {
		return util.MsgError("EditCell", "no data loaded")
	}
	if res := s.Filtered.SetCell(row, column, value); res != nil {
		return res.With("EditCell")
	}
	s.touch()
	return nil
}

// View is the filtered table projected on the selected columns.
func (s *Session) View() (*table.Table, *util.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Filtered == nil {
		return nil, util.MsgError("View", "no data loaded")
	}
	s.resetStaleOrder()
	if len(s.ColumnOrder) == 0 {
		return nil, util.MsgError("View", NoColumnsMessage)
	}
	ret, res := s.Filtered.Select(s.ColumnOrder)
	if res != nil {
		return nil, res.With("View")
	}
	return ret, nil
}

// State is the serialisable snapshot a grid client renders.
type State struct {
	ID         string         `json:"id"`
	Columns    []string       `json:"columns"`
	AllColumns []string       `json:"all_columns"`
	Rows       [][]string     `json:"rows"`
	Filter     FilterSpec     `json:"filter"`
	Options    FilterOptions  `json:"filter_options"`
	Notices    []merge.Notice `json:"notices,omitempty"`
	Message    string         `json:"message,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (s *Session) State() State {
	opts := s.FilterOptions()
	view, res := s.View()

	s.mu.Lock()
	defer s.mu.Unlock()
	ret := State{
		ID:        s.ID,
		Filter:    s.Filter,
		Options:   opts,
		Notices:   append([]merge.Notice(nil), s.Notices...),
		UpdatedAt: s.UpdatedAt,
	}
	if s.Filtered != nil {
		ret.AllColumns = append([]string(nil), s.Filtered.Columns...)
	}
	if res != nil {
		ret.Message = NoColumnsMessage
		if s.Filtered == nil {
			ret.Message = "no data loaded"
		}
		ret.Columns = []string{}
		ret.Rows = [][]string{}
		return ret
	}
	ret.Columns = view.Columns
	ret.Rows = view.Rows
	return ret
}
