package merge

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-sheetmerge/table"
)

type NoticeLevel string

const (
	NOTICE_INFO    NoticeLevel = "info"
	NOTICE_WARNING NoticeLevel = "warning"
	NOTICE_ERROR   NoticeLevel = "error"

	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// Notice is a non-fatal issue reported back to the user.
type Notice struct {
	Level   NoticeLevel `json:"level" yaml:"level"`
	Source  string      `json:"source,omitempty" yaml:"source,omitempty"`
	Message string      `json:"message" yaml:"message"`
}

type Result struct {
	Table   *table.Table `json:"table"`
	Key     string       `json:"key"`
	Notices []Notice     `json:"notices,omitempty"`
}

func (r *Result) notice(level NoticeLevel, source, msg string) {
	r.Notices = append(r.Notices, Notice{Level: level, Source: source, Message: msg})
}

type Merger struct {
	Logger *zerolog.Logger
}

func NewMerger(logger *zerolog.Logger) *Merger {
	return &Merger{Logger: logger}
}

// Merge inner-joins tables on the first column of the first non-empty table.
// Empty tables and tables without the key column are reported and skipped.
func (m *Merger) Merge(tables []*table.Table) (*Result, *util.Result) {
	logger := m.logger().With().Str("merge", "tables").Int("count", len(tables)).Logger()
	ret := &Result{}

	inputs := make([]*table.Table, 0, len(tables))
	for _, t := range tables {
		if t.Empty() {
			logger.Warn().Msgf("%s is empty, excluded", t.Name)
			ret.notice(NOTICE_WARNING, t.Name, fmt.Sprintf("The file %s is empty.", t.Name))
			continue
		}
		inputs = append(inputs, t)
	}
	if len(inputs) == 0 {
		return ret, util.LogMsgError(&logger, "Merge", "no data to merge")
	}

	merged := inputs[0].Clone()
	ret.Key = merged.Columns[0]
	logger.Info().Msgf("key column: %s, base: %s (%d rows)", ret.Key, merged.Name, merged.NumRows())

	for _, right := range inputs[1:] {
		if !right.HasColumn(ret.Key) {
			logger.Error().Msgf("key column '%s' not found in %s, skipped", ret.Key, right.Name)
			ret.notice(NOTICE_ERROR, right.Name, fmt.Sprintf("Key column '%s' not found in %s.", ret.Key, right.Name))
			continue
		}

		joined, res := InnerJoinOneToOne(merged, right, ret.Key)
		if res != nil {
			return ret, res.LogWith(&logger, fmt.Sprintf("InnerJoin(%s)", right.Name))
		}
		logger.Info().Msgf("joined %s: %d rows, %d columns", right.Name, joined.NumRows(), joined.NumCols())
		merged = joined
	}

	merged.Normalize()
	merged.NormalizeKey(merged.ColumnIndex(ret.Key))
	if len(inputs) > 1 {
		merged.Name = "merged"
	}
	ret.Table = merged
	return ret, nil
}

func (m *Merger) logger() *zerolog.Logger {
	if m.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return m.Logger
}

// InnerJoinOneToOne joins left and right on key, both compared as strings.
// A key that repeats on either side violates the 1:1 cardinality and fails the join.
// Row order follows left; clashing non-key columns are suffixed _x/_y.
func InnerJoinOneToOne(left, right *table.Table, key string) (*table.Table, *util.Result) {
	lk := left.ColumnIndex(key)
	rk := right.ColumnIndex(key)
	if lk < 0 || rk < 0 {
		return nil, util.MsgError("InnerJoin", fmt.Sprintf("key column '%s' missing", key))
	}

	if dup, ok := firstDuplicate(left.Column(lk)); ok {
		return nil, util.MsgError("ValidateOneToOne", fmt.Sprintf("merge keys are not unique in left dataset: '%s'", dup))
	}
	rightKeys := right.Column(rk)
	if dup, ok := firstDuplicate(rightKeys); ok {
		return nil, util.MsgError("ValidateOneToOne", fmt.Sprintf("merge keys are not unique in right dataset (%s): '%s'", right.Name, dup))
	}

	rightIdx := make(map[string]int, len(rightKeys))
	for i, k := range rightKeys {
		rightIdx[k] = i
	}

	rightCols := make([]int, 0, right.NumCols()-1)
	for i := range right.Columns {
		if i != rk {
			rightCols = append(rightCols, i)
		}
	}

	columns := joinedColumns(left, right, lk, rightCols)
	out := &table.Table{Name: left.Name, Columns: columns}
	for _, lrow := range left.Rows {
		ri, ok := rightIdx[lrow[lk]]
		if !ok {
			continue
		}
		row := make([]string, 0, len(columns))
		row = append(row, lrow...)
		for _, ci := range rightCols {
			row = append(row, right.Rows[ri][ci])
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func joinedColumns(left, right *table.Table, lk int, rightCols []int) []string {
	rightNames := make(map[string]bool, len(rightCols))
	for _, ci := range rightCols {
		rightNames[right.Columns[ci]] = true
	}

	columns := make([]string, 0, left.NumCols()+len(rightCols))
	for i, c := range left.Columns {
		if i != lk && rightNames[c] {
			c += LeftSuffix
		}
		columns = append(columns, c)
	}
	for _, ci := range rightCols {
		c := right.Columns[ci]
		if left.HasColumn(c) {
			c += RightSuffix
		}
		columns = append(columns, c)
	}
	return columns
}

func firstDuplicate(values []string) (string, bool) {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v, true
		}
		seen[v] = true
	}
	return "", false
}
