package layout

import (
	"fmt"
	"unicode/utf8"
)

// Options sizes the report columns, in points.
type Options struct {
	FrameWidth        float64 `json:"frame_width" yaml:"frame_width" toml:"frame_width"`
	KeyWidth          float64 `json:"key_width" yaml:"key_width" toml:"key_width"`
	NormalWidth       float64 `json:"normal_width" yaml:"normal_width" toml:"normal_width"`
	BigWidth          float64 `json:"big_width" yaml:"big_width" toml:"big_width"`
	LastWidth         float64 `json:"last_width" yaml:"last_width" toml:"last_width"`
	LongTextThreshold int     `json:"long_text_threshold" yaml:"long_text_threshold" toml:"long_text_threshold"`
	FrameCount        int     `json:"frame_count" yaml:"frame_count" toml:"frame_count"`
}

func DefaultOptions() Options {
	return Options{
		FrameWidth:        70,
		KeyWidth:          120,
		NormalWidth:       80,
		BigWidth:          300,
		LastWidth:         80,
		LongTextThreshold: 45,
		FrameCount:        3,
	}
}

// MaybeDefault fills zero values.
func (o *Options) MaybeDefault() {
	d := DefaultOptions()
	if o.FrameWidth <= 0 {
		o.FrameWidth = d.FrameWidth
	}
	if o.KeyWidth <= 0 {
		o.KeyWidth = d.KeyWidth
	}
	if o.NormalWidth <= 0 {
		o.NormalWidth = d.NormalWidth
	}
	if o.BigWidth <= 0 {
		o.BigWidth = d.BigWidth
	}
	if o.LastWidth <= 0 {
		o.LastWidth = d.LastWidth
	}
	if o.LongTextThreshold <= 0 {
		o.LongTextThreshold = d.LongTextThreshold
	}
	if o.FrameCount <= 0 {
		o.FrameCount = d.FrameCount
	}
}

// frames is the number of leading columns cloned onto continuation pages.
func (o Options) frames(ncols int) int {
	return min(o.FrameCount, ncols)
}

// LongTextColumns returns the columns whose sample body cells (grid rows 2-4)
// are longer than the threshold.
func LongTextColumns(grid [][]string, opts Options) map[int]bool {
	ret := make(map[int]bool)
	for r := 2; r < 5 && r < len(grid); r++ {
		for c, v := range grid[r] {
			if utf8.RuneCountInString(v) > opts.LongTextThreshold {
				ret[c] = true
			}
		}
	}
	return ret
}

// ColumnWidths assigns a width to every grid column.
func ColumnWidths(grid [][]string, opts Options) []float64 {
	if len(grid) == 0 {
		return nil
	}
	long := LongTextColumns(grid, opts)
	widths := make([]float64, len(grid[0]))
	for i := range widths {
		switch {
		case i < 3:
			widths[i] = opts.FrameWidth
		case i == 3:
			widths[i] = opts.KeyWidth
		case long[i]:
			widths[i] = opts.BigWidth
		default:
			widths[i] = opts.NormalWidth
		}
	}
	return widths
}

type ColumnPage struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

func (p ColumnPage) Len() int {
	return p.End - p.Start
}

// ColumnPlan is the horizontal split of a table, in expanded column coordinates:
// Boundaries are the positions where frame columns are inserted.
type ColumnPlan struct {
	Pages      []ColumnPage `json:"pages" yaml:"pages"`
	Boundaries []int        `json:"boundaries" yaml:"boundaries"`
	Frames     int          `json:"frames" yaml:"frames"`
}

// PlanColumns packs columns greedily into pages no wider than usable.
// When a column overflows, the page is closed, frameCount clones of the
// leading columns are inserted in front of the overflowing column, and the
// new page starts with those clones and the overflowing column.
func PlanColumns(widths []float64, usable float64, frameCount int) ColumnPlan {
	frameCount = min(frameCount, len(widths))
	frameWidth := 0.0
	for _, w := range widths[:frameCount] {
		frameWidth += w
	}

	plan := ColumnPlan{Frames: frameCount}
	counts := make([]int, 0)
	total, count, p := 0.0, 0, 0
	for _, w := range widths {
		total += w
		if total <= usable || count == 0 {
			count++
			p++
			continue
		}
		counts = append(counts, count)
		plan.Boundaries = append(plan.Boundaries, p)
		p += frameCount + 1
		total = w + frameWidth
		count = frameCount + 1
	}
	if len(widths) > 0 {
		counts = append(counts, count)
	}

	start := 0
	for _, c := range counts {
		plan.Pages = append(plan.Pages, ColumnPage{Start: start, End: start + c})
		start += c
	}
	return plan
}

// FrameColumnName names the j-th clone column inserted at the page-th boundary.
func FrameColumnName(page, j int) string {
	if j == 0 {
		return fmt.Sprintf("id%d_0", page+1)
	}
	return fmt.Sprintf("column_%d_%d", page+1, j)
}

// Expand inserts the frame clones into the grid and the widths. Every column
// after the last frame column that does not hold long text is resized to
// LastWidth. names are the column identifiers, extended with FrameColumnName.
func Expand(grid [][]string, names []string, widths []float64, plan ColumnPlan, opts Options) ([][]string, []string, []float64) {
	k := plan.Frames
	eg := make([][]string, len(grid))
	for r, row := range grid {
		eg[r] = append([]string(nil), row...)
	}
	en := append([]string(nil), names...)
	ew := append([]float64(nil), widths...)

	for bi, b := range plan.Boundaries {
		for r, row := range eg {
			eg[r] = insertAt(row, b, append([]string(nil), row[:k]...))
		}
		frameNames := make([]string, k)
		frameWidths := make([]float64, k)
		for j := 0; j < k; j++ {
			frameNames[j] = FrameColumnName(bi, j)
			frameWidths[j] = opts.FrameWidth
		}
		en = insertAt(en, b, frameNames)
		ew = insertAt(ew, b, frameWidths)
	}

	lastFrame := k - 1
	if n := len(plan.Boundaries); n > 0 {
		lastFrame = plan.Boundaries[n-1] + k - 1
	}
	long := LongTextColumns(eg, opts)
	for i := lastFrame + 1; i < len(ew); i++ {
		if !long[i] {
			ew[i] = opts.LastWidth
		}
	}
	return eg, en, ew
}

func insertAt[T any](s []T, at int, values []T) []T {
	ret := make([]T, 0, len(s)+len(values))
	ret = append(ret, s[:at]...)
	ret = append(ret, values...)
	return append(ret, s[at:]...)
}
