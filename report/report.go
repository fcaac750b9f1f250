package report

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-sheetmerge/layout"
)

type ReportFormat string

const (
	REPORT_FORMAT_XLSX ReportFormat = "xlsx"
	REPORT_FORMAT_CSV  ReportFormat = "csv"
	REPORT_FORMAT_PDF  ReportFormat = "pdf"

	DEFAULT_CONFIDENTIAL  = "Confidential"
	DEFAULT_ROWS_PER_PAGE = 9
	DEFAULT_FONT_SIZE     = 8.0
	MIN_FONT_SIZE         = 0.1

	EmptyNoteMessage = "The text area cannot be empty!"
)

func (f ReportFormat) IsExcel() bool {
	return f == REPORT_FORMAT_XLSX
}

func (f ReportFormat) IsCsv() bool {
	return f == REPORT_FORMAT_CSV
}

func (f ReportFormat) IsPdf() bool {
	return f == REPORT_FORMAT_PDF
}

func (f ReportFormat) IsValid() bool {
	return f.IsExcel() || f.IsCsv() || f.IsPdf()
}

func (f *ReportFormat) MaybeDefault() {
	if !f.IsValid() {
		*f = REPORT_FORMAT_CSV
	}
}

func (f ReportFormat) ContentType() string {
	switch f {
	case REPORT_FORMAT_PDF:
		return "application/pdf"
	case REPORT_FORMAT_XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// ExportFileName is the download name of an exported view.
func (f ReportFormat) ExportFileName() string {
	if f.IsPdf() {
		return "output.pdf"
	}
	return fmt.Sprintf("filtered_data.%s", f)
}

func ParseFormat(s string) (ReportFormat, *util.Result) {
	f := ReportFormat(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return f, util.MsgError("ParseFormat", fmt.Sprintf("invalid format '%s', support only csv, xlsx and pdf", s))
	}
	return f, nil
}

// Params are the user inputs of one PDF report.
type Params struct {
	Title           string  `json:"title" yaml:"title" toml:"title"`
	Confidential    string  `json:"confidential" yaml:"confidential" toml:"confidential"`
	Team            string  `json:"team" yaml:"team" toml:"team"`
	ConfirmedBy     string  `json:"confirmed_by" yaml:"confirmed_by" toml:"confirmed_by"`
	SignatureDate   string  `json:"signature_date" yaml:"signature_date" toml:"signature_date"`
	RowsPerPage     int     `json:"rows_per_page" yaml:"rows_per_page" toml:"rows_per_page"`
	FontSize        float64 `json:"font_size" yaml:"font_size" toml:"font_size"`
	ColumnWidth     float64 `json:"column_width" yaml:"column_width" toml:"column_width"`
	BigColumnWidth  float64 `json:"big_column_width" yaml:"big_column_width" toml:"big_column_width"`
	LastColumnWidth float64 `json:"last_column_width" yaml:"last_column_width" toml:"last_column_width"`
	Note            string  `json:"note" yaml:"note" toml:"note"`
}

func DefaultParams() Params {
	o := layout.DefaultOptions()
	return Params{
		Confidential:    DEFAULT_CONFIDENTIAL,
		RowsPerPage:     DEFAULT_ROWS_PER_PAGE,
		FontSize:        DEFAULT_FONT_SIZE,
		ColumnWidth:     o.NormalWidth,
		BigColumnWidth:  o.BigWidth,
		LastColumnWidth: o.LastWidth,
	}
}

// MaybeDefault fills unset numeric fields from d.
func (p *Params) MaybeDefault(d Params) {
	if p.RowsPerPage == 0 {
		p.RowsPerPage = d.RowsPerPage
	}
	if p.FontSize == 0 {
		p.FontSize = d.FontSize
	}
	if p.ColumnWidth == 0 {
		p.ColumnWidth = d.ColumnWidth
	}
	if p.BigColumnWidth == 0 {
		p.BigColumnWidth = d.BigColumnWidth
	}
	if p.LastColumnWidth == 0 {
		p.LastColumnWidth = d.LastColumnWidth
	}
}

func (p Params) Validate() *util.Result {
	if len(p.NoteLines()) == 0 {
		return util.MsgError("ValidateParams", EmptyNoteMessage)
	}
	if p.RowsPerPage < 1 {
		return util.MsgError("ValidateParams", "rows per page must be at least 1")
	}
	if p.FontSize < MIN_FONT_SIZE {
		return util.MsgError("ValidateParams", fmt.Sprintf("font size must be at least %.1f", MIN_FONT_SIZE))
	}
	if p.ColumnWidth < 1 || p.BigColumnWidth < 1 || p.LastColumnWidth < 1 {
		return util.MsgError("ValidateParams", "column widths must be at least 1")
	}
	return nil
}

// LayoutOptions merges the user widths into the configured layout.
func (p Params) LayoutOptions(base layout.Options) layout.Options {
	base.NormalWidth = p.ColumnWidth
	base.BigWidth = p.BigColumnWidth
	base.LastWidth = p.LastColumnWidth
	base.MaybeDefault()
	return base
}

// NoteLines splits the note on '-' into trimmed, non-empty paragraphs.
func (p Params) NoteLines() []string {
	ret := make([]string, 0)
	for _, l := range strings.Split(p.Note, "-") {
		if l = strings.TrimSpace(l); l != "" {
			ret = append(ret, l)
		}
	}
	return ret
}

type ReportResult struct {
	ID          string          `json:"id,omitempty" yaml:"id,omitempty"`
	Format      ReportFormat    `json:"format" yaml:"format"`
	Pages       int             `json:"pages,omitempty" yaml:"pages,omitempty"`
	TablePages  int             `json:"table_pages,omitempty" yaml:"table_pages,omitempty"`
	PrintedRows int             `json:"printed_rows,omitempty" yaml:"printed_rows,omitempty"`
	Columns     int             `json:"columns,omitempty" yaml:"columns,omitempty"`
	Size        int             `json:"size,omitempty" yaml:"size,omitempty"`
	Logger      *zerolog.Logger `json:"-" yaml:"-"`
}

type ReportPrinterBase struct {
	Logger *zerolog.Logger
}

func (b ReportPrinterBase) logger() *zerolog.Logger {
	if b.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return b.Logger
}

// HeaderColors are the fills of the header rows; Dark marks Other/Others cells.
type HeaderColors struct {
	Fill string `json:"fill" yaml:"fill" toml:"fill"`
	Dark string `json:"dark" yaml:"dark" toml:"dark"`
}

func DefaultHeaderColors() HeaderColors {
	return HeaderColors{Fill: "red", Dark: "black"}
}

func (c HeaderColors) resolve() (fill ARGBColor, dark ARGBColor) {
	return ColorOr(c.Fill, ARGBColor{A: 255, R: 255}), ColorOr(c.Dark, ColorBlack)
}
