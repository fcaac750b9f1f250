package report

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-sheetmerge/layout"
	"github.com/soderasen-au/go-sheetmerge/table"
)

// All sizes are in points, positions are measured from the top-left corner.
const (
	PDF_INCH          = 72.0
	PDF_MARGIN_TOP    = 1.2 * PDF_INCH
	PDF_MARGIN_BOTTOM = 0.8 * PDF_INCH
	PDF_SIDE_MARGIN   = 0.4 * PDF_INCH
	PDF_FRAME_PADDING = 6.0
	PDF_CELL_PAD_X    = 6.0
	PDF_CELL_PAD_TOP  = 1.0 * 72.0 / 25.4
	PDF_LINE_WIDTH    = 1.0
	PDF_FONT          = "Helvetica"

	// header band, laid out against the portrait A3 width
	PDF_BAND_WIDTH          = 841.89
	PDF_LOGO_X              = 20.0
	PDF_LOGO_BOTTOM         = 750.0
	PDF_LOGO_WIDTH          = 150.0
	PDF_LOGO_HEIGHT         = 100.0
	PDF_CONFIDENTIAL_X      = 1050.0
	PDF_CONFIDENTIAL_BASE   = 800.0
	PDF_TITLE_BASE          = 770.0
	PDF_TITLE_OFFSET        = 170.0
	PDF_TITLE_SIZE          = 16.0
	PDF_BAND_FONT_SIZE      = 12.0
	PDF_TEAM_RIGHT_OFFSET   = 230.0
	PDF_TEAM_BASE           = 50.0
	PDF_PAGE_NUMBER_OFFSET  = 200.0
	PDF_PAGE_NUMBER_BASE    = 20.0
	PDF_CLOSING_SPACER      = 20.0
	PDF_CLOSING_LEFT_WIDTH  = 5 * PDF_INCH
	PDF_CLOSING_RIGHT_WIDTH = 5.5 * PDF_INCH
	PDF_CLOSING_FONT_SIZE   = 12.0
	PDF_CLOSING_LEADING     = 14.0
	PDF_NOTE_LINES_PER_ROW  = 6
)

type PdfConfig struct {
	LogoPath string         `json:"logo_path" yaml:"logo_path" toml:"logo_path"`
	Colors   HeaderColors   `json:"colors" yaml:"colors" toml:"colors"`
	Options  layout.Options `json:"layout" yaml:"layout" toml:"layout"`
}

type PdfReportPrinter struct {
	ReportPrinterBase
	Config PdfConfig

	pdf        *gofpdf.Fpdf
	tr         func(string) string
	params     Params
	pageWidth  float64
	pageHeight float64
	logo       string
	fill       ARGBColor
	dark       ARGBColor
	log        *zerolog.Logger
}

func NewPdfReportPrinter(cfg PdfConfig, logger *zerolog.Logger) *PdfReportPrinter {
	p := &PdfReportPrinter{Config: cfg}
	p.Logger = logger
	return p
}

func (p *PdfReportPrinter) bottomLimit() float64 {
	return p.pageHeight - PDF_MARGIN_BOTTOM - PDF_FRAME_PADDING
}

func (p *PdfReportPrinter) topLimit() float64 {
	return PDF_MARGIN_TOP + PDF_FRAME_PADDING
}

// y converts a baseline measured from the page bottom.
func (p *PdfReportPrinter) y(fromBottom float64) float64 {
	return p.pageHeight - fromBottom
}

func (p *PdfReportPrinter) registerLogo() {
	p.logo = ""
	if p.Config.LogoPath == "" {
		return
	}
	if ok, err := util.Exists(p.Config.LogoPath); err != nil || !ok {
		p.log.Warn().Msgf("logo %s not found, header printed without image", p.Config.LogoPath)
		return
	}
	p.pdf.RegisterImageOptions(p.Config.LogoPath, gofpdf.ImageOptions{ReadDpi: true})
	if !p.pdf.Ok() {
		p.log.Warn().Err(p.pdf.Error()).Msgf("can't load logo %s", p.Config.LogoPath)
		p.pdf.ClearError()
		return
	}
	p.logo = p.Config.LogoPath
}

func (p *PdfReportPrinter) printPageHeader() {
	if p.logo != "" {
		p.pdf.ImageOptions(p.logo, PDF_LOGO_X, p.y(PDF_LOGO_BOTTOM+PDF_LOGO_HEIGHT), PDF_LOGO_WIDTH, PDF_LOGO_HEIGHT,
			false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.SetFont(PDF_FONT, "", PDF_BAND_FONT_SIZE)
	p.pdf.Text(PDF_CONFIDENTIAL_X, p.y(PDF_CONFIDENTIAL_BASE), p.tr(p.params.Confidential))

	p.pdf.SetFont(PDF_FONT, "B", PDF_TITLE_SIZE)
	title := p.tr(p.params.Title)
	p.pdf.Text(PDF_BAND_WIDTH/2+PDF_TITLE_OFFSET-p.pdf.GetStringWidth(title)/2, p.y(PDF_TITLE_BASE), title)
}

func (p *PdfReportPrinter) printPageFooter() {
	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.SetFont(PDF_FONT, "", PDF_BAND_FONT_SIZE)

	team := p.tr(p.params.Team)
	p.pdf.Text(PDF_BAND_WIDTH+PDF_TEAM_RIGHT_OFFSET-p.pdf.GetStringWidth(team), p.y(PDF_TEAM_BASE), team)

	pageText := fmt.Sprintf("Page %d", p.pdf.PageNo())
	p.pdf.Text(PDF_BAND_WIDTH/2+PDF_PAGE_NUMBER_OFFSET-p.pdf.GetStringWidth(pageText)/2, p.y(PDF_PAGE_NUMBER_BASE), pageText)
}

func (p *PdfReportPrinter) newPage() float64 {
	p.pdf.AddPage()
	return p.topLimit()
}

func (p *PdfReportPrinter) lines(text string, width float64) []string {
	ret := make([]string, 0, 1)
	if text == "" {
		return append(ret, "")
	}
	for _, l := range p.pdf.SplitLines([]byte(p.tr(text)), width-2*PDF_CELL_PAD_X) {
		ret = append(ret, string(l))
	}
	if len(ret) == 0 {
		ret = append(ret, "")
	}
	return ret
}

func (p *PdfReportPrinter) cellHeight(text string, width, leading float64) float64 {
	return PDF_CELL_PAD_TOP + float64(len(p.lines(text, width)))*leading
}

// drawCell draws a bordered cell with its text vertically centred.
func (p *PdfReportPrinter) drawCell(x, y, w, h float64, text, align string, leading float64, fill *ARGBColor) {
	p.pdf.SetDrawColor(0, 0, 0)
	p.pdf.SetLineWidth(PDF_LINE_WIDTH)
	style := "D"
	if fill != nil {
		p.pdf.SetFillColor(fill.R, fill.G, fill.B)
		style = "FD"
	}
	p.pdf.Rect(x, y, w, h, style)

	lines := p.lines(text, w)
	content := float64(len(lines)) * leading
	ly := y + PDF_CELL_PAD_TOP + (h-PDF_CELL_PAD_TOP-content)/2
	for _, l := range lines {
		p.pdf.SetXY(x+PDF_CELL_PAD_X, ly)
		p.pdf.CellFormat(w-2*PDF_CELL_PAD_X, leading, l, "", 0, align, false, 0, "")
		ly += leading
	}
}

func offsets(x0 float64, widths []float64) []float64 {
	ret := make([]float64, len(widths)+1)
	ret[0] = x0
	for i, w := range widths {
		ret[i+1] = ret[i] + w
	}
	return ret
}

func (p *PdfReportPrinter) headerFont() float64 {
	size := p.params.FontSize + 1
	p.pdf.SetFont(PDF_FONT, "B", size)
	return size + 4
}

func (p *PdfReportPrinter) bodyFont() float64 {
	p.pdf.SetFont(PDF_FONT, "", p.params.FontSize)
	p.pdf.SetTextColor(0, 0, 0)
	return p.params.FontSize + 3
}

// printTableHeader draws the two header rows at y and returns the y below them.
func (p *PdfReportPrinter) printTableHeader(page layout.Page, xs []float64, y float64) float64 {
	leading := p.headerFont()
	cells := layout.HeaderCells(page.Header[0], page.Header[1])

	minHeight := PDF_CELL_PAD_TOP + leading
	heights := [2]float64{minHeight, minHeight}
	for _, c := range cells {
		if c.Rows == 1 {
			heights[c.Row] = max(heights[c.Row], p.cellHeight(c.Text, xs[c.Col+c.Cols]-xs[c.Col], leading))
		}
	}
	for _, c := range cells {
		if c.Rows == 2 {
			need := p.cellHeight(c.Text, xs[c.Col+c.Cols]-xs[c.Col], leading)
			if need > heights[0]+heights[1] {
				heights[1] = need - heights[0]
			}
		}
	}

	for _, c := range cells {
		fill := p.fill
		if c.Dark {
			fill = p.dark
		}
		txt := fill.Contrast()
		p.pdf.SetTextColor(txt.R, txt.G, txt.B)

		cy := y
		if c.Row == 1 {
			cy += heights[0]
		}
		h := heights[c.Row]
		if c.Rows == 2 {
			h = heights[0] + heights[1]
		}
		p.drawCell(xs[c.Col], cy, xs[c.Col+c.Cols]-xs[c.Col], h, c.Text, "C", leading, &fill)
	}
	return y + heights[0] + heights[1]
}

// printTablePage draws one table page, starting new pages with repeated
// headers when the body does not fit.
func (p *PdfReportPrinter) printTablePage(page layout.Page, y float64, res *ReportResult) float64 {
	total := 0.0
	for _, w := range page.Widths {
		total += w
	}
	xs := offsets((p.pageWidth-total)/2, page.Widths)

	y = p.printTableHeader(page, xs, y)
	for ri, row := range page.Body {
		leading := p.bodyFont()
		h := PDF_CELL_PAD_TOP + leading
		for ci, v := range row {
			h = max(h, p.cellHeight(v, page.Widths[ci], leading))
		}
		if y+h > p.bottomLimit() && ri > 0 {
			p.log.Debug().Msgf("table page %d: row %d overflows, continue on new page", page.Index, ri)
			y = p.printTableHeader(page, xs, p.newPage())
			leading = p.bodyFont()
		}
		for ci, v := range row {
			p.drawCell(xs[ci], y, page.Widths[ci], h, v, "L", leading, nil)
		}
		y += h
		res.PrintedRows++
	}
	return y
}

func closingLeft(params Params) []string {
	return []string{
		fmt.Sprintf("Confirmed by (%s):", params.ConfirmedBy),
		"",
		"Signature: ______________________________",
		"",
		fmt.Sprintf("Date: %s", params.SignatureDate),
		"Name:",
		"Designation:",
	}
}

// closingSpacing is the extra space after each left-hand closing line.
var closingSpacing = []float64{0, PDF_CLOSING_SPACER - PDF_CLOSING_LEADING, 0, 5 - PDF_CLOSING_LEADING, 0, 0, 0}

// NoteRows groups note paragraphs PDF_NOTE_LINES_PER_ROW per closing row.
// Every paragraph but the very first is prefixed with "- ".
func NoteRows(params Params) [][]string {
	ret := make([][]string, 0)
	for i, l := range params.NoteLines() {
		if i > 0 {
			l = "- " + l
		}
		if i%PDF_NOTE_LINES_PER_ROW == 0 {
			ret = append(ret, make([]string, 0, PDF_NOTE_LINES_PER_ROW))
		}
		ret[len(ret)-1] = append(ret[len(ret)-1], l)
	}
	return ret
}

func (p *PdfReportPrinter) textBlock(x, y, w float64, texts []string, spacing []float64, draw bool) float64 {
	for i, t := range texts {
		lines := p.pdf.SplitLines([]byte(p.tr(t)), w)
		if len(lines) == 0 {
			lines = [][]byte{nil}
		}
		for _, l := range lines {
			if draw {
				p.pdf.SetXY(x, y)
				p.pdf.CellFormat(w, PDF_CLOSING_LEADING, string(l), "", 0, "L", false, 0, "")
			}
			y += PDF_CLOSING_LEADING
		}
		if i < len(spacing) {
			y += spacing[i]
		}
	}
	return y
}

// printClosing draws the confirmation template beside the note.
func (p *PdfReportPrinter) printClosing(y float64) float64 {
	p.pdf.SetFont(PDF_FONT, "", PDF_CLOSING_FONT_SIZE)
	p.pdf.SetTextColor(0, 0, 0)

	x0 := (p.pageWidth - PDF_CLOSING_LEFT_WIDTH - PDF_CLOSING_RIGHT_WIDTH) / 2
	x1 := x0 + PDF_CLOSING_LEFT_WIDTH
	y += PDF_CLOSING_SPACER

	left := closingLeft(p.params)
	for i, notes := range NoteRows(p.params) {
		var leftTexts []string
		if i == 0 {
			leftTexts = left
		}
		h := max(p.textBlock(x0, 0, PDF_CLOSING_LEFT_WIDTH, leftTexts, closingSpacing, false),
			p.textBlock(x1, 0, PDF_CLOSING_RIGHT_WIDTH, notes, nil, false))
		if y+h > p.bottomLimit() {
			y = p.newPage()
			p.pdf.SetFont(PDF_FONT, "", PDF_CLOSING_FONT_SIZE)
			p.pdf.SetTextColor(0, 0, 0)
		}
		p.textBlock(x0, y, PDF_CLOSING_LEFT_WIDTH, leftTexts, closingSpacing, true)
		p.textBlock(x1, y, PDF_CLOSING_RIGHT_WIDTH, notes, nil, true)
		y += h
	}
	return y
}

// Print renders the table as a paginated landscape A3 report.
func (p *PdfReportPrinter) Print(t *table.Table, params Params) ([]byte, *ReportResult, *util.Result) {
	res := &ReportResult{ID: uuid.NewString(), Format: REPORT_FORMAT_PDF, Columns: t.NumCols()}
	logger := p.logger().With().Str("report", res.ID).Str("table", t.Name).Logger()
	p.log = &logger
	res.Logger = &logger

	if r := params.Validate(); r != nil {
		return nil, nil, r.LogWith(&logger, "Validate")
	}
	p.params = params

	p.pdf = gofpdf.New("L", "pt", "A3", "")
	defer func() { p.pdf = nil }()
	p.pageWidth, p.pageHeight = p.pdf.GetPageSize()
	p.pdf.SetMargins(0, PDF_MARGIN_TOP, 0)
	p.pdf.SetAutoPageBreak(false, PDF_MARGIN_BOTTOM)
	p.pdf.SetCellMargin(0)
	p.tr = p.pdf.UnicodeTranslatorFromDescriptor("")
	p.fill, p.dark = p.Config.Colors.resolve()
	p.registerLogo()
	p.pdf.SetHeaderFunc(p.printPageHeader)
	p.pdf.SetFooterFunc(p.printPageFooter)

	plan, r := layout.NewPlan(t, p.pageWidth-2*PDF_SIDE_MARGIN, params.RowsPerPage, params.LayoutOptions(p.Config.Options))
	if r != nil {
		return nil, nil, r.LogWith(&logger, "NewPlan")
	}
	pages := plan.Pages()
	logger.Info().Msgf("plan: %d row pages x %d column pages, %d expanded columns", len(plan.RowPages), len(plan.Columns.Pages), len(plan.Names))
	logger.Debug().Msgf("columns: %v, widths: %v", plan.Names, plan.Widths)

	y := p.newPage()
	for _, page := range pages {
		y = p.printTablePage(page, y, res)
		if !page.IsLast(len(pages)) {
			y = p.newPage()
		}
	}
	res.TablePages = len(pages)
	p.printClosing(y)
	res.Pages = p.pdf.PageNo()

	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, nil, util.LogError(&logger, "Output", err)
	}
	res.Size = buf.Len()
	logger.Info().Msgf("pdf rendered: %d pages, %d rows, %d bytes", res.Pages, res.PrintedRows, res.Size)
	return buf.Bytes(), res, nil
}
