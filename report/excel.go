package report

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"
	"github.com/xuri/excelize/v2"

	"github.com/soderasen-au/go-sheetmerge/layout"
	"github.com/soderasen-au/go-sheetmerge/table"
)

const (
	EXCEL_SHEET_NAME = "data"
	// points per excel character width
	EXCEL_CHAR_WIDTH = 6.0
)

type ExcelExporter struct {
	ReportPrinterBase
	Colors  HeaderColors
	Options layout.Options
	excel   *excelize.File
}

func NewExcelExporter(colors HeaderColors, opts layout.Options, logger *zerolog.Logger) *ExcelExporter {
	p := &ExcelExporter{Colors: colors, Options: opts}
	p.Logger = logger
	p.Options.MaybeDefault()
	return p
}

func allBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

func (p *ExcelExporter) headerStyle(fill ARGBColor) (int, *util.Result) {
	style := &excelize.Style{
		Border:    allBorders(),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}
	fill.AssignBgStyle(style)
	style.Font.Bold = true
	id, err := p.excel.NewStyle(style)
	if err != nil {
		return 0, util.Error("NewStyle", err)
	}
	return id, nil
}

// printHeader writes the two header rows and merges them like the PDF report.
func (p *ExcelExporter) printHeader(sheet string, grid [][]string, logger *zerolog.Logger) *util.Result {
	fill, dark := p.Colors.resolve()
	styleId, res := p.headerStyle(fill)
	if res != nil {
		return res.With("headerStyle")
	}
	darkStyleId, res := p.headerStyle(dark)
	if res != nil {
		return res.With("headerStyle(dark)")
	}

	for _, hc := range layout.HeaderCells(grid[0], grid[1]) {
		startCell, err := excelize.CoordinatesToCellName(hc.Col+1, hc.Row+1)
		if err != nil {
			return util.Error("CoordinatesToCellName", err)
		}
		endCell, err := excelize.CoordinatesToCellName(hc.Col+hc.Cols, hc.Row+hc.Rows)
		if err != nil {
			return util.Error("CoordinatesToCellName", err)
		}

		if hc.IsSpan() {
			if err = p.excel.MergeCell(sheet, startCell, endCell); err != nil {
				logger.Err(err).Msgf("MergeCell %s:%s", startCell, endCell)
				return util.Error("MergeCell", err)
			}
			logger.Debug().Msgf("merged %s:%s: %s", startCell, endCell, hc.Text)
		}
		if err = p.excel.SetCellStr(sheet, startCell, hc.Text); err != nil {
			return util.Error("SetCellStr", err)
		}
		id := styleId
		if hc.Dark {
			id = darkStyleId
		}
		if err = p.excel.SetCellStyle(sheet, startCell, endCell, id); err != nil {
			return util.Error("SetCellStyle", err)
		}
	}
	return nil
}

func (p *ExcelExporter) printBody(sheet string, grid [][]string) *util.Result {
	styleId, err := p.excel.NewStyle(&excelize.Style{Border: allBorders(), Alignment: &excelize.Alignment{Vertical: "top", WrapText: true}})
	if err != nil {
		return util.Error("NewStyle", err)
	}

	for ri, row := range grid[layout.HeaderRows:] {
		cell, err := excelize.CoordinatesToCellName(1, ri+layout.HeaderRows+1)
		if err != nil {
			return util.Error("CoordinatesToCellName", err)
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err = p.excel.SetSheetRow(sheet, cell, &values); err != nil {
			return util.Error("SetSheetRow", err)
		}
	}

	if len(grid) > layout.HeaderRows && len(grid[0]) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, layout.HeaderRows+1)
		last, _ := excelize.CoordinatesToCellName(len(grid[0]), len(grid))
		if err = p.excel.SetCellStyle(sheet, first, last, styleId); err != nil {
			return util.Error("SetCellStyle", err)
		}
	}
	return nil
}

func (p *ExcelExporter) setColWidths(sheet string, grid [][]string) *util.Result {
	for ci, w := range layout.ColumnWidths(grid, p.Options) {
		colName, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return util.Error("ColumnNumberToName", err)
		}
		if err = p.excel.SetColWidth(sheet, colName, colName, w/EXCEL_CHAR_WIDTH); err != nil {
			return util.Error("SetColWidth", err)
		}
	}
	return nil
}

func (p *ExcelExporter) Export(t *table.Table, w io.Writer) (*ReportResult, *util.Result) {
	logger := p.logger().With().Str("export", "xlsx").Str("table", t.Name).Logger()
	if t.NumCols() == 0 {
		return nil, util.LogMsgError(&logger, "Export", "no columns to export")
	}

	p.excel = excelize.NewFile()
	defer func() {
		p.excel.Close()
		p.excel = nil
	}()
	if err := p.excel.SetSheetName(p.excel.GetSheetName(0), EXCEL_SHEET_NAME); err != nil {
		return nil, util.LogError(&logger, "SetSheetName", err)
	}

	grid := layout.BuildGrid(t)
	if res := p.printHeader(EXCEL_SHEET_NAME, grid, &logger); res != nil {
		return nil, res.LogWith(&logger, "printHeader")
	}
	if res := p.printBody(EXCEL_SHEET_NAME, grid); res != nil {
		return nil, res.LogWith(&logger, "printBody")
	}
	if res := p.setColWidths(EXCEL_SHEET_NAME, grid); res != nil {
		return nil, res.LogWith(&logger, "setColWidths")
	}

	n, err := p.excel.WriteTo(w)
	if err != nil {
		return nil, util.LogError(&logger, "WriteTo", err)
	}

	logger.Info().Msgf("exported %d rows, %d columns (%d bytes)", t.NumRows(), t.NumCols(), n)
	return &ReportResult{
		Format:      REPORT_FORMAT_XLSX,
		PrintedRows: t.NumRows(),
		Columns:     t.NumCols(),
		Size:        int(n),
		Logger:      &logger,
	}, nil
}
