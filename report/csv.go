package report

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-sheetmerge/table"
)

// UnnamedHeaderText replaces generated "Unnamed" header names in exports.
const UnnamedHeaderText = " "

type CsvExporter struct {
	ReportPrinterBase
}

func NewCsvExporter(logger *zerolog.Logger) *CsvExporter {
	p := &CsvExporter{}
	p.Logger = logger
	return p
}

// ExportHeader returns the header record of an exported view.
func ExportHeader(columns []string) []string {
	record := make([]string, len(columns))
	for i, c := range columns {
		if table.IsUnnamed(c) {
			c = UnnamedHeaderText
		}
		record[i] = c
	}
	return record
}

// writeRecord quotes a lone empty field, which the csv writer would emit as
// an empty line that readers skip.
func writeRecord(writer gocsv.CSVWriter, w io.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return writer.Write(record)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\"\"\n")
	return err
}

func (p *CsvExporter) Export(t *table.Table, w io.Writer) (*ReportResult, *util.Result) {
	logger := p.logger().With().Str("export", "csv").Str("table", t.Name).Logger()

	writer := gocsv.DefaultCSVWriter(w)
	if err := writer.Write(ExportHeader(t.Columns)); err != nil {
		return nil, util.LogError(&logger, "WriteHeader", err)
	}
	for ri, row := range t.Rows {
		if err := writeRecord(writer, w, row); err != nil {
			logger.Error().Msgf("write row %d", ri)
			return nil, util.LogError(&logger, "WriteRow", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, util.LogError(&logger, "Flush", err)
	}

	logger.Info().Msgf("exported %d rows, %d columns", t.NumRows(), t.NumCols())
	return &ReportResult{
		Format:      REPORT_FORMAT_CSV,
		PrintedRows: t.NumRows(),
		Columns:     t.NumCols(),
		Logger:      &logger,
	}, nil
}
