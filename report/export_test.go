package report

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/soderasen-au/go-common/loggers"
	"github.com/xuri/excelize/v2"

	"github.com/soderasen-au/go-sheetmerge/layout"
	"github.com/soderasen-au/go-sheetmerge/table"
)

func sampleTable() *table.Table {
	return table.New("merged", []string{"ID", "Group", "Unnamed: 2", "Others 1", "Note"}, [][]string{
		{"", "g1", "g2", "", "sub"},
		{"1", "a, with comma", "b", "x", "line \"quoted\""},
		{"2", "c", "", "y", ""},
	})
}

func TestCsvExport(t *testing.T) {
	var buf bytes.Buffer
	res, r := NewCsvExporter(loggers.CoreDebugLogger).Export(sampleTable(), &buf)
	if r != nil {
		t.Fatalf("Export() failed: %v", r)
	}
	if res.PrintedRows != 3 {
		t.Errorf("printed rows = %d", res.PrintedRows)
	}

	firstLine := strings.SplitN(buf.String(), "\n", 2)[0]
	if firstLine != "ID,Group, ,Others 1,Note" {
		t.Errorf("header = %q", firstLine)
	}
}

func TestCsvExportRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]string
		csv     string
	}{
		{"Sample", sampleTable().Columns, sampleTable().Rows, ""},
		{"BlankSubHeader", []string{"ID", "A", "B"}, [][]string{{"", "", ""}, {"1", "x", "y"}, {"2", "z", "w"}}, "ID,A,B\n,,\n1,x,y\n2,z,w\n"},
		{"BlankBodyRow", []string{"ID", "A"}, [][]string{{"1", "x"}, {"", ""}, {"3", "z"}}, ""},
		{"SingleColumn", []string{"ID"}, [][]string{{"1"}, {""}, {"3"}}, "ID\n1\n\"\"\n3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if _, r := NewCsvExporter(loggers.CoreDebugLogger).Export(table.New("view", tt.columns, tt.rows), &buf); r != nil {
				t.Fatalf("Export() failed: %v", r)
			}
			if tt.csv != "" && buf.String() != tt.csv {
				t.Errorf("csv = %q, want %q", buf.String(), tt.csv)
			}

			back, r := table.Load("filtered_data.csv", bytes.NewReader(buf.Bytes()))
			if r != nil {
				t.Fatalf("Load() failed: %v", r)
			}
			if !reflect.DeepEqual(back.Rows, tt.rows) {
				t.Errorf("round trip rows = %q, want %q", back.Rows, tt.rows)
			}
		})
	}
}

func TestExcelExport(t *testing.T) {
	var buf bytes.Buffer
	p := NewExcelExporter(DefaultHeaderColors(), layout.DefaultOptions(), loggers.CoreDebugLogger)
	res, r := p.Export(sampleTable(), &buf)
	if r != nil {
		t.Fatalf("Export() failed: %v", r)
	}
	if res.Size != buf.Len() {
		t.Errorf("size = %d, buffer = %d", res.Size, buf.Len())
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(EXCEL_SHEET_NAME)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "ID" || rows[0][1] != "Group" || rows[2][1] != "a, with comma" {
		t.Errorf("unexpected content %v", rows)
	}

	merged, err := f.GetMergeCells(EXCEL_SHEET_NAME)
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]bool)
	for _, m := range merged {
		got[m.GetStartAxis()+":"+m.GetEndAxis()] = true
	}
	for _, want := range []string{"A1:A2", "B1:C1", "D1:D2"} {
		if !got[want] {
			t.Errorf("missing merged range %s in %v", want, got)
		}
	}
}

func TestPdfPrint(t *testing.T) {
	params := DefaultParams()
	params.Title = "Monthly report"
	params.Team = "Team A 2024-01-01"
	params.ConfirmedBy = "Lead"
	params.Note = "first point - second point"

	p := NewPdfReportPrinter(PdfConfig{LogoPath: "missing-logo.jpg", Colors: DefaultHeaderColors()}, loggers.CoreDebugLogger)
	data, res, r := p.Print(sampleTable(), params)
	if r != nil {
		t.Fatalf("Print() failed: %v", r)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output is not a pdf")
	}
	if res.TablePages != 1 || res.Pages != 1 || res.PrintedRows != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestPdfPrintPages(t *testing.T) {
	columns := []string{"ID", "A", "B", "C"}
	rows := [][]string{{"", "", "", ""}}
	for i := 0; i < 25; i++ {
		rows = append(rows, []string{"k", strings.Repeat("long text ", 6), "b", "c"})
	}
	for i := 0; i < 12; i++ {
		columns = append(columns, "extra")
		for r := range rows {
			rows[r] = append(rows[r], strings.Repeat("wide value ", 5))
		}
	}
	tb := table.New("wide", table.Headers(columns), rows)

	params := DefaultParams()
	params.Note = "note"
	params.RowsPerPage = 10
	_, res, r := NewPdfReportPrinter(PdfConfig{}, nil).Print(tb, params)
	if r != nil {
		t.Fatalf("Print() failed: %v", r)
	}
	// 25 body rows over 10 per page, several column pages
	if res.TablePages%3 != 0 || res.TablePages < 6 {
		t.Errorf("table pages = %d", res.TablePages)
	}
	if res.Pages < res.TablePages {
		t.Errorf("pages = %d < table pages %d", res.Pages, res.TablePages)
	}
}

func TestPdfPrintRejectsEmptyNote(t *testing.T) {
	if _, _, r := NewPdfReportPrinter(PdfConfig{}, nil).Print(sampleTable(), DefaultParams()); r == nil {
		t.Error("Print() with empty note should fail")
	}
}
