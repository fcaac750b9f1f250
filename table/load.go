package table

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/soderasen-au/go-common/util"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// Source is one uploaded file.
type Source struct {
	Name   string
	Reader io.Reader
}

type FileType string

const (
	FILE_TYPE_CSV  FileType = "csv"
	FILE_TYPE_XLSX FileType = "xlsx"
	FILE_TYPE_XLSM FileType = "xlsm"
)

func (f FileType) IsCsv() bool {
	return f == FILE_TYPE_CSV
}

func (f FileType) IsExcel() bool {
	return f == FILE_TYPE_XLSX || f == FILE_TYPE_XLSM
}

func (f FileType) IsValid() bool {
	return f.IsCsv() || f.IsExcel()
}

func FileTypeOf(name string) FileType {
	return FileType(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."))
}

// Load parses a CSV or Excel upload. The first record is the header.
func Load(name string, r io.Reader) (*Table, *util.Result) {
	ft := FileTypeOf(name)
	var (
		records [][]string
		res     *util.Result
	)
	switch {
	case ft.IsCsv():
		records, res = readCsv(r)
	case ft.IsExcel():
		records, res = readExcel(r)
	default:
		return nil, util.MsgError("Load", fmt.Sprintf("unsupported file type '%s' of %s, expect csv, xlsx or xlsm", ft, name))
	}
	if res != nil {
		return nil, res.With(fmt.Sprintf("Load(%s)", name))
	}

	return fromRecords(name, records), nil
}

func fromRecords(name string, records [][]string) *Table {
	if len(records) == 0 {
		return &Table{Name: name}
	}

	t := &Table{Name: name, Columns: Headers(records[0])}
	t.Rows = make([][]string, 0, len(records)-1)
	// blank records are rows; only empty lines are skipped by the csv reader
	for _, rec := range records[1:] {
		t.AppendRow(rec)
	}
	return t
}

func readCsv(r io.Reader) ([][]string, *util.Result) {
	reader := gocsv.LazyCSVReader(r)
	if cr, ok := reader.(*csv.Reader); ok {
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = false
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, util.Error("ReadCsv", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func readExcel(r io.Reader) ([][]string, *util.Result) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, util.Error("OpenReader", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, util.Error("GetRows", err)
	}
	return rows, nil
}

// LoadAll parses every source concurrently; results keep upload order.
func LoadAll(ctx context.Context, sources []Source) ([]*Table, *util.Result) {
	tables := make([]*Table, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return util.Error(fmt.Sprintf("Load(%s)", src.Name), err)
			}
			t, res := Load(src.Name, src.Reader)
			if res != nil {
				return res
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if res, ok := err.(*util.Result); ok {
			return nil, res.With("LoadAll")
		}
		return nil, util.Error("LoadAll", err)
	}
	return tables, nil
}
