package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soderasen-au/go-sheetmerge/merge"
	"github.com/soderasen-au/go-sheetmerge/report"
	"github.com/soderasen-au/go-sheetmerge/session"
	"github.com/soderasen-au/go-sheetmerge/table"
)

type renderFlags struct {
	csvOut  string
	xlsxOut string
	pdfOut  string
	filter  string
	columns []string
	params  report.Params
}

func renderCmd() *cobra.Command {
	f := renderFlags{}
	cmd := &cobra.Command{
		Use:   "render <file> [file...]",
		Short: "Merge local files and write the view as csv, xlsx and/or pdf",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd, args, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.csvOut, "csv", "", "write the view as csv to this path")
	fl.StringVar(&f.xlsxOut, "xlsx", "", "write the view as xlsx to this path")
	fl.StringVar(&f.pdfOut, "pdf", "", "write the pdf report to this path")
	fl.StringVar(&f.filter, "filter", session.FILTER_ALL, "value of the filter column to keep")
	fl.StringSliceVar(&f.columns, "columns", nil, "columns to show, in order (default all)")
	fl.StringVar(&f.params.Title, "title", "", "report title")
	fl.StringVar(&f.params.Team, "team", "", "team and date shown in the page header")
	fl.StringVar(&f.params.ConfirmedBy, "confirmed-by", "", "name in the confirmation block")
	fl.StringVar(&f.params.SignatureDate, "date", "", "signature date")
	fl.StringVar(&f.params.Note, "note", "", "notes, paragraphs separated by '-'")
	fl.IntVar(&f.params.RowsPerPage, "rows", 0, "rows per page")
	fl.Float64Var(&f.params.FontSize, "font-size", 0, "body font size")
	return cmd
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func render(cmd *cobra.Command, args []string, f renderFlags) error {
	cfg, logger, err := setup("render.log")
	if err != nil {
		return err
	}
	if f.csvOut == "" && f.xlsxOut == "" && f.pdfOut == "" {
		return fmt.Errorf("nothing to write: use --csv, --xlsx or --pdf")
	}

	sources := make([]table.Source, 0, len(args))
	for _, path := range args {
		fp, err := os.Open(path)
		if err != nil {
			return err
		}
		defer fp.Close()
		sources = append(sources, table.Source{Name: filepath.Base(path), Reader: fp})
	}
	tables, res := table.LoadAll(context.Background(), sources)
	if res != nil {
		return res
	}

	merged, res := merge.NewMerger(logger).Merge(tables)
	if merged != nil {
		for _, n := range merged.Notices {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", n.Level, n.Message)
		}
	}
	if res != nil {
		return res
	}

	sess := session.New("cli", cfg.Session.FilterColumn, logger)
	if res = sess.Load(merged); res != nil {
		return res
	}
	if res = sess.ApplyFilter(session.FilterSpec{Value: f.filter}); res != nil {
		return res
	}
	if len(f.columns) > 0 {
		if res = sess.SelectColumns(f.columns); res != nil {
			return res
		}
	}
	view, res := sess.View()
	if res != nil {
		return res
	}

	if f.csvOut != "" {
		var buf bytes.Buffer
		if _, res = report.NewCsvExporter(logger).Export(view, &buf); res != nil {
			return res
		}
		if err = writeFile(f.csvOut, buf.Bytes()); err != nil {
			return err
		}
	}
	if f.xlsxOut != "" {
		var buf bytes.Buffer
		if _, res = report.NewExcelExporter(cfg.Report.Colors, cfg.Report.Layout, logger).Export(view, &buf); res != nil {
			return res
		}
		if err = writeFile(f.xlsxOut, buf.Bytes()); err != nil {
			return err
		}
	}
	if f.pdfOut != "" {
		params := f.params
		params.MaybeDefault(cfg.Report.Defaults)
		if params.Confidential == "" {
			params.Confidential = cfg.Report.Defaults.Confidential
		}
		data, rr, res := report.NewPdfReportPrinter(cfg.Report.PdfConfig(), logger).Print(view, params)
		if res != nil {
			return res
		}
		if err = writeFile(f.pdfOut, data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d rows\n", f.pdfOut, rr.Pages, rr.PrintedRows)
	}
	return nil
}
