package server

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-sheetmerge/artifact"
	"github.com/soderasen-au/go-sheetmerge/merge"
	"github.com/soderasen-au/go-sheetmerge/report"
	"github.com/soderasen-au/go-sheetmerge/session"
	"github.com/soderasen-au/go-sheetmerge/table"
)

const (
	UPLOAD_FIELD     = "files"
	ARTIFACT_BASE    = "output"
	ARTIFACT_ROUTE   = "/api/artifacts/"
	NoUploadsMessage = "Please upload files to start merging and filtering data."
)

type ErrorBody struct {
	Error   string         `json:"error"`
	Notices []merge.Notice `json:"notices,omitempty"`
}

type ColumnsRequest struct {
	Columns []string `json:"columns"`
	Reorder bool     `json:"reorder,omitempty"`
}

type CellRequest struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

func fail(status int, res *util.Result) error {
	return fiber.NewError(status, res.Error())
}

func (s *Server) lookup(c *fiber.Ctx) (*session.Session, error) {
	id := c.Params("id")
	sess, ok := s.Sessions.Get(id)
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("session '%s' not found", id))
	}
	return sess, nil
}

func readUpload(fh *multipart.FileHeader) (table.Source, error) {
	f, err := fh.Open()
	if err != nil {
		return table.Source{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return table.Source{}, err
	}
	return table.Source{Name: fh.Filename, Reader: bytes.NewReader(data)}, nil
}

// createSession parses the uploads, merges them and opens a session on the result.
func (s *Server) createSession(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	files := form.File[UPLOAD_FIELD]
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, NoUploadsMessage)
	}

	sources := make([]table.Source, 0, len(files))
	for _, fh := range files {
		src, err := readUpload(fh)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s: %s", fh.Filename, err.Error()))
		}
		sources = append(sources, src)
	}

	tables, res := table.LoadAll(c.UserContext(), sources)
	if res != nil {
		return fail(fiber.StatusBadRequest, res)
	}

	merged, res := merge.NewMerger(s.Logger).Merge(tables)
	if res != nil {
		body := ErrorBody{Error: res.Error()}
		if merged != nil {
			body.Notices = merged.Notices
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	}

	sess := s.Sessions.Create()
	if res = sess.Load(merged); res != nil {
		s.Sessions.Delete(sess.ID)
		return fail(fiber.StatusInternalServerError, res)
	}
	return c.Status(fiber.StatusCreated).JSON(sess.State())
}

func (s *Server) getSession(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(sess.State())
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if !s.Sessions.Delete(id) {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("session '%s' not found", id))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) applyFilter(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}
	var f session.FilterSpec
	if err = c.BodyParser(&f); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if res := sess.ApplyFilter(f); res != nil {
		return fail(fiber.StatusBadRequest, res)
	}
	return c.JSON(sess.State())
}

func (s *Server) setColumns(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}
	var req ColumnsRequest
	if err = c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	var res *util.Result
	if req.Reorder {
		res = sess.ReorderColumns(req.Columns)
	} else {
		res = sess.SelectColumns(req.Columns)
	}
	if res != nil {
		return fail(fiber.StatusBadRequest, res)
	}
	return c.JSON(sess.State())
}

func (s *Server) resetColumns(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}
	sess.ResetColumns()
	return c.JSON(sess.State())
}

func (s *Server) editCell(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}
	var req CellRequest
	if err = c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if res := sess.EditCell(req.Row, req.Column, req.Value); res != nil {
		return fail(fiber.StatusBadRequest, res)
	}
	return c.JSON(sess.State())
}

// export downloads the current view as csv or xlsx.
func (s *Server) export(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}
	format, res := report.ParseFormat(c.Query("format", string(report.REPORT_FORMAT_CSV)))
	if res != nil {
		return fail(fiber.StatusBadRequest, res)
	}
	if format.IsPdf() {
		return fiber.NewError(fiber.StatusBadRequest, "pdf reports are rendered with POST /report")
	}
	view, res := sess.View()
	if res != nil {
		return fail(fiber.StatusBadRequest, res)
	}

	var buf bytes.Buffer
	var rr *report.ReportResult
	if format.IsExcel() {
		rr, res = report.NewExcelExporter(s.Config.Report.Colors, s.Config.Report.Layout, sess.Logger).Export(view, &buf)
	} else {
		rr, res = report.NewCsvExporter(sess.Logger).Export(view, &buf)
	}
	if res != nil {
		return fail(fiber.StatusInternalServerError, res)
	}

	record := artifact.NewAuditRecord(time.Now(), sess.ID, c.IP(), artifact.AUDIT_EXPORT, string(format))
	record.FileName, record.FileSize, record.TotalRows = format.ExportFileName(), buf.Len(), rr.PrintedRows
	s.audit(record)

	c.Attachment(format.ExportFileName())
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(buf.Bytes())
}

func (s *Server) link(key string) (string, *util.Result) {
	token, res := s.Signer.Sign(key)
	if res != nil {
		return "", res
	}
	return strings.TrimSuffix(s.Config.Artifacts.BaseURL, "/") + ARTIFACT_ROUTE + token, nil
}

// renderReport prints the view as PDF, keeps a copy in the artifact store
// and returns the document with a signed link to the stored copy.
func (s *Server) renderReport(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}
	var params report.Params
	if len(c.Body()) > 0 {
		if err = c.BodyParser(&params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	defaults := s.Config.Report.Defaults
	params.MaybeDefault(defaults)
	if params.Confidential == "" {
		params.Confidential = defaults.Confidential
	}
	if res := params.Validate(); res != nil {
		return fail(fiber.StatusBadRequest, res)
	}

	view, res := sess.View()
	if res != nil {
		return fail(fiber.StatusBadRequest, res)
	}
	data, rr, res := report.NewPdfReportPrinter(s.Config.Report.PdfConfig(), sess.Logger).Print(view, params)
	if res != nil {
		return fail(fiber.StatusInternalServerError, res)
	}

	stored, res := s.Artifacts.Put(ARTIFACT_BASE, string(report.REPORT_FORMAT_PDF), data, time.Now())
	if res != nil {
		return fail(fiber.StatusInternalServerError, res)
	}
	link, res := s.link(stored.Key)
	if res != nil {
		return fail(fiber.StatusInternalServerError, res)
	}

	record := artifact.NewAuditRecord(stored.CreatedAt, sess.ID, c.IP(), artifact.AUDIT_REPORT, string(report.REPORT_FORMAT_PDF))
	record.FileName, record.FileSize, record.TotalRows = stored.Key, int(stored.Size), rr.PrintedRows
	s.audit(record)

	c.Set(ARTIFACT_LINK_HEADER, link)
	c.Attachment(report.REPORT_FORMAT_PDF.ExportFileName())
	c.Set(fiber.HeaderContentType, report.REPORT_FORMAT_PDF.ContentType())
	return c.Send(data)
}

func (s *Server) download(c *fiber.Ctx) error {
	claim, res := s.Signer.Verify(c.Params("token"))
	if res != nil {
		return fiber.NewError(fiber.StatusForbidden, "invalid or expired link")
	}
	rc, stored, res := s.Artifacts.Open(claim.File)
	if res != nil {
		return fail(fiber.StatusNotFound, res)
	}
	c.Attachment(report.REPORT_FORMAT_PDF.ExportFileName())
	c.Set(fiber.HeaderContentType, report.REPORT_FORMAT_PDF.ContentType())
	return c.SendStream(rc, int(stored.Size))
}
