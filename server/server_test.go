package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/soderasen-au/go-common/loggers"

	"github.com/soderasen-au/go-sheetmerge/config"
	"github.com/soderasen-au/go-sheetmerge/session"
)

const (
	leftCsv  = "ID,filter,V\n,kind,sub\n1,a,x\n2,b,y\n3,a,z\n"
	rightCsv = "ID,W\n,sub2\n2,p\n3,q\n4,r\n"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.System.OutputFolder = t.TempDir()
	cfg.System.AuditFile = filepath.Join(t.TempDir(), "audit.csv")
	cfg.Artifacts.SigningKey = "secret"
	s, res := New(cfg, loggers.CoreDebugLogger)
	if res != nil {
		t.Fatal(res)
	}
	t.Cleanup(s.Close)
	return s
}

func uploadRequest(t *testing.T, files map[string]string, order ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := w.CreateFormFile(UPLOAD_FIELD, name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(files[name]))
	}
	w.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func jsonRequest(method, url string, v interface{}) *http.Request {
	var body io.Reader
	if v != nil {
		data, _ := json.Marshal(v)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, url, body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func do(t *testing.T, s *Server, req *http.Request, wantStatus int) *http.Response {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != wantStatus {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s = %d, want %d: %s", req.Method, req.URL.Path, resp.StatusCode, wantStatus, data)
	}
	return resp
}

func decodeState(t *testing.T, resp *http.Response) session.State {
	t.Helper()
	var st session.State
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	return st
}

func createSession(t *testing.T, s *Server) session.State {
	t.Helper()
	req := uploadRequest(t, map[string]string{"a.csv": leftCsv, "b.csv": rightCsv}, "a.csv", "b.csv")
	return decodeState(t, do(t, s, req, fiber.StatusCreated))
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(t)
	st := createSession(t, s)
	if strings.Join(st.Columns, ",") != "ID,filter,V,W" || len(st.Rows) != 3 {
		t.Errorf("state = %+v", st)
	}
	if st.Options.Column != "filter" || !st.Options.Found {
		t.Errorf("filter options = %+v", st.Options)
	}

	got := decodeState(t, do(t, s, httptest.NewRequest(http.MethodGet, "/api/sessions/"+st.ID, nil), fiber.StatusOK))
	if got.ID != st.ID {
		t.Errorf("GET returned %s", got.ID)
	}
}

func TestCreateSessionErrors(t *testing.T) {
	s := newTestServer(t)

	dup := "ID,W\n,h\n2,p\n2,q\n"
	req := uploadRequest(t, map[string]string{"a.csv": leftCsv, "dup.csv": dup}, "a.csv", "dup.csv")
	do(t, s, req, fiber.StatusUnprocessableEntity)

	req = uploadRequest(t, map[string]string{"a.txt": "x"}, "a.txt")
	do(t, s, req, fiber.StatusBadRequest)

	req = uploadRequest(t, map[string]string{})
	do(t, s, req, fiber.StatusBadRequest)

	noKey := "Other,W\n,h\n2,p\n"
	req = uploadRequest(t, map[string]string{"a.csv": leftCsv, "nokey.csv": noKey}, "a.csv", "nokey.csv")
	st := decodeState(t, do(t, s, req, fiber.StatusCreated))
	if len(st.Notices) != 1 || !strings.Contains(st.Notices[0].Message, "Key column 'ID' not found in nokey.csv.") {
		t.Errorf("notices = %+v", st.Notices)
	}
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s).ID
	base := "/api/sessions/" + id

	st := decodeState(t, do(t, s, jsonRequest(http.MethodPost, base+"/filter", session.FilterSpec{Value: "a"}), fiber.StatusOK))
	if len(st.Rows) != 2 || st.Rows[1][0] != "3" {
		t.Errorf("filtered rows = %v", st.Rows)
	}

	st = decodeState(t, do(t, s, jsonRequest(http.MethodPut, base+"/columns", ColumnsRequest{Columns: []string{"W", "ID"}}), fiber.StatusOK))
	if strings.Join(st.Columns, ",") != "W,ID" {
		t.Errorf("columns = %v", st.Columns)
	}
	do(t, s, jsonRequest(http.MethodPut, base+"/columns", ColumnsRequest{Columns: []string{"ID", "W"}, Reorder: true}), fiber.StatusOK)
	do(t, s, jsonRequest(http.MethodPut, base+"/columns", ColumnsRequest{Columns: []string{"nope"}}), fiber.StatusBadRequest)

	st = decodeState(t, do(t, s, jsonRequest(http.MethodPatch, base+"/cells", CellRequest{Row: 1, Column: "W", Value: "edited"}), fiber.StatusOK))
	if st.Rows[1][1] != "edited" {
		t.Errorf("edited rows = %v", st.Rows)
	}
	do(t, s, jsonRequest(http.MethodPatch, base+"/cells", CellRequest{Row: 9, Column: "W"}), fiber.StatusBadRequest)

	resp := do(t, s, httptest.NewRequest(http.MethodGet, base+"/export?format=csv", nil), fiber.StatusOK)
	if !strings.Contains(resp.Header.Get(fiber.HeaderContentDisposition), "filtered_data.csv") {
		t.Errorf("disposition = %s", resp.Header.Get(fiber.HeaderContentDisposition))
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(data), "ID,W\n") || !strings.Contains(string(data), "3,edited") {
		t.Errorf("csv = %q", data)
	}

	resp = do(t, s, httptest.NewRequest(http.MethodGet, base+"/export?format=xlsx", nil), fiber.StatusOK)
	if !strings.Contains(resp.Header.Get(fiber.HeaderContentDisposition), "filtered_data.xlsx") {
		t.Errorf("disposition = %s", resp.Header.Get(fiber.HeaderContentDisposition))
	}
	do(t, s, httptest.NewRequest(http.MethodGet, base+"/export?format=pdf", nil), fiber.StatusBadRequest)

	st = decodeState(t, do(t, s, jsonRequest(http.MethodDelete, base+"/columns", nil), fiber.StatusOK))
	if len(st.Columns) != 4 {
		t.Errorf("reset columns = %v", st.Columns)
	}

	do(t, s, jsonRequest(http.MethodPut, base+"/columns", ColumnsRequest{Columns: []string{}}), fiber.StatusOK)
	resp = do(t, s, httptest.NewRequest(http.MethodGet, base+"/export", nil), fiber.StatusBadRequest)
	data, _ = io.ReadAll(resp.Body)
	if !strings.Contains(string(data), session.NoColumnsMessage) {
		t.Errorf("error = %s", data)
	}

	do(t, s, httptest.NewRequest(http.MethodDelete, base, nil), fiber.StatusNoContent)
	do(t, s, httptest.NewRequest(http.MethodGet, base, nil), fiber.StatusNotFound)
}

func TestReportAndDownload(t *testing.T) {
	s := newTestServer(t)
	base := "/api/sessions/" + createSession(t, s).ID

	resp := do(t, s, jsonRequest(http.MethodPost, base+"/report", map[string]string{"note": ""}), fiber.StatusBadRequest)
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "The text area cannot be empty!") {
		t.Errorf("error = %s", data)
	}

	resp = do(t, s, jsonRequest(http.MethodPost, base+"/report", map[string]string{"title": "Report", "note": "one - two"}), fiber.StatusOK)
	data, _ = io.ReadAll(resp.Body)
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("report is not a pdf")
	}
	if !strings.Contains(resp.Header.Get(fiber.HeaderContentDisposition), "output.pdf") {
		t.Errorf("disposition = %s", resp.Header.Get(fiber.HeaderContentDisposition))
	}

	link := resp.Header.Get(ARTIFACT_LINK_HEADER)
	if !strings.HasPrefix(link, ARTIFACT_ROUTE) {
		t.Fatalf("link = %q", link)
	}
	resp = do(t, s, httptest.NewRequest(http.MethodGet, link, nil), fiber.StatusOK)
	stored, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(stored, data) {
		t.Errorf("stored artifact differs: %d vs %d bytes", len(stored), len(data))
	}

	do(t, s, httptest.NewRequest(http.MethodGet, link+"x", nil), fiber.StatusForbidden)

	audit, err := os.ReadFile(s.Config.System.AuditFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(audit), ",report,pdf,output_") {
		t.Errorf("audit = %s", audit)
	}
	do(t, s, jsonRequest(http.MethodPost, "/api/sessions/unknown/report", map[string]string{"note": "n"}), fiber.StatusNotFound)
}
