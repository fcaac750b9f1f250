package artifact

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/soderasen-au/go-common/util"
)

const (
	AUDIT_EXPORT = "export"
	AUDIT_REPORT = "report"
)

// AuditRecord is one line of the audit csv.
type AuditRecord struct {
	Timestamp  string `csv:"Timestamp"`
	SessionID  string `csv:"SessionId"`
	RemoteAddr string `csv:"IpAddr"`
	Action     string `csv:"Cmd"`
	Format     string `csv:"Format"`
	FileName   string `csv:"FileName"`
	FileSize   int    `csv:"FileSize"`
	TotalRows  int    `csv:"TotalRows"`
}

func NewAuditRecord(now time.Time, sessionID, remoteAddr, action, format string) AuditRecord {
	return AuditRecord{
		Timestamp:  now.Format(time.RFC3339),
		SessionID:  sessionID,
		RemoteAddr: remoteAddr,
		Action:     action,
		Format:     format,
	}
}

// AuditLog appends records to a csv file, writing the header once.
type AuditLog struct {
	fileName string
	fd       *os.File
	empty    bool
	mu       sync.Mutex
}

func NewAuditLog(fn string) (*AuditLog, *util.Result) {
	auditLog := &AuditLog{}
	if res := auditLog.OpenFile(fn); res != nil {
		return nil, res.With("OpenFile")
	}
	return auditLog, nil
}

func (audit *AuditLog) OpenFile(fn string) *util.Result {
	if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
		return util.Error("MkdirAll", err)
	}
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return util.Error("OpenFile", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return util.Error("Stat", err)
	}

	audit.fileName = fn
	audit.fd = f
	audit.empty = info.Size() == 0
	return nil
}

func (audit *AuditLog) FileName() string {
	return audit.fileName
}

func (audit *AuditLog) Record(r AuditRecord) *util.Result {
	if audit == nil {
		return nil
	}
	audit.mu.Lock()
	defer audit.mu.Unlock()
	if audit.fd == nil {
		return util.MsgError("Record", "audit log is closed")
	}

	records := []*AuditRecord{&r}
	var err error
	if audit.empty {
		err = gocsv.Marshal(records, audit.fd)
	} else {
		err = gocsv.MarshalWithoutHeaders(records, audit.fd)
	}
	if err != nil {
		return util.Error("WriteRecord", err)
	}
	audit.empty = false
	return nil
}

func (audit *AuditLog) Close() {
	if audit == nil {
		return
	}
	audit.mu.Lock()
	defer audit.mu.Unlock()
	if audit.fd != nil {
		audit.fd.Close()
		audit.fd = nil
	}
}
