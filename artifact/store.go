package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"
)

const (
	DEFAULT_ROOT = "merge"
	// file names are <base>_<time>_<milliseconds>.<ext>
	TIME_LAYOUT = "2006-01-02_15-04-05"
	// retries with a random suffix when a name is taken
	MAX_NAME_ATTEMPTS = 5
)

// Artifact is a stored report document.
type Artifact struct {
	Key       string    `json:"key" yaml:"key"`
	Path      string    `json:"-" yaml:"-"`
	Size      int64     `json:"size" yaml:"size"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Store keeps generated documents as flat files under Root.
type Store struct {
	Root   string
	Logger *zerolog.Logger
}

func NewStore(root string, logger *zerolog.Logger) *Store {
	if root == "" {
		root = DEFAULT_ROOT
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{Root: root, Logger: logger}
}

// FileName builds the stored name of a document created at now.
func FileName(base, ext string, now time.Time) string {
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("%s_%s_%03d.%s", base, now.Format(TIME_LAYOUT), now.Nanosecond()/int(time.Millisecond), ext)
}

// uniqueFileName is FileName with a short random suffix.
func uniqueFileName(base, ext string, now time.Time) string {
	name := FileName(base, ext, now)
	dot := strings.LastIndex(name, ".")
	return name[:dot] + "_" + uuid.NewString()[:8] + name[dot:]
}

// ValidateKey rejects keys that would leave the store root.
func ValidateKey(key string) *util.Result {
	if key == "" || key == "." || key == ".." {
		return util.MsgError("ValidateKey", "artifact key is required")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") || filepath.Base(key) != key {
		return util.MsgError("ValidateKey", fmt.Sprintf("invalid artifact key '%s'", key))
	}
	return nil
}

func (s *Store) resolve(key string) (string, *util.Result) {
	if res := ValidateKey(key); res != nil {
		return "", res
	}
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", util.Error("Abs", err)
	}
	return filepath.Join(root, key), nil
}

// Put writes data atomically: the bytes go to a temp file in Root which is
// then linked to its final name. An existing document is never replaced; a
// taken name gets a random suffix.
func (s *Store) Put(base, ext string, data []byte, now time.Time) (*Artifact, *util.Result) {
	key := FileName(base, ext, now)
	logger := s.Logger.With().Str("artifact", key).Logger()

	pathOnDisk, res := s.resolve(key)
	if res != nil {
		return nil, res.LogWith(&logger, "resolve")
	}
	dir := filepath.Dir(pathOnDisk)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, util.LogError(&logger, "MkdirAll", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return nil, util.LogError(&logger, "CreateTemp", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, bytes.NewReader(data))
	if err != nil {
		return nil, util.LogError(&logger, "Copy", err)
	}
	if err = tmp.Sync(); err != nil {
		return nil, util.LogError(&logger, "Sync", err)
	}
	if err = tmp.Close(); err != nil {
		return nil, util.LogError(&logger, "Close", err)
	}
	for attempt := 1; ; attempt++ {
		err = os.Link(tmp.Name(), pathOnDisk)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) || attempt >= MAX_NAME_ATTEMPTS {
			return nil, util.LogError(&logger, "Link", err)
		}
		key = uniqueFileName(base, ext, now)
		if pathOnDisk, res = s.resolve(key); res != nil {
			return nil, res.LogWith(&logger, "resolve")
		}
	}

	logger.Info().Str("key", key).Msgf("stored %d bytes at %s", size, pathOnDisk)
	return &Artifact{Key: key, Path: pathOnDisk, Size: size, CreatedAt: now}, nil
}

// Open returns the stored document; the caller closes it.
func (s *Store) Open(key string) (io.ReadCloser, *Artifact, *util.Result) {
	pathOnDisk, res := s.resolve(key)
	if res != nil {
		return nil, nil, res.With("Open")
	}
	f, err := os.Open(pathOnDisk)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, util.MsgError("Open", fmt.Sprintf("artifact '%s' not found", key))
		}
		return nil, nil, util.Error("Open", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, util.Error("Stat", err)
	}
	return f, &Artifact{Key: key, Path: pathOnDisk, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

func (s *Store) Delete(key string) *util.Result {
	pathOnDisk, res := s.resolve(key)
	if res != nil {
		return res.With("Delete")
	}
	if err := os.Remove(pathOnDisk); err != nil && !os.IsNotExist(err) {
		return util.Error("Remove", err)
	}
	return nil
}

// Exists reports whether key is stored.
func (s *Store) Exists(key string) (bool, *util.Result) {
	pathOnDisk, res := s.resolve(key)
	if res != nil {
		return false, res.With("Exists")
	}
	ok, err := util.Exists(pathOnDisk)
	if err != nil {
		return false, util.Error("Exists", err)
	}
	return ok, nil
}
