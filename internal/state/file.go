package state

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/carlosatFroom/learning-system/internal/errs"
	"github.com/carlosatFroom/learning-system/internal/logger"
)

// DefaultPath is where the file store keeps its record when none is configured.
const DefaultPath = "data/sync_state.json"

// FileStore keeps the record in a small JSON file.
type FileStore struct {
	path string
	log  *logger.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by path. A nil log uses the global logger.
func NewFileStore(path string, log *logger.Logger) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	if log == nil {
		log = logger.Global()
	}
	return &FileStore{path: path, log: log.Component("state")}
}

// Load reads the record; a missing or corrupt file means never synced.
func (s *FileStore) Load(_ context.Context) State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.WarnWith("sync state unreadable, treating as never synced", err, map[string]interface{}{"path": s.path})
		}
		return State{}
	}

	st, err := decode(data)
	if err != nil {
		s.log.WarnWith("sync state corrupt, treating as never synced", err, map[string]interface{}{"path": s.path})
		return State{}
	}
	return st
}

// Save writes the record to a temp file in the same directory, syncs it and
// renames it over the old one, so readers never see a partial record.
func (s *FileStore) Save(_ context.Context, t time.Time) error {
	data, err := encode(t)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to encode sync state", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to create sync state directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to create temp sync state", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to write sync state", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to sync sync state", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to close sync state", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to replace sync state", err)
	}
	return nil
}

// Describe returns the file path.
func (s *FileStore) Describe() string {
	return "file:" + s.path
}
