package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore persists the roster snapshot as a YAML file. Writes go through
// a temp file plus rename so a crash mid-save never corrupts the roster.
//
// Concurrency: a mutex serializes Save calls; Load may run concurrently
// with Save because rename is atomic on POSIX filesystems.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore constructs a FileStore writing to path. Parent directories
// are created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Store. A missing file yields an empty snapshot.
func (s *FileStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("read roster file: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse roster file: %w", err)
	}
	return snap, nil
}

// Save implements Store.
func (s *FileStore) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create roster dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".roster-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp roster file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write roster file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close roster file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace roster file: %w", err)
	}
	return nil
}
