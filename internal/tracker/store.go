package tracker

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// StateStore persists the serialized tracker state. Load returns nil data
// and no error when nothing was saved yet.
type StateStore interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStore keeps the state in a single JSON file, replaced atomically on
// every save.
type FileStore struct {
	path string
}

// NewFileStore 创建基于文件的状态存储
// NewFileStore returns a store backed by path.
func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("state file path is empty")
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return data, nil
}

func (s *FileStore) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// MemoryStore keeps the state in memory. It is used when persistence is
// disabled and in tests.
type MemoryStore struct {
	data  []byte
	Saves int
}

func (s *MemoryStore) Load() ([]byte, error) {
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryStore) Save(data []byte) error {
	s.data = append([]byte(nil), data...)
	s.Saves++
	return nil
}
