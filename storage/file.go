package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/tang-isab/swimlane-chart/domain"
)

// DefaultDataFile is where FileStore keeps the board unless configured.
const DefaultDataFile = "shared_project_data.json"

// FileStore keeps the snapshot as a pretty-printed JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultDataFile
	}
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return domain.Snapshot{}, ErrEmpty
	}
	if err != nil {
		return domain.Snapshot{}, wrapErr("load", "file", err)
	}
	var snap domain.Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, wrapErr("decode", "file", err)
	}
	return snap, nil
}

func (s *FileStore) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := sonic.ConfigStd.MarshalIndent(snap, "", "  ")
	if err != nil {
		return wrapErr("encode", "file", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return wrapErr("save", "file", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".board-*.json")
	if err != nil {
		return wrapErr("save", "file", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return wrapErr("save", "file", err)
	}
	if err := tmp.Close(); err != nil {
		return wrapErr("save", "file", err)
	}
	return wrapErr("save", "file", os.Rename(tmp.Name(), s.path))
}
