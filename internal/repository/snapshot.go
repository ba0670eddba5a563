// Package repository provides file-backed persistence for the dataset
// snapshot, the audit log, and uploaded attachments. Each persisted unit is
// replaced as a whole with an atomic rename so readers never observe a
// partially written file.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tenderboard/tenderboard/internal/models"
)

// FileSnapshotRepository persists the whole DatasetSnapshot as one JSON file.
// Saves are serialized; a failed save leaves the previous file untouched.
type FileSnapshotRepository struct {
	// path is the snapshot file location.
	path string
	// mu serializes writes so concurrent saves cannot interleave.
	mu sync.Mutex
}

// NewFileSnapshotRepository creates a repository storing the snapshot at
// dir/database.json. The directory is created if needed.
func NewFileSnapshotRepository(dir string) (*FileSnapshotRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileSnapshotRepository{path: filepath.Join(dir, "database.json")}, nil
}

// Load reads the current snapshot. A missing file is not an error: the
// defined empty snapshot is returned instead.
func (r *FileSnapshotRepository) Load() (models.DatasetSnapshot, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.EmptySnapshot(), nil
		}
		return models.DatasetSnapshot{}, fmt.Errorf("read snapshot %s: %w", r.path, err)
	}
	var snap models.DatasetSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.DatasetSnapshot{}, fmt.Errorf("decode snapshot %s: %w", r.path, err)
	}
	if snap.Tenders == nil {
		snap.Tenders = []models.Tender{}
	}
	if snap.Users == nil {
		snap.Users = []models.User{}
	}
	return snap, nil
}

// Save atomically replaces the stored snapshot: the new content is written
// to a temporary file in the same directory and renamed over the target, so
// a concurrent Load sees either the old or the new snapshot, never a mix.
func (r *FileSnapshotRepository) Save(snap models.DatasetSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeFileAtomic(r.path, data)
}

// writeFileAtomic writes data to path via a temp file and rename. The temp
// file is removed on any failure before the rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
