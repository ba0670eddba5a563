package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tenderboard/tenderboard/internal/models"
)

// FileAuditRepository persists the audit entry sequence as one JSON array
// file, oldest entry first. The AuditService serializes calls, so the
// repository itself carries no lock.
type FileAuditRepository struct {
	path string
}

// NewFileAuditRepository creates a repository storing the audit log at
// dir/changelog.json. The directory is created if needed.
func NewFileAuditRepository(dir string) (*FileAuditRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileAuditRepository{path: filepath.Join(dir, "changelog.json")}, nil
}

// LoadAll reads the persisted entries in append order. A missing file
// yields an empty sequence.
func (r *FileAuditRepository) LoadAll() ([]models.AuditEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.AuditEntry{}, nil
		}
		return nil, fmt.Errorf("read audit log %s: %w", r.path, err)
	}
	var entries []models.AuditEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode audit log %s: %w", r.path, err)
	}
	return entries, nil
}

// SaveAll atomically replaces the persisted sequence.
func (r *FileAuditRepository) SaveAll(entries []models.AuditEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}
	return writeFileAtomic(r.path, data)
}
