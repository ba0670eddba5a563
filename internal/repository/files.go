package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tenderboard/tenderboard/internal/apperrors"
	"github.com/tenderboard/tenderboard/internal/models"
)

// FileRepository stores uploaded attachments under an uploads directory as
// a content file named by id plus a .json metadata sidecar. An id resolves
// only when both halves exist.
type FileRepository struct {
	dir string
}

// NewFileRepository creates a repository rooted at dir/uploads.
func NewFileRepository(dir string) (*FileRepository, error) {
	uploads := filepath.Join(dir, "uploads")
	if err := os.MkdirAll(uploads, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir %s: %w", uploads, err)
	}
	return &FileRepository{dir: uploads}, nil
}

// Put persists content and its metadata sidecar as a pair. The sidecar is
// written first; if the content write fails the sidecar is removed so no
// dangling half remains.
func (r *FileRepository) Put(content []byte, meta models.FileMetadata) error {
	metaPath := r.metaPath(meta.ID)
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata for %s: %w", meta.ID, err)
	}
	if err := writeFileAtomic(metaPath, data); err != nil {
		return err
	}
	if err := writeFileAtomic(r.contentPath(meta.ID), content); err != nil {
		os.Remove(metaPath)
		return err
	}
	return nil
}

// Get returns the content and metadata for id. If either half is missing
// the id is reported as apperrors.ErrNotFound, never as a partial result.
func (r *FileRepository) Get(id string) ([]byte, models.FileMetadata, error) {
	var meta models.FileMetadata
	metaData, err := os.ReadFile(r.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, meta, apperrors.ErrNotFound
		}
		return nil, meta, fmt.Errorf("read metadata for %s: %w", id, err)
	}
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, meta, fmt.Errorf("decode metadata for %s: %w", id, err)
	}
	content, err := os.ReadFile(r.contentPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.FileMetadata{}, apperrors.ErrNotFound
		}
		return nil, models.FileMetadata{}, fmt.Errorf("read content for %s: %w", id, err)
	}
	return content, meta, nil
}

// Delete removes both halves of the stored file. Deleting an unknown id
// reports apperrors.ErrNotFound.
func (r *FileRepository) Delete(id string) error {
	metaErr := os.Remove(r.metaPath(id))
	contentErr := os.Remove(r.contentPath(id))
	if os.IsNotExist(metaErr) && os.IsNotExist(contentErr) {
		return apperrors.ErrNotFound
	}
	if metaErr != nil && !os.IsNotExist(metaErr) {
		return fmt.Errorf("remove metadata for %s: %w", id, metaErr)
	}
	if contentErr != nil && !os.IsNotExist(contentErr) {
		return fmt.Errorf("remove content for %s: %w", id, contentErr)
	}
	return nil
}

// List enumerates the metadata of every completely stored file, skipping
// entries whose content half is missing.
func (r *FileRepository) List() ([]models.FileMetadata, error) {
	dirEntries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read uploads dir %s: %w", r.dir, err)
	}
	var out []models.FileMetadata
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if _, err := os.Stat(r.contentPath(id)); err != nil {
			continue
		}
		data, err := os.ReadFile(r.metaPath(id))
		if err != nil {
			continue
		}
		var meta models.FileMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		out = append(out, meta)
	}
	return out, nil
}

func (r *FileRepository) contentPath(id string) string {
	return filepath.Join(r.dir, filepath.Base(id))
}

func (r *FileRepository) metaPath(id string) string {
	return filepath.Join(r.dir, filepath.Base(id)+".json")
}
