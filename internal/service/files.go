package service

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tenderboard/tenderboard/internal/models"
)

// FileRepository defines the persistence operations needed by the
// FileService.
type FileRepository interface {
	// Put persists content and its metadata sidecar as a pair.
	Put(content []byte, meta models.FileMetadata) error
	// Get returns both halves of the stored file, or
	// apperrors.ErrNotFound if either is missing.
	Get(id string) ([]byte, models.FileMetadata, error)
	// Delete removes both halves.
	Delete(id string) error
	// List enumerates the metadata of every completely stored file.
	List() ([]models.FileMetadata, error)
}

// FileService stores uploaded attachments. Ids are generated uuids carrying
// the original filename's extension so the id doubles as a download name.
// The store imposes no size limit of its own; callers enforce policy before
// uploading.
type FileService struct {
	repo FileRepository
	// now is injectable for tests.
	now func() time.Time
}

// NewFileService constructs a FileService with the provided repository.
func NewFileService(repo FileRepository) *FileService {
	return &FileService{repo: repo, now: time.Now}
}

// Put generates an id, fills in the server-side metadata fields, and
// persists content plus sidecar. Returns the completed metadata.
func (s *FileService) Put(ctx context.Context, content []byte, meta models.FileMetadata) (models.FileMetadata, error) {
	meta.ID = uuid.NewString() + filepath.Ext(meta.Filename)
	meta.Size = int64(len(content))
	meta.UploadedAt = s.now()
	if err := s.repo.Put(content, meta); err != nil {
		return models.FileMetadata{}, err
	}
	return meta, nil
}

// Get returns the stored content and metadata for id.
func (s *FileService) Get(ctx context.Context, id string) ([]byte, models.FileMetadata, error) {
	return s.repo.Get(id)
}

// Delete removes the stored file. Administrative use only.
func (s *FileService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(id)
}

// List enumerates stored files for diagnostic and administrative use.
func (s *FileService) List(ctx context.Context) ([]models.FileMetadata, error) {
	return s.repo.List()
}
