package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tenderboard/tenderboard/internal/apperrors"
	"github.com/tenderboard/tenderboard/internal/models"
)

// maxUploadBytes bounds the multipart form memory buffer; larger uploads
// spill to disk per net/http semantics.
const maxUploadBytes = 32 << 20

// FileService defines the interface for attachment storage required by the
// FilesHandler.
type FileService interface {
	// Put stores content with its metadata and returns the completed
	// metadata including the generated id.
	Put(ctx context.Context, content []byte, meta models.FileMetadata) (models.FileMetadata, error)
	// Get returns content and metadata for id, or apperrors.ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, models.FileMetadata, error)
	// List enumerates stored files.
	List(ctx context.Context) ([]models.FileMetadata, error)
}

// FilesHandler handles HTTP requests for uploaded attachments.
type FilesHandler struct {
	FileService FileService
	Log         *zap.Logger
}

// Upload handles POST /api/files multipart requests. The file travels in
// the "file" form field; "fileType" and "tenderId" are optional tags.
// Responds with the stored id and its retrieval URL.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.Log.Error("read upload failed", zap.Error(err))
		http.Error(w, "failed to read upload", http.StatusInternalServerError)
		return
	}

	meta := models.FileMetadata{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		FileType: r.FormValue("fileType"),
		TenderID: r.FormValue("tenderId"),
	}
	if meta.MimeType == "" {
		meta.MimeType = "application/octet-stream"
	}

	stored, err := h.FileService.Put(r.Context(), content, meta)
	if err != nil {
		h.Log.Error("store upload failed", zap.Error(err), zap.String("filename", meta.Filename))
		http.Error(w, "failed to store file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":  stored.ID,
		"url": "/api/files/" + stored.ID,
	})
}

// Download handles GET /api/files/{id} requests, writing the stored bytes
// with the stored content type and a disposition carrying the original
// filename.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	content, meta, err := h.FileService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		h.Log.Error("read stored file failed", zap.Error(err), zap.String("id", id))
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", meta.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", meta.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(content)))
	_, _ = w.Write(content)
}

// List handles GET /api/files requests, enumerating stored files for
// administrative use.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.FileService.List(r.Context())
	if err != nil {
		h.Log.Error("list stored files failed", zap.Error(err))
		http.Error(w, "failed to list files", http.StatusInternalServerError)
		return
	}
	if files == nil {
		files = []models.FileMetadata{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"files": files})
}
