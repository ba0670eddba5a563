// Package http provides HTTP handlers for dataset synchronization.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tenderboard/tenderboard/internal/models"
)

// SyncService defines the interface for snapshot synchronization
// operations required by the SyncHandler.
type SyncService interface {
	// Pull returns the current dataset snapshot.
	Pull(ctx context.Context) (models.DatasetSnapshot, error)
	// Push replaces the stored snapshot with the candidate, stamping the
	// write time and source tag. Last completed write wins.
	Push(ctx context.Context, candidate models.DatasetSnapshot, source string) (models.DatasetSnapshot, error)
}

// SyncHandler handles HTTP requests for dataset synchronization.
type SyncHandler struct {
	SyncService SyncService
	Log         *zap.Logger
}

// Pull handles GET /api/sync requests and writes the current snapshot.
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	snap, err := h.SyncService.Pull(r.Context())
	if err != nil {
		h.Log.Error("pull snapshot failed", zap.Error(err))
		http.Error(w, "failed to load dataset", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

// Push handles POST /api/sync requests.
// It decodes a JSON body with "data" (the candidate snapshot) and "source",
// replaces the stored snapshot, and reports the stored record counts.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data   models.DatasetSnapshot `json:"data"`
		Source string                 `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Source == "" {
		req.Source = "unknown"
	}

	stored, err := h.SyncService.Push(r.Context(), req.Data, req.Source)
	if err != nil {
		h.Log.Error("push snapshot failed", zap.Error(err), zap.String("source", req.Source))
		http.Error(w, "failed to save dataset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"count":   len(stored.Tenders),
		"users":   len(stored.Users),
	})
}
