package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tenderboard/tenderboard/internal/apperrors"
	"github.com/tenderboard/tenderboard/internal/models"
)

// AuditService defines the interface for audit log operations required by
// the ChangelogHandler.
type AuditService interface {
	// Append assigns id and timestamp and persists the entry.
	Append(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error)
	// Query returns one page of matching entries, newest first.
	Query(ctx context.Context, filter models.AuditFilter, limit, offset int) (models.AuditQueryResult, error)
	// Prune removes entries older than maxAgeDays and returns the count.
	Prune(ctx context.Context, maxAgeDays int) (int, error)
}

// ChangelogHandler handles HTTP requests for the audit log.
type ChangelogHandler struct {
	AuditService AuditService
	Log          *zap.Logger
}

// Query handles GET /api/changelog requests with optional limit, offset,
// userId, action, entity, startDate, and endDate query parameters. Dates
// are parsed as RFC 3339 or YYYY-MM-DD; endDate is inclusive through the
// end of its day.
func (h *ChangelogHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	filter := models.AuditFilter{
		UserID: q.Get("userId"),
		Action: models.AuditAction(q.Get("action")),
		Entity: models.AuditEntity(q.Get("entity")),
	}
	var err error
	if filter.StartDate, err = parseDate(q.Get("startDate")); err != nil {
		http.Error(w, "invalid startDate", http.StatusBadRequest)
		return
	}
	if filter.EndDate, err = parseDate(q.Get("endDate")); err != nil {
		http.Error(w, "invalid endDate", http.StatusBadRequest)
		return
	}

	result, err := h.AuditService.Query(r.Context(), filter, limit, offset)
	if err != nil {
		h.Log.Error("changelog query failed", zap.Error(err))
		http.Error(w, "failed to query changelog", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// Append handles POST /api/changelog requests. The body must carry userId,
// username, action, and entity; a missing field rejects the request with
// the list of required fields. IPAddress and UserAgent default from the
// request when the body omits them.
func (h *ChangelogHandler) Append(w http.ResponseWriter, r *http.Request) {
	var entry models.AuditEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	var missing []string
	if entry.UserID == "" {
		missing = append(missing, "userId")
	}
	if entry.Username == "" {
		missing = append(missing, "username")
	}
	if entry.Action == "" {
		missing = append(missing, "action")
	}
	if entry.Entity == "" {
		missing = append(missing, "entity")
	}
	if len(missing) > 0 {
		writeValidationError(w, &apperrors.ValidationError{Missing: missing})
		return
	}

	if entry.IPAddress == "" {
		entry.IPAddress = r.RemoteAddr
	}
	if entry.UserAgent == "" {
		entry.UserAgent = r.UserAgent()
	}

	stored, err := h.AuditService.Append(r.Context(), entry)
	if err != nil {
		h.Log.Error("changelog append failed", zap.Error(err))
		http.Error(w, "failed to append changelog entry", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(stored)
}

// Prune handles DELETE /api/changelog requests with an {isAdmin,
// daysToKeep} body. Requests without the admin flag are fully rejected
// before any entry is touched.
func (h *ChangelogHandler) Prune(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsAdmin    bool `json:"isAdmin"`
		DaysToKeep int  `json:"daysToKeep"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !req.IsAdmin {
		http.Error(w, "admin privileges required", http.StatusForbidden)
		return
	}

	removed, err := h.AuditService.Prune(r.Context(), req.DaysToKeep)
	if err != nil {
		h.Log.Error("changelog prune failed", zap.Error(err), zap.Int("daysToKeep", req.DaysToKeep))
		http.Error(w, "failed to prune changelog", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "removed": removed})
}

// parseDate accepts RFC 3339 timestamps or bare YYYY-MM-DD dates. An empty
// value yields the zero time and no error.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// writeValidationError writes a 400 response carrying the missing field
// list.
func writeValidationError(w http.ResponseWriter, ve *apperrors.ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":          ve.Error(),
		"requiredFields": ve.Missing,
	})
}
