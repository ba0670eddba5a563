package http

import (
	"encoding/json"
	"net/http"

	"github.com/tenderboard/tenderboard/internal/models"
)

// PresenceRegistry defines the interface for the in-memory presence
// registry required by the PresenceHandler.
type PresenceRegistry interface {
	// Heartbeat inserts or refreshes the entry for its UserID.
	Heartbeat(entry models.PresenceEntry)
	// Logout removes the user's entry immediately.
	Logout(userID string)
	// List returns the active entries after sweeping expired ones.
	List() []models.PresenceEntry
}

// PresenceHandler handles HTTP requests for the online-users registry.
type PresenceHandler struct {
	Registry PresenceRegistry
}

// List handles GET /api/online-users requests.
func (h *PresenceHandler) List(w http.ResponseWriter, r *http.Request) {
	writePresence(w, h.Registry.List())
}

// Update handles POST /api/online-users requests with an
// {action: "heartbeat"|"logout", user|userId} body and responds with the
// updated registry.
func (h *PresenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string                `json:"action"`
		User   *models.PresenceEntry `json:"user"`
		UserID string                `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "heartbeat":
		if req.User == nil || req.User.UserID == "" {
			http.Error(w, "user with userId is required", http.StatusBadRequest)
			return
		}
		h.Registry.Heartbeat(*req.User)
	case "logout":
		userID := req.UserID
		if userID == "" && req.User != nil {
			userID = req.User.UserID
		}
		if userID == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}
		h.Registry.Logout(userID)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	writePresence(w, h.Registry.List())
}

func writePresence(w http.ResponseWriter, users []models.PresenceEntry) {
	if users == nil {
		users = []models.PresenceEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"users": users})
}
