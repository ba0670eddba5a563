package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/tenderboard/tenderboard/internal/models"
	"github.com/tenderboard/tenderboard/internal/repository"
	handler "github.com/tenderboard/tenderboard/internal/server/handler/http"
	"github.com/tenderboard/tenderboard/internal/service"
)

// newTestRouter wires real file-backed repositories under a temp dir.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	log := zap.NewNop()

	snapshotRepo, err := repository.NewFileSnapshotRepository(dir)
	if err != nil {
		t.Fatalf("snapshot repo: %v", err)
	}
	auditRepo, err := repository.NewFileAuditRepository(dir)
	if err != nil {
		t.Fatalf("audit repo: %v", err)
	}
	fileRepo, err := repository.NewFileRepository(dir)
	if err != nil {
		t.Fatalf("file repo: %v", err)
	}
	auditService, err := service.NewAuditService(auditRepo)
	if err != nil {
		t.Fatalf("audit service: %v", err)
	}

	return handler.NewRouter(
		&handler.SyncHandler{SyncService: service.NewSyncService(snapshotRepo), Log: log},
		&handler.ChangelogHandler{AuditService: auditService, Log: log},
		&handler.PresenceHandler{Registry: service.NewPresenceTracker()},
		&handler.FilesHandler{FileService: service.NewFileService(fileRepo), Log: log},
		log,
	)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterSyncPushThenPull(t *testing.T) {
	router := newTestRouter(t)

	push := doJSON(t, router, http.MethodPost, "/api/sync", map[string]any{
		"data": map[string]any{
			"tenders":  []map[string]any{{"id": "a", "title": "Road works"}, {"id": "b"}},
			"users":    []map[string]any{{"username": "alice"}},
			"settings": map[string]any{"companyName": "Acme"},
		},
		"source": "clientA",
	})
	if push.Code != http.StatusOK {
		t.Fatalf("push status = %d; body = %s", push.Code, push.Body.String())
	}
	var pushResp struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(push.Body).Decode(&pushResp); err != nil {
		t.Fatalf("decode push response: %v", err)
	}
	if pushResp.Count != 2 {
		t.Errorf("count = %d; want 2", pushResp.Count)
	}

	pull := doJSON(t, router, http.MethodGet, "/api/sync", nil)
	if pull.Code != http.StatusOK {
		t.Fatalf("pull status = %d", pull.Code)
	}
	var snap models.DatasetSnapshot
	if err := json.NewDecoder(pull.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Tenders) != 2 || snap.Tenders[0].Extra["title"] != "Road works" {
		t.Errorf("tenders = %+v; want the pushed records with their extra fields", snap.Tenders)
	}
	if snap.UpdateSource != "clientA" || snap.LastUpdated.IsZero() {
		t.Errorf("stamp = %q/%v; want clientA and a write time", snap.UpdateSource, snap.LastUpdated)
	}
	if snap.Settings.CompanyName != "Acme" {
		t.Errorf("settings = %+v; want companyName Acme", snap.Settings)
	}
}

func TestRouterChangelogAppendThenQuery(t *testing.T) {
	router := newTestRouter(t)

	appendResp := doJSON(t, router, http.MethodPost, "/api/changelog", map[string]any{
		"userId":   "u1",
		"username": "alice",
		"action":   "CREATE",
		"entity":   "TENDER",
		"entityId": "t1",
	})
	if appendResp.Code != http.StatusCreated {
		t.Fatalf("append status = %d; body = %s", appendResp.Code, appendResp.Body.String())
	}

	query := doJSON(t, router, http.MethodGet, "/api/changelog?userId=u1", nil)
	if query.Code != http.StatusOK {
		t.Fatalf("query status = %d", query.Code)
	}
	var result models.AuditQueryResult
	if err := json.NewDecoder(query.Body).Decode(&result); err != nil {
		t.Fatalf("decode query result: %v", err)
	}
	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("result = %+v; want exactly the appended entry", result)
	}
	if result.Entries[0].ID == "" || result.Entries[0].Timestamp.IsZero() {
		t.Errorf("entry = %+v; want assigned id and timestamp", result.Entries[0])
	}
}

func TestRouterRejectsNonJSONContentType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", bytes.NewBufferString("data=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d; want %d", w.Code, http.StatusUnsupportedMediaType)
	}
}

func TestRouterPresenceRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	hb := doJSON(t, router, http.MethodPost, "/api/online-users", map[string]any{
		"action": "heartbeat",
		"user":   map[string]any{"userId": "u1", "username": "alice"},
	})
	if hb.Code != http.StatusOK {
		t.Fatalf("heartbeat status = %d; body = %s", hb.Code, hb.Body.String())
	}

	list := doJSON(t, router, http.MethodGet, "/api/online-users", nil)
	var resp struct {
		Users []models.PresenceEntry `json:"users"`
	}
	if err := json.NewDecoder(list.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].UserID != "u1" {
		t.Fatalf("users = %+v; want u1 online", resp.Users)
	}

	logout := doJSON(t, router, http.MethodPost, "/api/online-users", map[string]any{
		"action": "logout",
		"userId": "u1",
	})
	if logout.Code != http.StatusOK {
		t.Fatalf("logout status = %d", logout.Code)
	}
	var after struct {
		Users []models.PresenceEntry `json:"users"`
	}
	if err := json.NewDecoder(logout.Body).Decode(&after); err != nil {
		t.Fatalf("decode logout response: %v", err)
	}
	if len(after.Users) != 0 {
		t.Errorf("users after logout = %+v; want none", after.Users)
	}
}
