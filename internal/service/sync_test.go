package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tenderboard/tenderboard/internal/apperrors"
	"github.com/tenderboard/tenderboard/internal/models"
	"github.com/tenderboard/tenderboard/internal/repository"
	"github.com/tenderboard/tenderboard/internal/service"
)

type mockSnapshotRepo struct {
	LoadFunc func() (models.DatasetSnapshot, error)
	SaveFunc func(snap models.DatasetSnapshot) error
}

func (m *mockSnapshotRepo) Load() (models.DatasetSnapshot, error) {
	return m.LoadFunc()
}
func (m *mockSnapshotRepo) Save(snap models.DatasetSnapshot) error {
	return m.SaveFunc(snap)
}

func TestPullReturnsStoredSnapshot(t *testing.T) {
	want := models.DatasetSnapshot{
		Tenders:      []models.Tender{{ID: "a"}},
		Users:        []models.User{{Username: "alice"}},
		UpdateSource: "clientA",
	}
	repo := &mockSnapshotRepo{
		LoadFunc: func() (models.DatasetSnapshot, error) { return want, nil },
	}
	svc := service.NewSyncService(repo)
	got, err := svc.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if got.UpdateSource != "clientA" || len(got.Tenders) != 1 {
		t.Errorf("Pull = %+v; want stored snapshot unmodified", got)
	}
}

func TestPullLoadError(t *testing.T) {
	wantErr := errors.New("disk gone")
	repo := &mockSnapshotRepo{
		LoadFunc: func() (models.DatasetSnapshot, error) { return models.DatasetSnapshot{}, wantErr },
	}
	svc := service.NewSyncService(repo)
	if _, err := svc.Pull(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Pull error = %v; want %v", err, wantErr)
	}
}

func TestPushStampsAndReplaces(t *testing.T) {
	var saved models.DatasetSnapshot
	repo := &mockSnapshotRepo{
		SaveFunc: func(snap models.DatasetSnapshot) error {
			saved = snap
			return nil
		},
	}
	svc := service.NewSyncService(repo)

	before := time.Now()
	candidate := models.DatasetSnapshot{Tenders: []models.Tender{{ID: "a"}, {ID: "b"}}}
	stored, err := svc.Push(context.Background(), candidate, "clientA")
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	if stored.UpdateSource != "clientA" {
		t.Errorf("UpdateSource = %q; want clientA", stored.UpdateSource)
	}
	if stored.LastUpdated.Before(before) {
		t.Errorf("LastUpdated = %v; want >= %v", stored.LastUpdated, before)
	}
	if len(saved.Tenders) != 2 || saved.Tenders[0].ID != "a" {
		t.Errorf("saved tenders = %+v; want candidate's tenders", saved.Tenders)
	}
	if saved.Users == nil {
		t.Error("nil users must be normalized to an empty collection")
	}
}

func TestPushSaveError(t *testing.T) {
	wantErr := errors.New("disk full")
	repo := &mockSnapshotRepo{
		SaveFunc: func(models.DatasetSnapshot) error { return wantErr },
	}
	svc := service.NewSyncService(repo)
	if _, err := svc.Push(context.Background(), models.EmptySnapshot(), "x"); !errors.Is(err, wantErr) {
		t.Fatalf("Push error = %v; want %v", err, wantErr)
	}
}

func TestSetCompanyLogo(t *testing.T) {
	stored := models.DatasetSnapshot{
		Tenders:  []models.Tender{{ID: "a"}},
		Users:    []models.User{{Username: "alice"}},
		Settings: models.Settings{CompanyName: "Acme"},
	}
	repo := &mockSnapshotRepo{
		LoadFunc: func() (models.DatasetSnapshot, error) { return stored, nil },
		SaveFunc: func(snap models.DatasetSnapshot) error {
			stored = snap
			return nil
		},
	}
	svc := service.NewSyncService(repo)
	if err := svc.SetCompanyLogo(context.Background(), "data:image/png;base64,xyz", "admin-ui"); err != nil {
		t.Fatalf("SetCompanyLogo: %v", err)
	}
	if stored.Settings.CompanyLogo != "data:image/png;base64,xyz" {
		t.Errorf("CompanyLogo = %q; want the new logo", stored.Settings.CompanyLogo)
	}
	// Only the named field changes; the rest of the snapshot rides along.
	if stored.Settings.CompanyName != "Acme" || len(stored.Tenders) != 1 {
		t.Errorf("snapshot mutated beyond the logo: %+v", stored)
	}
	if stored.UpdateSource != "admin-ui" {
		t.Errorf("UpdateSource = %q; want admin-ui", stored.UpdateSource)
	}
}

func TestSetUserPassword(t *testing.T) {
	stored := models.DatasetSnapshot{
		Users: []models.User{{Username: "alice", Password: "old"}, {Username: "bob", Password: "b"}},
	}
	repo := &mockSnapshotRepo{
		LoadFunc: func() (models.DatasetSnapshot, error) { return stored, nil },
		SaveFunc: func(snap models.DatasetSnapshot) error {
			stored = snap
			return nil
		},
	}
	svc := service.NewSyncService(repo)
	if err := svc.SetUserPassword(context.Background(), "alice", "new", "settings-page"); err != nil {
		t.Fatalf("SetUserPassword: %v", err)
	}
	if stored.Users[0].Password != "new" {
		t.Errorf("alice password = %q; want new", stored.Users[0].Password)
	}
	if stored.Users[1].Password != "b" {
		t.Errorf("bob password = %q; must be untouched", stored.Users[1].Password)
	}
}

func TestSetUserPasswordUnknownUser(t *testing.T) {
	repo := &mockSnapshotRepo{
		LoadFunc: func() (models.DatasetSnapshot, error) { return models.EmptySnapshot(), nil },
		SaveFunc: func(models.DatasetSnapshot) error {
			t.Fatal("Save must not be called for an unknown user")
			return nil
		},
	}
	svc := service.NewSyncService(repo)
	err := svc.SetUserPassword(context.Background(), "nobody", "pw", "x")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("error = %v; want ErrNotFound", err)
	}
}

// TestConcurrentPushesNoTornWrite races two pushes against a real
// file-backed repository and asserts the surviving snapshot equals exactly
// one of the candidates, never a mixture.
func TestConcurrentPushesNoTornWrite(t *testing.T) {
	repo, err := repository.NewFileSnapshotRepository(t.TempDir())
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	svc := service.NewSyncService(repo)

	snapA := models.DatasetSnapshot{Tenders: []models.Tender{{ID: "a"}, {ID: "b"}}}
	snapB := models.DatasetSnapshot{Tenders: []models.Tender{{ID: "c"}}}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := svc.Push(context.Background(), snapA, "clientA"); err != nil {
			t.Errorf("push A: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := svc.Push(context.Background(), snapB, "clientB"); err != nil {
			t.Errorf("push B: %v", err)
		}
	}()
	wg.Wait()

	got, err := svc.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}

	ids := make([]string, len(got.Tenders))
	for i, tn := range got.Tenders {
		ids[i] = tn.ID
	}
	switch got.UpdateSource {
	case "clientA":
		if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
			t.Errorf("clientA won but tenders = %v; want [a b]", ids)
		}
	case "clientB":
		if len(ids) != 1 || ids[0] != "c" {
			t.Errorf("clientB won but tenders = %v; want [c]", ids)
		}
	default:
		t.Errorf("UpdateSource = %q; want clientA or clientB", got.UpdateSource)
	}
}
