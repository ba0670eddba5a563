// Package service provides the business logic of the synchronization and
// audit core: snapshot sync, audit logging, presence tracking, and file
// storage, delegating persistence to repository interfaces.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tenderboard/tenderboard/internal/apperrors"
	"github.com/tenderboard/tenderboard/internal/models"
)

// SnapshotRepository defines the persistence operations needed by the
// SyncService.
type SnapshotRepository interface {
	// Load returns the current snapshot, or the defined empty snapshot
	// when nothing has been persisted yet.
	Load() (models.DatasetSnapshot, error)
	// Save atomically replaces the stored snapshot.
	Save(snap models.DatasetSnapshot) error
}

// SyncService implements dataset synchronization between dashboard clients
// and the single server-side snapshot.
//
// The conflict policy is last-writer-wins at whole-snapshot granularity:
// Push replaces the stored snapshot with the candidate as-is, with no merge
// and no conflict detection. Two clients racing to push will silently drop
// one client's changes; that behavior is part of the contract and must not
// be upgraded to a merge scheme without changing the client protocol.
type SyncService struct {
	repo SnapshotRepository
	// now is injectable for tests.
	now func() time.Time
}

// NewSyncService constructs a SyncService with the provided repository.
func NewSyncService(repo SnapshotRepository) *SyncService {
	return &SyncService{repo: repo, now: time.Now}
}

// Pull returns the current snapshot unmodified. It fails only when the
// underlying store cannot be read.
func (s *SyncService) Pull(ctx context.Context) (models.DatasetSnapshot, error) {
	return s.repo.Load()
}

// Push stamps the candidate with the write time and source tag and replaces
// the stored snapshot with it. The call that completes its store write last
// wins. Returns the stored snapshot.
func (s *SyncService) Push(ctx context.Context, candidate models.DatasetSnapshot, source string) (models.DatasetSnapshot, error) {
	if candidate.Tenders == nil {
		candidate.Tenders = []models.Tender{}
	}
	if candidate.Users == nil {
		candidate.Users = []models.User{}
	}
	candidate.LastUpdated = s.now()
	candidate.UpdateSource = source

	if err := s.repo.Save(candidate); err != nil {
		return models.DatasetSnapshot{}, err
	}
	return candidate, nil
}

// SetCompanyLogo reads the full snapshot, replaces settings.companyLogo,
// and pushes the result. Still a whole-snapshot replacement underneath, so
// the Push race applies.
func (s *SyncService) SetCompanyLogo(ctx context.Context, logo, source string) error {
	snap, err := s.repo.Load()
	if err != nil {
		return err
	}
	snap.Settings.CompanyLogo = logo
	_, err = s.Push(ctx, snap, source)
	return err
}

// SetUserPassword reads the full snapshot, replaces the named user's
// password, and pushes the result. An unknown username reports not-found.
func (s *SyncService) SetUserPassword(ctx context.Context, username, password, source string) error {
	snap, err := s.repo.Load()
	if err != nil {
		return err
	}
	found := false
	for i := range snap.Users {
		if snap.Users[i].Username == username {
			snap.Users[i].Password = password
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("user %q: %w", username, apperrors.ErrNotFound)
	}
	_, err = s.Push(ctx, snap, source)
	return err
}
