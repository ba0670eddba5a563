package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tenderboard/tenderboard/internal/models"
)

// maxAuditEntries is the hard cap on the persisted audit sequence; the
// oldest entries are dropped once the cap is exceeded. Independent of the
// manual age-based Prune.
const maxAuditEntries = 10000

// AuditRepository defines the persistence operations needed by the
// AuditService.
type AuditRepository interface {
	// LoadAll returns every persisted entry in append order.
	LoadAll() ([]models.AuditEntry, error)
	// SaveAll atomically replaces the persisted sequence.
	SaveAll(entries []models.AuditEntry) error
}

// AuditService keeps the append-only audit log: append with automatic
// size capping, filtered and paginated retrieval, and age-based pruning.
// The in-memory sequence mirrors the persisted file and is kept in append
// order; all calls are serialized by one mutex so id generation stays
// collision-free and the cap stays accurate.
type AuditService struct {
	repo AuditRepository

	mu      sync.Mutex
	entries []models.AuditEntry

	// now is injectable for tests.
	now func() time.Time
}

// NewAuditService constructs an AuditService and loads the persisted
// sequence into memory.
func NewAuditService(repo AuditRepository) (*AuditService, error) {
	entries, err := repo.LoadAll()
	if err != nil {
		return nil, err
	}
	return &AuditService{repo: repo, entries: entries, now: time.Now}, nil
}

// Append assigns an id and server timestamp to the entry, appends it, trims
// the sequence to the cap, and persists. A persistence failure is surfaced
// to the caller without retry; the in-memory sequence is rolled back so it
// keeps mirroring the durable file.
func (s *AuditService) Append(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = uuid.NewString()
	entry.Timestamp = s.now()

	next := append(s.entries, entry)
	if len(next) > maxAuditEntries {
		next = next[len(next)-maxAuditEntries:]
	}
	if err := s.repo.SaveAll(next); err != nil {
		return models.AuditEntry{}, err
	}
	s.entries = next
	return entry, nil
}

// Query returns one page of entries matching the filter, newest first.
// Total counts all matches before pagination; HasMore reports whether
// offset+limit < Total.
func (s *AuditService) Query(ctx context.Context, filter models.AuditFilter, limit, offset int) (models.AuditQueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// End date is inclusive through the end of its calendar day.
	endCutoff := filter.EndDate
	if !endCutoff.IsZero() {
		y, m, d := endCutoff.Date()
		endCutoff = time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), endCutoff.Location())
	}

	// Entries are stored in append order with non-decreasing timestamps,
	// so walking backwards yields timestamp-descending order with ties
	// broken newest-appended first.
	matched := make([]models.AuditEntry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.Entity != "" && e.Entity != filter.Entity {
			continue
		}
		if !filter.StartDate.IsZero() && e.Timestamp.Before(filter.StartDate) {
			continue
		}
		if !endCutoff.IsZero() && e.Timestamp.After(endCutoff) {
			continue
		}
		matched = append(matched, e)
	}

	total := len(matched)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}
	page := []models.AuditEntry{}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		page = matched[offset:end]
	}
	return models.AuditQueryResult{
		Entries: page,
		Total:   total,
		HasMore: offset+limit < total,
	}, nil
}

// Prune removes every entry older than now minus maxAgeDays and persists
// the remainder. Returns the number of removed entries. Irreversible;
// authorization is the caller's responsibility.
func (s *AuditService) Prune(ctx context.Context, maxAgeDays int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().AddDate(0, 0, -maxAgeDays)
	kept := make([]models.AuditEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.repo.SaveAll(kept); err != nil {
		return 0, err
	}
	s.entries = kept
	return removed, nil
}
