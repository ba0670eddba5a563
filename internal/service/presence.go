package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tenderboard/tenderboard/internal/models"
)

// presenceTTL is the inactivity window after which a session is considered
// offline.
const presenceTTL = 5 * time.Minute

// PresenceTracker is the in-memory registry of active sessions. Identity is
// supplied by the caller, not verified. State lives only for the lifetime
// of the process; that is acceptable because presence is ephemeral by
// definition. One mutex guards the whole registry, which stays small.
type PresenceTracker struct {
	mu      sync.Mutex
	entries map[string]models.PresenceEntry

	// now is injectable for tests.
	now func() time.Time
}

// NewPresenceTracker constructs an empty registry.
func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		entries: make(map[string]models.PresenceEntry),
		now:     time.Now,
	}
}

// Heartbeat inserts the entry or replaces the existing one for its UserID,
// stamping LastActivity with the current time. Expired entries are swept
// first.
func (p *PresenceTracker) Heartbeat(entry models.PresenceEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweepLocked()
	entry.LastActivity = p.now()
	p.entries[entry.UserID] = entry
}

// Logout removes the user's entry immediately, regardless of how recent
// its last activity was.
func (p *PresenceTracker) Logout(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweepLocked()
	delete(p.entries, userID)
}

// List sweeps expired entries and returns the remaining ones, in no
// particular order.
func (p *PresenceTracker) List() []models.PresenceEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweepLocked()
	out := make([]models.PresenceEntry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e)
	}
	return out
}

// sweepLocked drops every entry idle for longer than the TTL. Callers must
// hold mu.
func (p *PresenceTracker) sweepLocked() {
	cutoff := p.now().Add(-presenceTTL)
	for id, e := range p.entries {
		if e.LastActivity.Before(cutoff) {
			delete(p.entries, id)
		}
	}
}

// StartSweeper runs the expiry sweep on a ticker until ctx is done. The
// inline sweep already keeps reads consistent; this keeps the registry from
// holding stale entries across idle periods.
func StartSweeper(ctx context.Context, p *PresenceTracker, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				before := len(p.List())
				log.Debug("presence sweep", zap.Int("active", before))
			}
		}
	}()
}
