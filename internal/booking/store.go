package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/barberq/internal/wizard"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("booking: session not found")

// Store keeps wizard snapshots for the lifetime of a page visit.
//
// ClaimSubmission atomically takes the session's booking claim for ttl and
// reports false when another submission already holds it. Every process sharing
// the store sees the same claim, so at most one booking is sent per session.
type Store interface {
	Load(ctx context.Context, id string) (wizard.Snapshot, error)
	Save(ctx context.Context, id string, snap wizard.Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	ClaimSubmission(ctx context.Context, id string, ttl time.Duration) (bool, error)
	ReleaseSubmission(ctx context.Context, id string) error
}

// MemoryStore is a process-local Store with per-entry expiry.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	claims  map[string]time.Time
	now     func() time.Time
}

type memoryEntry struct {
	snap      wizard.Snapshot
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		claims:  make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (wizard.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return wizard.Snapshot{}, ErrSessionNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, id)
		return wizard.Snapshot{}, ErrSessionNotFound
	}
	return e.snap, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, snap wizard.Snapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{snap: snap}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[id] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	delete(s.claims, id)
	return nil
}

func (s *MemoryStore) ClaimSubmission(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if until, held := s.claims[id]; held && now.Before(until) {
		return false, nil
	}
	s.claims[id] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) ReleaseSubmission(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, id)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	for id, until := range s.claims {
		if !now.Before(until) {
			delete(s.claims, id)
		}
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
