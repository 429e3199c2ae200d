// Package memory holds the in-process identifier -> target store.
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/relay/internal/domain"
)

// ErrDuplicateID is returned when Insert would replace a live entry.
var ErrDuplicateID = errors.New("identifier already registered")

// Store is the concurrent, TTL-aware map of registrations.
//
// A single mutex guards the whole map. Insert and Lookup are O(1); Prune
// scans every entry, so its cost grows with the live set. An index ordered
// by expiry would make Prune proportional to the number of expired entries;
// the map stays small enough in practice that the scan is fine for now.
type Store struct {
	mu      sync.Mutex
	entries map[uuid.UUID]domain.ProxyEntry
	now     func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[uuid.UUID]domain.ProxyEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert registers target under id for ttl.
// An expired leftover with the same id is replaced; a live one is not.
func (s *Store) Insert(id uuid.UUID, target string, ttl time.Duration) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[id]; ok && existing.Live(now) {
		return ErrDuplicateID
	}

	s.entries[id] = domain.ProxyEntry{
		ID:        id,
		Target:    target,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

// Get returns a copy of the entry for id if it is still live.
// Expired entries are reported as absent even before a sweep removes them.
func (s *Store) Get(id uuid.UUID) (domain.ProxyEntry, bool) {
	now := s.now()

	s.mu.Lock()
	entry, ok := s.entries[id]
	s.mu.Unlock()

	if !ok || !entry.Live(now) {
		return domain.ProxyEntry{}, false
	}
	return entry, true
}

// Lookup returns the target for id if it is still live.
func (s *Store) Lookup(id uuid.UUID) (string, bool) {
	entry, ok := s.Get(id)
	if !ok {
		return "", false
	}
	return entry.Target, true
}

// Prune removes every entry with ExpiresAt <= now and returns how many went.
func (s *Store) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if !entry.Live(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of held entries, including expired ones that
// have not been pruned yet.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
