// Package memory implements the match repository on process memory. Each
// match occupies its own slot guarded by its own mutex, so mutations of the
// same match serialize while unrelated matches never block each other.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/frops/sportmanager/internal/domain"
	"github.com/frops/sportmanager/internal/repository"
)

type slot struct {
	mu      sync.Mutex
	match   *domain.Match
	deleted bool
}

// Store holds match slots behind an index map. The index lock only covers
// slot lookup and insertion/removal; per-match work happens under the slot
// lock.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

var _ repository.MatchRepository = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{slots: make(map[string]*slot)}
}

// CreateMatch inserts the match under its id.
func (s *Store) CreateMatch(ctx context.Context, match *domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[match.ID] = &slot{match: match.Clone()}
	return nil
}

// GetMatchByID returns a snapshot of the match.
func (s *Store) GetMatchByID(ctx context.Context, id string) (*domain.Match, error) {
	sl, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.deleted {
		return nil, repository.ErrNotFound
	}
	return sl.match.Clone(), nil
}

// MutateMatch runs fn against a working copy under the slot lock. The stored
// match is replaced only when fn succeeds, so a rejected mutation leaves no
// partial state behind.
func (s *Store) MutateMatch(ctx context.Context, id string, fn func(*domain.Match) error) (*domain.Match, error) {
	sl, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.deleted {
		return nil, repository.ErrNotFound
	}
	working := sl.match.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	sl.match = working
	return working.Clone(), nil
}

// DeleteMatch removes the slot entirely. The deleted marker stops a caller
// that already looked the slot up from mutating a detached match.
func (s *Store) DeleteMatch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[id]
	if !ok {
		return repository.ErrNotFound
	}
	sl.mu.Lock()
	sl.deleted = true
	sl.mu.Unlock()
	delete(s.slots, id)
	return nil
}

// ListMatches snapshots every match ordered by scheduled time ascending.
func (s *Store) ListMatches(ctx context.Context) ([]domain.Match, error) {
	s.mu.RLock()
	slots := make([]*slot, 0, len(s.slots))
	for _, sl := range s.slots {
		slots = append(slots, sl)
	}
	s.mu.RUnlock()

	matches := make([]domain.Match, 0, len(slots))
	for _, sl := range slots {
		sl.mu.Lock()
		if !sl.deleted {
			matches = append(matches, *sl.match.Clone())
		}
		sl.mu.Unlock()
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ScheduledAt.Before(matches[j].ScheduledAt)
	})
	return matches, nil
}

func (s *Store) lookup(id string) (*slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return sl, nil
}
