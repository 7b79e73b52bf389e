package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// MemoryStore is the in-process Store. Writers rebuild an ordered snapshot
// under the lock; readers of List use the snapshot without locking.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Entry

	snapshot atomic.Pointer[[]Entry]
	maxList  int
}

// NewMemoryStore constructs an empty registry with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:    make(map[string]Entry),
		maxList: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	empty := []Entry{}
	s.snapshot.Store(&empty)
	return s
}

// Add implements Store.Add.
func (s *MemoryStore) Add(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[e.ID]; ok {
		return ErrDuplicate
	}
	s.byID[e.ID] = e
	s.publishLocked()
	return nil
}

// Remove implements Store.Remove.
func (s *MemoryStore) Remove(ctx context.Context, id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	delete(s.byID, id)
	s.publishLocked()
	return e, nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// List implements Store.List from the last published snapshot.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 || limit > s.maxList {
		return nil, ErrInvalidLimit
	}
	snap := *s.snapshot.Load()
	if limit > len(snap) {
		limit = len(snap)
	}
	out := make([]Entry, limit)
	copy(out, snap[:limit])
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// MaxList is the largest limit List accepts.
func (s *MemoryStore) MaxList() int { return s.maxList }

// publishLocked rebuilds the ordered snapshot: oldest first, then by id.
func (s *MemoryStore) publishLocked() {
	entries := make([]Entry, 0, len(s.byID))
	for _, e := range s.byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].OpenedAt.Equal(entries[j].OpenedAt) {
			return entries[i].OpenedAt.Before(entries[j].OpenedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	s.snapshot.Store(&entries)
}
