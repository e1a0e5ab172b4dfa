package memory

import (
	"sync"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
)

// DefaultCapacity is the retention bound used when none is configured.
const DefaultCapacity = 500

// Store keeps records newest-first with a bounded capacity.
type Store struct {
	mu sync.RWMutex
	// newest first
	order []*domain.Record
	items map[string]*domain.Record

	maxRequests int
}

func NewStore(maxRequests int) *Store {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &Store{
		order:       make([]*domain.Record, 0, minInt(maxRequests, 64)),
		items:       make(map[string]*domain.Record, minInt(maxRequests, 64)),
		maxRequests: maxRequests,
	}
}

func (s *Store) Insert(rec *domain.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.items[rec.ID]; ok {
		// ids are unique; a duplicate replaces the previous slot
		s.removeLocked(old)
	}
	s.order = append(s.order, nil)
	copy(s.order[1:], s.order)
	s.order[0] = rec
	s.items[rec.ID] = rec
	return s.evictLocked()
}

func (s *Store) Update(id string, fn func(rec *domain.Record)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[id]
	if !ok {
		return false
	}
	fn(rec)
	return true
}

func (s *Store) Get(id string) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.items[id]; ok {
		return rec.Clone(), true
	}
	return domain.Record{}, false
}

func (s *Store) List() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Record, len(s.order))
	for i, rec := range s.order {
		out[i] = rec.Clone()
	}
	return out
}

// Clear removes all records; capacity is kept.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*domain.Record, len(s.items))
	s.order = s.order[:0]
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) Capacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxRequests
}

func (s *Store) SetCapacity(n int) int {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxRequests = n
	return s.evictLocked()
}

func (s *Store) FailStale(cutoff int64, now int64, msg string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, rec := range s.order {
		if rec.StartTime < cutoff && rec.Fail(msg, now) {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

// evictLocked drops the oldest records until the bound holds.
func (s *Store) evictLocked() int {
	evicted := 0
	for len(s.order) > s.maxRequests {
		last := s.order[len(s.order)-1]
		s.order[len(s.order)-1] = nil
		s.order = s.order[:len(s.order)-1]
		delete(s.items, last.ID)
		evicted++
	}
	return evicted
}

func (s *Store) removeLocked(rec *domain.Record) {
	delete(s.items, rec.ID)
	for i, r := range s.order {
		if r == rec {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
