package usecase

import (
	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
)

// RequestRepository is the Retention Store contract. Records are addressed by
// id only; positions shift as newer records are inserted ahead of older ones.
type RequestRepository interface {
	// Insert places rec at the front and returns how many records were evicted.
	Insert(rec *domain.Record) int
	// Update runs fn on the stored record under the store lock.
	// It returns false when the id is no longer present.
	Update(id string, fn func(rec *domain.Record)) bool
	Get(id string) (domain.Record, bool)
	// List returns a deep copy, newest first.
	List() []domain.Record
	Clear()
	Count() int
	Capacity() int
	// SetCapacity applies a new bound (floor 1) and returns the eviction count.
	SetCapacity(n int) int
	// FailStale fails every in-flight record started before cutoff and returns their ids.
	FailStale(cutoff int64, now int64, msg string) []string
}

// Observer receives the full snapshot after store changes.
type Observer func(records []domain.Record)

// CallbackID identifies a registered Observer.
type CallbackID uint64
