// Package listeners keeps subscriber callbacks in registration order.
package listeners

import "sync"

type entry[T any] struct {
	id uint64
	fn T
}

// Set is an ordered set of live subscribers. The zero value is ready to use.
type Set[T any] struct {
	mu      sync.RWMutex
	entries []entry[T]
	nextID  uint64
}

// Add registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (s *Set[T]) Add(fn T) func() {
	s.mu.Lock()
	s.nextID++
	entryID := s.nextID
	s.entries = append(s.entries, entry[T]{id: entryID, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(entryID) })
	}
}

// Snapshot returns the live subscribers, oldest first
func (s *Set[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fns := make([]T, len(s.entries))
	for i, e := range s.entries {
		fns[i] = e.fn
	}
	return fns
}

// Len returns the number of live subscribers
func (s *Set[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Set[T]) remove(entryID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.id == entryID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}
