// Package store holds the most recent detection and generation results for
// the lifetime of the process.
package store

import (
	"sync"

	"github.com/rohankatakam/devai/internal/models"
)

// Keyed is implemented by values addressable by id
type Keyed interface {
	Key() string
}

// Store keeps one result set. Replace swaps the whole set; readers always
// see either the previous or the next set, never a mix.
type Store[T Keyed] struct {
	mu    sync.RWMutex
	items []T
	index map[string]int
}

// New creates an empty store
func New[T Keyed]() *Store[T] {
	return &Store[T]{index: map[string]int{}}
}

// Replace discards the current contents and stores a copy of items. When two
// items share a key, Get returns the first.
func (s *Store[T]) Replace(items []T) {
	next := make([]T, len(items))
	copy(next, items)
	index := make(map[string]int, len(next))
	for i, item := range next {
		if _, dup := index[item.Key()]; !dup {
			index[item.Key()] = i
		}
	}

	s.mu.Lock()
	s.items = next
	s.index = index
	s.mu.Unlock()
}

// Get returns the item with the given key
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// List returns a copy of the current contents in insertion order
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of stored items
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// AnomalyStore holds the last detection run
type AnomalyStore = Store[models.Anomaly]

// NarrativeStore holds the last narrative generation run
type NarrativeStore = Store[models.TicketNarrative]

// NewAnomalyStore creates an empty anomaly store
func NewAnomalyStore() *AnomalyStore { return New[models.Anomaly]() }

// NewNarrativeStore creates an empty narrative store
func NewNarrativeStore() *NarrativeStore { return New[models.TicketNarrative]() }
