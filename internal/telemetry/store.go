package telemetry

import (
	"sync"
	"time"
)

// Topic is a read-only view of one topic in a Store.
type Topic struct {
	Name    string
	Slot    *Slot
	Count   int
	Updated time.Time
}

type topicState struct {
	slot    *Slot
	count   int
	updated time.Time
}

// Store keeps the latest snapshot per topic in first-seen order. It is safe
// for one writer and any number of readers.
type Store struct {
	mu     sync.RWMutex
	order  []string
	topics map[string]*topicState
	max    int
}

// NewStore returns a store bounded to max topics; max <= 0 means unbounded.
func NewStore(max int) *Store {
	return &Store{topics: make(map[string]*topicState), max: max}
}

// Add publishes m into its topic's slot. When the store is full the least
// recently updated topic is dropped and its name returned.
func (s *Store) Add(m Message) (evicted string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.topics[m.Topic]; ok {
		st.slot.Store(m)
		st.count++
		st.updated = m.Timestamp
		return ""
	}

	if s.max > 0 && len(s.order) >= s.max {
		evicted = s.evictLocked()
	}
	s.topics[m.Topic] = &topicState{slot: NewSlot(m), count: 1, updated: m.Timestamp}
	s.order = append(s.order, m.Topic)
	return evicted
}

func (s *Store) evictLocked() string {
	oldest := 0
	for i, name := range s.order {
		if s.topics[name].updated.Before(s.topics[s.order[oldest]].updated) {
			oldest = i
		}
	}
	name := s.order[oldest]
	delete(s.topics, name)
	s.order = append(s.order[:oldest], s.order[oldest+1:]...)
	return name
}

// Get returns the named topic.
func (s *Store) Get(name string) (Topic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.topics[name]
	if !ok {
		return Topic{}, false
	}
	return Topic{Name: name, Slot: st.slot, Count: st.count, Updated: st.updated}, true
}

// Topics lists every topic in first-seen order.
func (s *Store) Topics() []Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Topic, 0, len(s.order))
	for _, name := range s.order {
		st := s.topics[name]
		out = append(out, Topic{Name: name, Slot: st.slot, Count: st.count, Updated: st.updated})
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
