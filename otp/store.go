package otp

import (
	"sync"
	"time"
)

// Record is a one-time code pending verification for a single email.
type Record struct {
	Code      string
	ExpiresAt time.Time
}

// Store is the keyed table the authority keeps live codes in. At most
// one record exists per email; Put overwrites.
type Store interface {
	Get(email string) (Record, bool)
	Put(email string, rec Record)
	Delete(email string)
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore returns an in-process Store. Expired records are not
// swept in the background; the authority evicts them on lookup.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]Record)}
}

func (s *memoryStore) Get(email string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[email]
	return rec, ok
}

func (s *memoryStore) Put(email string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[email] = rec
}

func (s *memoryStore) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
}
