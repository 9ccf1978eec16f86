package testsupport

import (
	"context"
	"strings"
	"sync"
	"time"
)

// RecordingStore is a map-backed cache.Store that records every write and can
// be told to fail.
type RecordingStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	gets   int
	sets   []string
	getErr error
	setErr error
}

// NewRecordingStore creates an empty store.
func NewRecordingStore() *RecordingStore {
	return &RecordingStore{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

// Get implements cache.Store.
func (s *RecordingStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

// Set implements cache.Store.
func (s *RecordingStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.sets = append(s.sets, key)
	s.data[key] = append([]byte(nil), value...)
	s.ttls[key] = ttl
	return nil
}

// Delete implements cache.Store.
func (s *RecordingStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	delete(s.ttls, key)
	return nil
}

// DeleteByPrefix implements cache.Store.
func (s *RecordingStore) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			delete(s.data, key)
			delete(s.ttls, key)
		}
	}
	return nil
}

// Put seeds raw bytes under key without recording a write.
func (s *RecordingStore) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Raw returns the bytes under key.
func (s *RecordingStore) Raw(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// TTL returns the ttl of the last write to key.
func (s *RecordingStore) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key]
}

// Sets returns the keys written so far, in order.
func (s *RecordingStore) Sets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sets...)
}

// Gets returns the number of Get calls.
func (s *RecordingStore) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

// Len returns the number of stored keys.
func (s *RecordingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// FailGets makes Get return err until reset with nil.
func (s *RecordingStore) FailGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

// FailSets makes Set return err until reset with nil.
func (s *RecordingStore) FailSets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr = err
}
