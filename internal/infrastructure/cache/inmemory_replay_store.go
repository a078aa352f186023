package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pharmacy/backend/internal/domain/shared"
)

// replayEntry is a reserved or completed key with its expiration
type replayEntry struct {
	result    string
	done      bool
	expiresAt time.Time
}

// InMemoryReplayStore implements shared.ReplayStore with a map.
// Suitable for single-instance deployments and tests.
type InMemoryReplayStore struct {
	mu        sync.Mutex
	entries   map[string]replayEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryReplayStore creates the store and starts its expiry sweeper
func NewInMemoryReplayStore() *InMemoryReplayStore {
	s := &InMemoryReplayStore{
		entries:  make(map[string]replayEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop(5 * time.Minute)
	return s
}

// Reserve claims key for ttl. False means another request holds or completed it.
func (s *InMemoryReplayStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && s.now().Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = replayEntry{expiresAt: s.now().Add(ttl)}
	return true, nil
}

// Complete stores the result reference of a reserved key
func (s *InMemoryReplayStore) Complete(_ context.Context, key, result string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = replayEntry{result: result, done: true, expiresAt: s.now().Add(ttl)}
	return nil
}

// Lookup returns the state of key
func (s *InMemoryReplayStore) Lookup(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return "", false, shared.ErrNotFound
	}
	return e.result, e.done, nil
}

// Release forgets key
func (s *InMemoryReplayStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryReplayStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored keys, expired ones included until the next sweep
func (s *InMemoryReplayStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *InMemoryReplayStore) cleanupLoop(every time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryReplayStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

var _ shared.ReplayStore = (*InMemoryReplayStore)(nil)
