package store

import (
	"context"
	"sync"
	"time"

	"credvault/pkg/platform/sentinel"
)

type entry struct {
	secret    string
	expiresAt time.Time
}

// InMemory keeps OTP secrets in a map. Expired entries are dropped lazily.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]entry), now: time.Now}
}

// WithClock replaces the store's time source.
func (s *InMemory) WithClock(now func() time.Time) *InMemory {
	s.now = now
	return s
}

func (s *InMemory) Get(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[email]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, email)
		return "", sentinel.ErrNotFound
	}
	return e.secret, nil
}

func (s *InMemory) Put(_ context.Context, email, secret string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = entry{secret: secret, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemory) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
	return nil
}
