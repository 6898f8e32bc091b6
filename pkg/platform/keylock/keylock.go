// Package keylock serializes work per string key without one global lock.
package keylock

import (
	"hash/maphash"
	"sync"
)

const defaultShards = 32

// Striped maps keys onto a fixed set of mutexes. Distinct keys may share a
// stripe; the same key always lands on the same one.
type Striped struct {
	seed    maphash.Seed
	stripes []sync.Mutex
}

// New returns a Striped lock with n stripes, or 32 when n is not positive.
func New(n int) *Striped {
	if n <= 0 {
		n = defaultShards
	}
	return &Striped{seed: maphash.MakeSeed(), stripes: make([]sync.Mutex, n)}
}

// Lock acquires the stripe for key and returns its release func.
func (s *Striped) Lock(key string) (unlock func()) {
	mu := &s.stripes[s.index(key)]
	mu.Lock()
	return mu.Unlock
}

// Do runs fn while holding the stripe for key.
func (s *Striped) Do(key string, fn func() error) error {
	unlock := s.Lock(key)
	defer unlock()
	return fn()
}

func (s *Striped) index(key string) int {
	if len(s.stripes) == 1 {
		return 0
	}
	return int(maphash.String(s.seed, key) % uint64(len(s.stripes)))
}
