package cache

import (
	"sync"
	"time"
)

// Snapshot is a single-slot cache holding the most recent dataset
// pull. Freshness is monotonic: Set rejects any value whose update
// timestamp does not advance past the currently held one, so a slow
// refresh finishing late can never clobber newer data.
type Snapshot struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	value     any
	updatedAt time.Time
}

func NewSnapshot(ttl time.Duration) *Snapshot {
	return &Snapshot{
		ttl: ttl,
		now: time.Now,
	}
}

// Set installs a new value stamped with updatedAt. It reports false
// without mutating the slot when updatedAt is zero or does not strictly
// advance past the current timestamp.
func (s *Snapshot) Set(value any, updatedAt time.Time) bool {
	if updatedAt.IsZero() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !updatedAt.After(s.updatedAt) {
		return false
	}
	s.value = value
	s.updatedAt = updatedAt
	return true
}

// Get returns the cached value when the slot is populated and within
// TTL. A zero TTL means entries never expire.
func (s *Snapshot) Get() (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.validLocked() {
		return nil, false
	}
	return s.value, true
}

func (s *Snapshot) IsValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validLocked()
}

// LastUpdated returns the timestamp of the held value, zero when the
// slot has never been populated. It ignores TTL so callers can report
// data age even after expiry.
func (s *Snapshot) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Age returns how long ago the slot was populated, zero when empty.
func (s *Snapshot) Age() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.updatedAt.IsZero() {
		return 0
	}
	return s.now().Sub(s.updatedAt)
}

// Clear empties the slot. The freshness watermark resets too, so a
// subsequent Set with any nonzero timestamp succeeds.
func (s *Snapshot) Clear() {
	s.mu.Lock()
	s.value = nil
	s.updatedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Snapshot) validLocked() bool {
	if s.updatedAt.IsZero() {
		return false
	}
	if s.ttl <= 0 {
		return true
	}
	return s.now().Sub(s.updatedAt) < s.ttl
}
