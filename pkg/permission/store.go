package permission

import "sync"

// Probe reports whether the platform itself lets the process use p,
// independent of user consent.
type Probe func(p Permission) bool

// Store is a process-lifetime Checker. A permission is granted once the user
// consented in this run and the probe, if any, agrees. Nothing is persisted.
type Store struct {
	probe Probe

	mu      sync.RWMutex
	consent map[Permission]Grant
}

// NewStore returns a store with no consent recorded.
func NewStore(probe Probe) *Store {
	return &Store{probe: probe, consent: make(map[Permission]Grant)}
}

// Set records the user's answer for p.
func (s *Store) Set(p Permission, g Grant) {
	s.mu.Lock()
	s.consent[p] = g
	s.mu.Unlock()
}

// CheckSelfPermission implements Checker.
func (s *Store) CheckSelfPermission(p Permission) Grant {
	s.mu.RLock()
	g := s.consent[p]
	s.mu.RUnlock()
	if g != Granted {
		return Denied
	}
	if s.probe != nil && !s.probe(p) {
		return Denied
	}
	return Granted
}
