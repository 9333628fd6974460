package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Sessions owns the open Store for every active session. Stores are opened
// lazily, shared by concurrent requests of the same session, and dropped
// from memory after IdleTTL without being touched. Dropping a store never
// touches its mirror.
type Sessions struct {
	deps    Deps
	idleTTL time.Duration
	now     func() time.Time

	mu     sync.Mutex
	stores map[string]*entry
	group  singleflight.Group
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

// NewSessions creates a registry. A non-positive idleTTL disables eviction.
func NewSessions(deps Deps, idleTTL time.Duration) *Sessions {
	return &Sessions{
		deps:    deps,
		idleTTL: idleTTL,
		now:     time.Now,
		stores:  make(map[string]*entry),
	}
}

// Get returns the session's Store, rehydrating it from the mirror on first
// use. Concurrent first calls for one session share a single load.
func (s *Sessions) Get(ctx context.Context, sessionID string) (*Store, error) {
	if st := s.touch(sessionID); st != nil {
		return st, nil
	}

	v, err, _ := s.group.Do(sessionID, func() (any, error) {
		if st := s.touch(sessionID); st != nil {
			return st, nil
		}
		st, err := Open(ctx, sessionID, s.deps)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.stores[sessionID] = &entry{store: st, lastSeen: s.now()}
		n := len(s.stores)
		s.mu.Unlock()
		openSessions.Set(float64(n))
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (s *Sessions) touch(sessionID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.stores[sessionID]
	if !ok {
		return nil
	}
	e.lastSeen = s.now()
	return e.store
}

// End drops the session's Store from memory. The next Get rehydrates from
// the mirror.
func (s *Sessions) End(sessionID string) {
	s.mu.Lock()
	delete(s.stores, sessionID)
	n := len(s.stores)
	s.mu.Unlock()
	openSessions.Set(float64(n))
}

// Len returns the number of stores held in memory.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}

// Sweep evicts stores idle since before now-IdleTTL and returns how many
// were evicted.
func (s *Sessions) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	evicted := 0
	for id, e := range s.stores {
		if e.lastSeen.Before(cutoff) {
			delete(s.stores, id)
			evicted++
		}
	}
	n := len(s.stores)
	s.mu.Unlock()

	openSessions.Set(float64(n))
	return evicted
}

// Run sweeps idle stores every IdleTTL/2 until ctx is done.
func (s *Sessions) Run(ctx context.Context) {
	if s.idleTTL <= 0 {
		return
	}
	interval := max(s.idleTTL/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.deps.Logger.Debug("evicted idle cart sessions", slog.Int("count", n))
			}
		}
	}
}
