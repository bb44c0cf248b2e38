package session

import (
	"context"
	"log"
	"sync"
	"time"

	"core/internal/model"
)

// Clock abstracts time.Now so expiry can be tested without real timers.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock implementation used in production.
func SystemClock() Clock { return systemClock{} }

// Session accumulates extracted entities for one ongoing conversation.
type Session struct {
	ID           string
	Context      *model.Entities
	LastActivity time.Time
}

// Store is the in-process session table. Sessions live only in memory: a
// process restart resets every in-flight conversation to empty context, and
// callers must tolerate losing slot-filling progress across deploys.
//
// The mutex also serializes merges for the same session id, so two
// near-simultaneous turns cannot interleave a merge; ordering between them
// remains arrival order.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	clock    Clock
}

// NewStore creates a session store evicting sessions idle longer than ttl.
func NewStore(ttl time.Duration, clock Clock) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		clock:    clock,
	}
}

// GetOrCreate returns a snapshot of the session's accumulated context,
// creating the session with empty context on first sight of the id.
func (s *Store) GetOrCreate(sessionID string) *model.Entities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked(sessionID).Context.Clone()
}

// Merge folds a turn's extracted entities into the session context
// (overwrite on conflict, union otherwise), refreshes the activity
// timestamp, and returns a snapshot of the merged context. Slot-filling is
// cumulative: merging never removes a previously filled slot.
func (s *Store) Merge(sessionID string, extracted *model.Entities) *model.Entities {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.locked(sessionID)
	sess.Context.Merge(extracted)
	sess.LastActivity = s.clock.Now()
	return sess.Context.Clone()
}

// locked returns the session for id, creating it if absent. Caller holds mu.
func (s *Store) locked(sessionID string) *Session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &Session{
			ID:           sessionID,
			Context:      &model.Entities{},
			LastActivity: s.clock.Now(),
		}
		s.sessions[sessionID] = sess
	}
	return sess
}

// Sweep removes every session idle beyond the TTL and returns how many were
// evicted. Removal latency is bounded by the sweep interval, not the exact
// TTL boundary.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-s.ttl)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run sweeps expired sessions on a fixed interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("Session sweep evicted %d idle session(s)", n)
			}
		}
	}
}
