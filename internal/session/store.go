package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// Store keeps live review sessions in memory with an idle TTL. Expired
// sessions are reclaimed both lazily on read and by the background reaper,
// so abandonment leaves no trace.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put registers a session.
func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Get returns the live session for id, or nil when it is unknown or its
// idle window has lapsed. An expired session is abandoned on the spot.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	s := st.sessions[id]
	st.mu.RUnlock()
	if s == nil {
		return nil
	}

	if st.now().Sub(s.lastTouched()) > st.ttl {
		st.expire(s)
		return nil
	}
	return s
}

// Delete removes a session from the store.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// StartReaper sweeps expired sessions until ctx is done.
func (st *Store) StartReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				st.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (st *Store) sweep() {
	st.mu.RLock()
	var stale []*Session
	for _, s := range st.sessions {
		if st.now().Sub(s.lastTouched()) > st.ttl {
			stale = append(stale, s)
		}
	}
	st.mu.RUnlock()

	for _, s := range stale {
		st.expire(s)
	}
	if len(stale) > 0 {
		log.Printf("session store: reclaimed %d expired review sessions", len(stale))
	}
}

func (st *Store) expire(s *Session) {
	// Terminal sessions are left alone state-wise, just dropped.
	_ = s.Abandon()
	st.Delete(s.ID)
}
