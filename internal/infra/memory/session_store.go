package memory

import (
	"context"
	"sync"
	"time"

	"oc-checklist-service/internal/app"
)

type sessionEntry struct {
	session  *app.Session
	lastSeen time.Time
}

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions not touched for longer than idle are evicted; zero keeps them
// until they are deleted.
type SessionStore struct {
	mu       sync.RWMutex
	idle     time.Duration
	clock    func() time.Time
	sessions map[string]*sessionEntry
}

func NewSessionStore(idle time.Duration) *SessionStore {
	return &SessionStore{
		idle:     idle,
		clock:    time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *SessionStore) Add(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = &sessionEntry{session: session, lastSeen: s.clock()}
}

// Get returns the session and marks it as recently used.
func (s *SessionStore) Get(evaluationID string) (*app.Session, bool) {
	s.mu.Lock()
	entry, ok := s.sessions[evaluationID]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	now := s.clock()
	if s.expired(entry, now) {
		delete(s.sessions, evaluationID)
		s.mu.Unlock()
		entry.session.Close()
		return nil, false
	}
	entry.lastSeen = now
	s.mu.Unlock()
	return entry.session, true
}

func (s *SessionStore) Delete(evaluationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, evaluationID)
}

// Sweep evicts idle sessions and returns how many were removed.
func (s *SessionStore) Sweep(_ context.Context) int {
	now := s.clock()
	var evicted []*app.Session
	s.mu.Lock()
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
			evicted = append(evicted, entry.session)
		}
	}
	s.mu.Unlock()

	for _, session := range evicted {
		session.Close()
	}
	return len(evicted)
}

// Len reports how many live sessions are held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(entry *sessionEntry, now time.Time) bool {
	return s.idle > 0 && now.Sub(entry.lastSeen) > s.idle
}
