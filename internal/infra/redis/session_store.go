package redis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"oc-checklist-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions live in a local map so the in-process subscriber fan-out keeps working.
//   - Redis holds a liveness marker per evaluation with a TTL, refreshed on
//     every lookup. A session whose marker has expired is evicted locally, so
//     the TTL bounds how long an idle evaluation stays open.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Add(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), "1", s.ttl).Err()
}

func (s *SessionStore) Get(evaluationID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[evaluationID]
	s.mu.RUnlock()
	if !ok || s.ttl <= 0 {
		return session, ok
	}

	refreshed, err := s.client.Expire(context.Background(), s.key(evaluationID), s.ttl).Result()
	if err != nil {
		// keep serving while redis is unreachable
		log.Printf("refresh evaluation %s liveness: %v", evaluationID, err)
		return session, true
	}
	if !refreshed {
		s.evict(evaluationID, session)
		return nil, false
	}
	return session, true
}

func (s *SessionStore) Delete(evaluationID string) {
	s.mu.Lock()
	delete(s.sessions, evaluationID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(evaluationID)).Err()
}

// Sweep evicts local sessions whose liveness marker has expired and returns
// how many were removed.
func (s *SessionStore) Sweep(ctx context.Context) int {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	evicted := 0
	for _, id := range ids {
		live, err := s.Live(ctx, id)
		if err != nil {
			log.Printf("check evaluation %s liveness: %v", id, err)
			return evicted
		}
		if live {
			continue
		}
		s.mu.RLock()
		session, ok := s.sessions[id]
		s.mu.RUnlock()
		if ok && s.evict(id, session) {
			evicted++
		}
	}
	return evicted
}

// Live reports whether any instance has marked the evaluation open.
func (s *SessionStore) Live(ctx context.Context, evaluationID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(evaluationID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Len reports how many sessions this instance holds.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// evict removes session if it is still the one stored under evaluationID.
func (s *SessionStore) evict(evaluationID string, session *app.Session) bool {
	s.mu.Lock()
	current, ok := s.sessions[evaluationID]
	if !ok || current != session {
		s.mu.Unlock()
		return false
	}
	delete(s.sessions, evaluationID)
	s.mu.Unlock()
	session.Close()
	return true
}

func (s *SessionStore) key(evaluationID string) string {
	return "evaluation:live:" + evaluationID
}
