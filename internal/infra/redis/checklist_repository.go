package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"oc-checklist-service/internal/domain"
)

// ChecklistLoader fetches checklist taxonomies from a backing store (e.g., Postgres).
type ChecklistLoader interface {
	LoadChecklist(ctx context.Context, checklistID string) (domain.Checklist, error)
}

// ChecklistRepository caches taxonomies in Redis and falls back to a loader on cache miss.
// Each checklist is stored as JSON: SET checklist:{checklistID} {json} EX ttl
type ChecklistRepository struct {
	client *redis.Client
	loader ChecklistLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewChecklistRepository(client *redis.Client, loader ChecklistLoader, ttl time.Duration) *ChecklistRepository {
	return &ChecklistRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ChecklistRepository) GetChecklist(ctx context.Context, checklistID string) (domain.Checklist, error) {
	if checklist, ok := r.cached(ctx, checklistID); ok {
		return checklist, nil
	}

	result, err, _ := r.sf.Do(checklistID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if checklist, ok := r.cached(ctx, checklistID); ok {
			return checklist, nil
		}

		checklist, err := r.loader.LoadChecklist(ctx, checklistID)
		if err != nil {
			return domain.Checklist{}, err
		}

		data, err := json.Marshal(checklist)
		if err == nil {
			err = r.client.Set(ctx, r.key(checklistID), data, r.ttlWithJitter()).Err()
		}
		if err != nil {
			log.Printf("cache checklist %s: %v", checklistID, err)
		}
		return checklist, nil
	})
	if err != nil {
		return domain.Checklist{}, err
	}
	return result.(domain.Checklist), nil
}

// Invalidate removes the cached copy of a checklist.
func (r *ChecklistRepository) Invalidate(ctx context.Context, checklistID string) error {
	return r.client.Del(ctx, r.key(checklistID)).Err()
}

func (r *ChecklistRepository) cached(ctx context.Context, checklistID string) (domain.Checklist, bool) {
	data, err := r.client.Get(ctx, r.key(checklistID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached checklist %s: %v", checklistID, err)
		}
		return domain.Checklist{}, false
	}
	var checklist domain.Checklist
	if err := json.Unmarshal(data, &checklist); err != nil {
		return domain.Checklist{}, false
	}
	return checklist, true
}

func (r *ChecklistRepository) key(checklistID string) string {
	return "checklist:" + checklistID
}

func (r *ChecklistRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
