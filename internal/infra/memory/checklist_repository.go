package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"oc-checklist-service/internal/domain"
)

// ChecklistLoader fetches checklist taxonomies from a backing store (e.g., Postgres).
type ChecklistLoader interface {
	LoadChecklist(ctx context.Context, checklistID string) (domain.Checklist, error)
}

// ChecklistRepository caches checklists with TTL to avoid repeated DB hits.
type ChecklistRepository struct {
	loader ChecklistLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedChecklist
}

type cachedChecklist struct {
	checklist domain.Checklist
	expiresAt time.Time
}

func NewChecklistRepository(loader ChecklistLoader, ttl time.Duration) *ChecklistRepository {
	return &ChecklistRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedChecklist),
	}
}

func (r *ChecklistRepository) GetChecklist(ctx context.Context, checklistID string) (domain.Checklist, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[checklistID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.checklist, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(checklistID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[checklistID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.checklist, nil
		}
		r.mu.RUnlock()

		checklist, err := r.loader.LoadChecklist(ctx, checklistID)
		if err != nil {
			return domain.Checklist{}, err
		}

		r.mu.Lock()
		r.cache[checklistID] = cachedChecklist{
			checklist: checklist,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return checklist, nil
	})
	if err != nil {
		return domain.Checklist{}, err
	}
	return result.(domain.Checklist), nil
}

// StaticChecklistLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticChecklistLoader struct {
	checklists map[string]domain.Checklist
}

func NewStaticChecklistLoader(checklists ...domain.Checklist) *StaticChecklistLoader {
	l := &StaticChecklistLoader{checklists: make(map[string]domain.Checklist, len(checklists))}
	for _, c := range checklists {
		l.checklists[c.ID] = c
	}
	return l
}

func (l *StaticChecklistLoader) LoadChecklist(_ context.Context, checklistID string) (domain.Checklist, error) {
	if checklist, ok := l.checklists[checklistID]; ok {
		return checklist, nil
	}
	return domain.Checklist{}, domain.ErrChecklistNotFound
}

func (r *ChecklistRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// ChainLoader tries each loader in order until one knows the checklist.
type ChainLoader []ChecklistLoader

func (c ChainLoader) LoadChecklist(ctx context.Context, checklistID string) (domain.Checklist, error) {
	for _, l := range c {
		checklist, err := l.LoadChecklist(ctx, checklistID)
		if errors.Is(err, domain.ErrChecklistNotFound) {
			continue
		}
		return checklist, err
	}
	return domain.Checklist{}, domain.ErrChecklistNotFound
}
