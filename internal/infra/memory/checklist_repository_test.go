package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"oc-checklist-service/internal/domain"
)

func TestChecklistRepositoryCaches(t *testing.T) {
	loader := &countingLoader{ChecklistLoader: NewStaticChecklistLoader(sampleChecklist())}
	repo := NewChecklistRepository(loader, time.Minute)

	if _, err := repo.GetChecklist(context.Background(), "cl-1"); err != nil {
		t.Fatalf("get checklist: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetChecklist(context.Background(), "cl-1"); err != nil {
		t.Fatalf("get checklist 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestChecklistRepositoryExpires(t *testing.T) {
	loader := &countingLoader{ChecklistLoader: NewStaticChecklistLoader(sampleChecklist())}
	repo := NewChecklistRepository(loader, time.Minute)
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetChecklist(context.Background(), "cl-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetChecklist(context.Background(), "cl-1")

	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestChecklistRepositoryUnknown(t *testing.T) {
	repo := NewChecklistRepository(NewStaticChecklistLoader(), time.Minute)
	_, err := repo.GetChecklist(context.Background(), "missing")
	if !errors.Is(err, domain.ErrChecklistNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	ChecklistLoader
	calls int
}

func (l *countingLoader) LoadChecklist(ctx context.Context, checklistID string) (domain.Checklist, error) {
	l.calls++
	return l.ChecklistLoader.LoadChecklist(ctx, checklistID)
}

func sampleChecklist() domain.Checklist {
	return domain.Checklist{
		ID:    "cl-1",
		Title: "Opening check",
		Categories: []domain.ChecklistCategory{
			{ID: "A", Title: "Kitchen", Sections: []domain.ChecklistSection{
				{ID: "A.1", Items: []domain.ChecklistItem{{ID: "A1", Weight: 2}}},
			}},
		},
	}
}

func TestChainLoaderFallsThrough(t *testing.T) {
	other := sampleChecklist()
	other.ID = "cl-2"
	chain := ChainLoader{NewStaticChecklistLoader(sampleChecklist()), NewStaticChecklistLoader(other)}

	got, err := chain.LoadChecklist(context.Background(), "cl-2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != "cl-2" {
		t.Fatalf("expected cl-2, got %s", got.ID)
	}
	if _, err := chain.LoadChecklist(context.Background(), "cl-3"); !errors.Is(err, domain.ErrChecklistNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
