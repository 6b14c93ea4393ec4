package memory

import (
	"context"
	"testing"
	"time"

	"oc-checklist-service/internal/app"
	"oc-checklist-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(0)

	store.Add(app.NewSession("ev-1", sampleChecklist(), "alice"))
	if _, ok := store.Get("ev-1"); !ok {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Delete("ev-1")
	if _, ok := store.Get("ev-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreEvictsIdleSessions(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	session := app.NewSession("ev-1", sampleChecklist(), "alice")
	store.Add(session)
	store.Add(app.NewSession("ev-2", sampleChecklist(), "bob"))

	updates, err := subscribeFirst(session)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	now = now.Add(45 * time.Second)
	if _, ok := store.Get("ev-1"); !ok {
		t.Fatalf("expected ev-1 still live")
	}

	now = now.Add(45 * time.Second)
	if n := store.Sweep(context.Background()); n != 1 {
		t.Fatalf("expected one idle session swept, got %d", n)
	}
	if store.Len() != 1 {
		t.Fatalf("expected ev-1 kept after sweep, got %d sessions", store.Len())
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get("ev-1"); ok {
		t.Fatalf("expected ev-1 evicted on lookup")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
	if _, ok := <-updates; ok {
		t.Fatalf("expected subscription closed on eviction")
	}
}

func TestRecordStoreKeepsFirstRecord(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	if _, err := store.GetRecord(ctx, "ev-1"); err != domain.ErrRecordNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	_ = store.SaveRecord(ctx, domain.EvaluationRecord{EvaluationID: "ev-1", Evaluator: "alice"})
	_ = store.SaveRecord(ctx, domain.EvaluationRecord{EvaluationID: "ev-1", Evaluator: "mallory"})

	rec, err := store.GetRecord(ctx, "ev-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Evaluator != "alice" {
		t.Fatalf("expected first record kept, got %q", rec.Evaluator)
	}
}

func subscribeFirst(session *app.Session) (<-chan domain.Evaluation, error) {
	service := app.NewEvaluationService(singleSession{session}, nil, NewRecordStore())
	ch, _, err := service.Subscribe(context.Background(), session.ID())
	if err != nil {
		return nil, err
	}
	<-ch
	return ch, nil
}

type singleSession struct{ session *app.Session }

func (s singleSession) Add(*app.Session) {}

func (s singleSession) Get(string) (*app.Session, bool) { return s.session, true }

func (s singleSession) Delete(string) {}
