package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"oc-checklist-service/internal/app"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	store.Add(app.NewSession("ev-1", sampleChecklist(), "alice"))
	if !mr.Exists("evaluation:live:ev-1") {
		t.Fatalf("expected redis key to be set")
	}
	live, err := store.Live(context.Background(), "ev-1")
	if err != nil || !live {
		t.Fatalf("expected live evaluation, got %v %v", live, err)
	}

	mr.FastForward(30 * time.Second)
	if _, ok := store.Get("ev-1"); !ok {
		t.Fatalf("expected session present")
	}
	if ttl := mr.TTL("evaluation:live:ev-1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed on access, got %v", ttl)
	}

	store.Delete("ev-1")
	if mr.Exists("evaluation:live:ev-1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreEvictsExpiredSessions(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	store.Add(app.NewSession("ev-1", sampleChecklist(), "alice"))
	store.Add(app.NewSession("ev-2", sampleChecklist(), "bob"))

	mr.FastForward(2 * time.Minute)
	if _, ok := store.Get("ev-1"); ok {
		t.Fatalf("expected expired session to be gone")
	}
	if store.Len() != 1 {
		t.Fatalf("expected ev-2 still held locally, got %d", store.Len())
	}

	if n := store.Sweep(context.Background()); n != 1 {
		t.Fatalf("expected one session swept, got %d", n)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}
