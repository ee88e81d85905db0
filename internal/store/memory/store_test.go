package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-site/internal/store"
)

func mustPut(t *testing.T, s *Store, collection string, doc store.Document) {
	t.Helper()
	if err := s.Put(context.Background(), collection, doc); err != nil {
		t.Fatalf("put %s: %v", collection, err)
	}
}

func TestStoreGetFiltersAndCopies(t *testing.T) {
	s := New()
	mustPut(t, s, "posts", store.Document{"id": "a", "status": "published", "tags": []string{"go"}})
	mustPut(t, s, "posts", store.Document{"id": "b", "status": "draft"})

	got, err := s.Get(context.Background(), store.Collection("posts").Eq("status", "published"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "a" {
		t.Fatalf("unexpected result %v", got)
	}
	got[0]["status"] = "mutated"
	again, _ := s.Document(context.Background(), "posts", "a")
	if again["status"] != "published" {
		t.Fatalf("store result was mutated through a returned document")
	}
}

func TestStorePutKeepsInsertionOrder(t *testing.T) {
	s := New()
	mustPut(t, s, "c", store.Document{"id": "2"})
	mustPut(t, s, "c", store.Document{"id": "1"})
	mustPut(t, s, "c", store.Document{"id": "2", "v": 1})
	got, _ := s.Get(context.Background(), store.Collection("c"))
	if len(got) != 2 || got[0].ID() != "2" || got[1].ID() != "1" || got[0]["v"] != float64(1) {
		t.Fatalf("unexpected order or content %v", got)
	}
}

func TestStorePutRequiresID(t *testing.T) {
	if err := New().Put(context.Background(), "c", store.Document{"title": "x"}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestStoreDocumentNotFound(t *testing.T) {
	_, err := New().Document(context.Background(), "pages", "missing")
	if !store.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreDenyReturnsPermissionError(t *testing.T) {
	s := New()
	mustPut(t, s, "posts", store.Document{"id": "a"})
	s.Deny("posts")
	if _, err := s.Get(context.Background(), store.Collection("posts")); !store.IsPermissionDenied(err) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	s.Allow("posts")
	if _, err := s.Get(context.Background(), store.Collection("posts")); err != nil {
		t.Fatalf("unexpected error after allow: %v", err)
	}
}

type recorder struct {
	mu    sync.Mutex
	snaps []store.Snapshot
	ch    chan store.Snapshot
}

func newRecorder() *recorder { return &recorder{ch: make(chan store.Snapshot, 16)} }

func (r *recorder) record(s store.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
	r.ch <- s
}

func (r *recorder) next(t *testing.T) store.Snapshot {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return store.Snapshot{}
}

func TestSubscribeDeliversLoadingThenResultsThenChanges(t *testing.T) {
	s := New()
	defer s.Close(context.Background())
	mustPut(t, s, "menuItems", store.Document{"id": "m1", "menuId": "main"})

	rec := newRecorder()
	unsubscribe, err := s.Subscribe(context.Background(), store.Collection("menuItems").Eq("menuId", "main"), rec.record)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	if first := rec.next(t); !first.Loading {
		t.Fatalf("expected loading snapshot first, got %+v", first)
	}
	if initial := rec.next(t); initial.Loading || len(initial.Documents) != 1 {
		t.Fatalf("unexpected initial snapshot %+v", initial)
	}

	mustPut(t, s, "menuItems", store.Document{"id": "m2", "menuId": "main"})
	for {
		snap := rec.next(t)
		if len(snap.Documents) == 2 {
			break
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := New()
	rec := newRecorder()
	unsubscribe, err := s.Subscribe(context.Background(), store.Collection("posts"), rec.record)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	rec.next(t)
	rec.next(t)
	unsubscribe()
	unsubscribe()

	mustPut(t, s, "posts", store.Document{"id": "late"})
	select {
	case snap := <-rec.ch:
		t.Fatalf("unexpected snapshot after unsubscribe: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
	if s.hub.Len() != 0 {
		t.Fatalf("expected no live subscriptions")
	}
}

func TestSubscribeAfterCloseFails(t *testing.T) {
	s := New()
	_ = s.Close(context.Background())
	if _, err := s.Subscribe(context.Background(), store.Collection("posts"), func(store.Snapshot) {}); err == nil {
		t.Fatalf("expected error after close")
	}
}
