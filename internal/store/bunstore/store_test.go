package bunstore_test

import (
	"context"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/store/bunstore"
	"github.com/goliatone/go-site/pkg/testsupport"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := bunstore.Open(sqlDB, bunstore.DialectSQLite)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := bunstore.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sequentialClock() func() time.Time {
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestBunStorePutGetDocument(t *testing.T) {
	ctx := context.Background()
	s := bunstore.New(newTestDB(t), bunstore.WithNow(sequentialClock()))
	defer s.Close(ctx)

	posts := []store.Document{
		{"id": "p1", "status": "published", "createdAt": "2024-01-01T00:00:00Z", "categoryIds": []any{"c1"}},
		{"id": "p2", "status": "draft", "createdAt": "2024-02-01T00:00:00Z"},
		{"id": "p3", "status": "published", "createdAt": "2024-03-01T00:00:00Z", "categoryIds": []any{"c2"}},
	}
	for _, doc := range posts {
		if err := s.Put(ctx, "posts", doc); err != nil {
			t.Fatalf("put %s: %v", doc.ID(), err)
		}
	}
	if err := s.Put(ctx, "pages", store.Document{"id": "p1", "title": "About"}); err != nil {
		t.Fatalf("put page: %v", err)
	}

	got, err := s.Get(ctx, store.Collection("posts").Eq("status", "published").Order("createdAt", true))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 || got[0].ID() != "p3" || got[1].ID() != "p1" {
		t.Fatalf("unexpected posts %v", got)
	}

	byCategory, err := s.Get(ctx, store.Collection("posts").In("categoryIds", "c1"))
	if err != nil || len(byCategory) != 1 || byCategory[0].ID() != "p1" {
		t.Fatalf("unexpected membership result %v (%v)", byCategory, err)
	}

	page, err := s.Document(ctx, "pages", "p1")
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if page["title"] != "About" {
		t.Fatalf("expected page document, got %v", page)
	}
}

func TestBunStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := bunstore.New(newTestDB(t), bunstore.WithNow(sequentialClock()))
	defer s.Close(ctx)

	if err := s.Put(ctx, "settings", store.Document{"id": "site", "title": "One"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "settings", store.Document{"id": "site", "title": "Two"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	doc, err := s.Document(ctx, "settings", "site")
	if err != nil || doc["title"] != "Two" {
		t.Fatalf("expected updated title, got %v (%v)", doc, err)
	}
	all, _ := s.Get(ctx, store.Collection("settings"))
	if len(all) != 1 {
		t.Fatalf("expected single row after update, got %d", len(all))
	}

	if err := s.Delete(ctx, "settings", "site"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Document(ctx, "settings", "site"); !store.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestBunStoreWithCacheReadsThrough(t *testing.T) {
	ctx := context.Background()
	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheSvc, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	s := bunstore.New(newTestDB(t),
		bunstore.WithCache(cacheSvc, repocache.NewDefaultKeySerializer()),
		bunstore.WithNow(sequentialClock()),
	)
	defer s.Close(ctx)

	if err := s.Put(ctx, "charts", store.Document{"id": "c1", "type": "bar"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	for range 2 {
		doc, err := s.Document(ctx, "charts", "c1")
		if err != nil || doc["type"] != "bar" {
			t.Fatalf("expected cached chart, got %v (%v)", doc, err)
		}
	}
}

func TestBunStoreSubscribeSeesWrites(t *testing.T) {
	ctx := context.Background()
	s := bunstore.New(newTestDB(t), bunstore.WithNow(sequentialClock()))
	defer s.Close(ctx)

	snaps := make(chan store.Snapshot, 8)
	unsubscribe, err := s.Subscribe(ctx, store.Collection("comments").Eq("itemId", "p1"), func(snap store.Snapshot) {
		snaps <- snap
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	wait := func() store.Snapshot {
		select {
		case snap := <-snaps:
			return snap
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out")
		}
		return store.Snapshot{}
	}
	if !wait().Loading {
		t.Fatalf("expected loading first")
	}
	if snap := wait(); !snap.Empty() {
		t.Fatalf("expected confirmed empty, got %+v", snap)
	}
	if err := s.Put(ctx, "comments", store.Document{"id": "c1", "itemId": "p1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	for {
		if snap := wait(); len(snap.Documents) == 1 {
			return
		}
	}
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	defer sqlDB.Close()
	if _, err := bunstore.Open(sqlDB, "oracle"); err == nil {
		t.Fatalf("expected unsupported dialect error")
	}
	if db, err := bunstore.Open(sqlDB, bunstore.DialectPostgres); err != nil || db == nil {
		t.Fatalf("expected postgres dialect wrapper, got %v", err)
	}
}
