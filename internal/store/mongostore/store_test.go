package mongostore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/internal/store/mongostore"
)

// setupTestDB connects to SITE_TEST_MONGO_URI and returns a private database
// dropped on cleanup. Tests skip when the variable is unset.
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("SITE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SITE_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db := client.Database(fmt.Sprintf("site_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestMongoStoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s := mongostore.New(db)
	defer s.Close(ctx)

	for _, doc := range []store.Document{
		{"id": "a", "widgetAreaId": "w1", "order": 2},
		{"id": "b", "widgetAreaId": "w1", "order": 1},
		{"id": "c", "widgetAreaId": "w2", "order": 0},
	} {
		if err := s.Put(ctx, "widgetInstances", doc); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	got, err := s.Get(ctx, store.Collection("widgetInstances").In("widgetAreaId", "w1").Order("order", false))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 || got[0].ID() != "b" || got[1].ID() != "a" {
		t.Fatalf("unexpected order %v", got)
	}
	if _, err := s.Document(ctx, "widgetInstances", "missing"); !store.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete(ctx, "widgetInstances", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Document(ctx, "widgetInstances", "a"); !store.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
