package mongostore

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/goliatone/go-site/internal/store"
)

func TestFilterForEqualityAndMembership(t *testing.T) {
	q := store.Collection("posts").Eq("status", "published").Eq("id", "p1").In("tags", "go", "cms")
	filter := filterFor(q)
	if filter["status"] != "published" || filter["_id"] != "p1" {
		t.Fatalf("unexpected equality filter %v", filter)
	}
	and, ok := filter["$and"].(bson.A)
	if !ok || len(and) != 1 {
		t.Fatalf("expected membership clause, got %v", filter)
	}
	clause := and[0].(bson.M)["tags"].(bson.M)
	if in := clause["$in"].(bson.A); len(in) != 2 {
		t.Fatalf("unexpected $in %v", in)
	}
}

func TestFilterForRepeatedField(t *testing.T) {
	filter := filterFor(store.Collection("x").Eq("a", 1).Eq("a", 2))
	if _, ok := filter["a"]; ok {
		t.Fatalf("expected repeated field moved to $and, got %v", filter)
	}
	if and := filter["$and"].(bson.A); len(and) != 2 {
		t.Fatalf("expected two clauses, got %v", and)
	}
}

func TestToDocumentNormalisesBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	when := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	raw := bson.M{
		"_id":       "p1",
		"authorId":  oid,
		"createdAt": primitive.NewDateTimeFromTime(when),
		"order":     int32(4),
		"tags":      bson.A{"a", "b"},
		"config":    bson.D{{Key: "city", Value: "Oslo"}},
	}
	doc, err := toDocument(raw)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if doc.ID() != "p1" {
		t.Fatalf("expected _id mapped to id, got %v", doc)
	}
	if _, ok := doc["_id"]; ok {
		t.Fatalf("expected _id removed")
	}
	if doc["authorId"] != oid.Hex() {
		t.Fatalf("expected object id hex, got %v", doc["authorId"])
	}
	if doc["createdAt"] != when.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected time %v", doc["createdAt"])
	}
	if doc["order"] != float64(4) {
		t.Fatalf("expected float order, got %T", doc["order"])
	}
	if tags, ok := doc["tags"].([]any); !ok || len(tags) != 2 {
		t.Fatalf("unexpected tags %v", doc["tags"])
	}
	if cfg, ok := doc["config"].(map[string]any); !ok || cfg["city"] != "Oslo" {
		t.Fatalf("unexpected config %v", doc["config"])
	}
}

func TestToBSONMapsID(t *testing.T) {
	out := toBSON(store.Document{"id": "site", "title": "x"})
	if out["_id"] != "site" || out["title"] != "x" {
		t.Fatalf("unexpected bson %v", out)
	}
	if _, ok := out["id"]; ok {
		t.Fatalf("expected id moved to _id")
	}
}
