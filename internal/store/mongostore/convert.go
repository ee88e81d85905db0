package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/goliatone/go-site/internal/store"
)

// filterFor translates the equality and membership parts of q. Ordering and
// limits are applied in process so missing sort keys behave like the other
// backends.
func filterFor(q store.Query) bson.M {
	filter := bson.M{}
	for _, eq := range q.Where {
		field := fieldName(eq.Field)
		if existing, ok := filter[field]; ok {
			and, _ := filter["$and"].(bson.A)
			filter["$and"] = append(and, bson.M{field: existing}, bson.M{field: eq.Value})
			delete(filter, field)
			continue
		}
		if _, ok := filter["$and"]; ok {
			filter["$and"] = append(filter["$and"].(bson.A), bson.M{field: eq.Value})
			continue
		}
		filter[field] = eq.Value
	}
	if q.AnyOf != nil {
		values := make(bson.A, len(q.AnyOf.Values))
		copy(values, q.AnyOf.Values)
		clause := bson.M{fieldName(q.AnyOf.Field): bson.M{"$in": values}}
		and, _ := filter["$and"].(bson.A)
		filter["$and"] = append(and, clause)
	}
	return filter
}

func fieldName(field string) string {
	if field == "id" {
		return "_id"
	}
	return field
}

// toDocument converts a decoded bson value into a JSON compatible document.
func toDocument(raw bson.M) (store.Document, error) {
	plain, _ := plainValue(raw).(map[string]any)
	if plain == nil {
		plain = map[string]any{}
	}
	if id, ok := plain["_id"]; ok {
		if _, has := plain["id"]; !has {
			plain["id"] = id
		}
		delete(plain, "_id")
	}
	return store.Normalize(plain)
}

func plainValue(value any) any {
	switch v := value.(type) {
	case bson.M:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = plainValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = plainValue(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(v))
		for _, elem := range v {
			out[elem.Key] = plainValue(elem.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}
		return out
	case primitive.DateTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case primitive.ObjectID:
		return v.Hex()
	case primitive.Decimal128:
		return v.String()
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

// toBSON prepares a normalized document for storage keyed by its id.
func toBSON(doc store.Document) bson.M {
	out := bson.M{}
	for k, v := range doc {
		if k == "id" {
			out["_id"] = v
			continue
		}
		out[k] = v
	}
	return out
}
