// Package store is the read contract between the renderers and the
// configuration/content document store, plus the query semantics every
// backend shares.
package store

import (
	"context"
	"fmt"
	"strings"
)

// Document is one stored record. Values are JSON compatible: string,
// float64, bool, nil, []any and map[string]any.
type Document map[string]any

// ID returns the document identity.
func (d Document) ID() string {
	if d == nil {
		return ""
	}
	if id, ok := d["id"].(string); ok {
		return id
	}
	return ""
}

// Eq is an equality filter. A nil Value matches documents where the field is
// missing or null.
type Eq struct {
	Field string
	Value any
}

// Membership is an any-of filter: it matches when a scalar field equals one
// of Values or when an array field contains at least one of Values.
type Membership struct {
	Field  string
	Values []any
}

// Query describes a collection read. Only one membership filter can be active
// per query; callers that need two dimensions must pick one.
type Query struct {
	Collection string
	Where      []Eq
	AnyOf      *Membership
	OrderBy    string
	Desc       bool
	Limit      int
}

// Collection starts a query on name.
func Collection(name string) Query {
	return Query{Collection: name}
}

// Eq adds an equality filter.
func (q Query) Eq(field string, value any) Query {
	q.Where = append(append([]Eq(nil), q.Where...), Eq{Field: field, Value: value})
	return q
}

// In sets the membership filter, replacing any previous one.
func (q Query) In(field string, values ...any) Query {
	q.AnyOf = &Membership{Field: field, Values: append([]any(nil), values...)}
	return q
}

// Order sets the sort field and direction.
func (q Query) Order(field string, desc bool) Query {
	q.OrderBy, q.Desc = field, desc
	return q
}

// Take limits the number of results. Zero means no limit.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Validate reports malformed queries.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Collection) == "" {
		return fmt.Errorf("%w: collection required", ErrInvalidQuery)
	}
	for _, eq := range q.Where {
		if strings.TrimSpace(eq.Field) == "" {
			return fmt.Errorf("%w: equality filter without field", ErrInvalidQuery)
		}
	}
	if q.AnyOf != nil && strings.TrimSpace(q.AnyOf.Field) == "" {
		return fmt.Errorf("%w: membership filter without field", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

// Key renders a canonical string for the query, used as a scope key.
func (q Query) Key() string {
	var b strings.Builder
	b.WriteString(q.Collection)
	for _, eq := range q.Where {
		fmt.Fprintf(&b, "|%s=%v", eq.Field, eq.Value)
	}
	if q.AnyOf != nil {
		fmt.Fprintf(&b, "|%s~%v", q.AnyOf.Field, q.AnyOf.Values)
	}
	if q.OrderBy != "" {
		dir := "asc"
		if q.Desc {
			dir = "desc"
		}
		fmt.Fprintf(&b, "|order=%s:%s", q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, "|limit=%d", q.Limit)
	}
	return b.String()
}

// Snapshot is the point-in-time result of a query. Loading is true until the
// backend delivered its first result; a snapshot that is neither loading nor
// failed with zero documents is a confirmed empty result.
type Snapshot struct {
	Documents []Document
	Loading   bool
	Err       error
}

// Empty reports a confirmed empty result.
func (s Snapshot) Empty() bool {
	return !s.Loading && s.Err == nil && len(s.Documents) == 0
}

// Unsubscribe stops a subscription. It is safe to call more than once.
type Unsubscribe func()

// Reader is what the render path consumes.
type Reader interface {
	Get(ctx context.Context, q Query) ([]Document, error)
	Document(ctx context.Context, collection, id string) (Document, error)
	// Subscribe calls fn with a loading snapshot, then with a fresh snapshot
	// after every change affecting q until the returned func is called or
	// ctx is done. Calls to fn are serialised.
	Subscribe(ctx context.Context, q Query, fn func(Snapshot)) (Unsubscribe, error)
}

// Writer is used by fixtures, telemetry and dashboards.
type Writer interface {
	Put(ctx context.Context, collection string, doc Document) error
	Delete(ctx context.Context, collection, id string) error
}

// Store combines both sides with a lifecycle.
type Store interface {
	Reader
	Writer
	Close(ctx context.Context) error
}

// Read executes q and wraps the outcome as a settled snapshot.
func Read(ctx context.Context, r Reader, q Query) Snapshot {
	docs, err := r.Get(ctx, q)
	if err != nil {
		return Snapshot{Err: err}
	}
	return Snapshot{Documents: docs}
}
