// Package memory is an in-process document store used by previews, fixtures
// and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/goliatone/go-site/internal/store"
)

// Store keeps collections in insertion order. Reads return deep copies.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	hub         *store.Hub
	denied      map[string]bool
}

type collection struct {
	order []string
	docs  map[string]store.Document
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		collections: map[string]*collection{},
		hub:         store.NewHub(),
		denied:      map[string]bool{},
	}
}

// Deny makes every read of collection fail with a permission error. It
// mirrors hosted backends whose access rules reject anonymous reads.
func (s *Store) Deny(name string) {
	s.mu.Lock()
	s.denied[name] = true
	s.mu.Unlock()
	s.hub.Notify(name)
}

// Allow reverts Deny.
func (s *Store) Allow(name string) {
	s.mu.Lock()
	delete(s.denied, name)
	s.mu.Unlock()
	s.hub.Notify(name)
}

// Put inserts or replaces doc. The document must carry a non-empty id.
func (s *Store) Put(ctx context.Context, name string, doc store.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := store.Normalize(doc)
	if err != nil {
		return err
	}
	id := normalized.ID()
	if id == "" {
		return fmt.Errorf("%w: document without id in %s", store.ErrInvalidQuery, name)
	}
	s.mu.Lock()
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: map[string]store.Document{}}
		s.collections[name] = c
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = normalized
	s.mu.Unlock()
	s.hub.Notify(name)
	return nil
}

// Delete removes a document. Missing documents are not an error.
func (s *Store) Delete(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	c, ok := s.collections[name]
	if ok {
		if _, exists := c.docs[id]; exists {
			delete(c.docs, id)
			c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })
		} else {
			ok = false
		}
	}
	s.mu.Unlock()
	if ok {
		s.hub.Notify(name)
	}
	return nil
}

// Get evaluates q against the current contents.
func (s *Store) Get(ctx context.Context, q store.Query) ([]store.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.denied[q.Collection] {
		return nil, store.PermissionDenied(store.ErrPermissionDenied, "read "+q.Collection)
	}
	c, ok := s.collections[q.Collection]
	if !ok {
		return []store.Document{}, nil
	}
	docs := make([]store.Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, c.docs[id])
	}
	return store.CloneAll(store.Apply(q, docs)), nil
}

// Document fetches one document by id.
func (s *Store) Document(ctx context.Context, name, id string) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.denied[name] {
		return nil, store.PermissionDenied(store.ErrPermissionDenied, "read "+name+"/"+id)
	}
	if c, ok := s.collections[name]; ok {
		if doc, ok := c.docs[id]; ok {
			return store.Clone(doc), nil
		}
	}
	return nil, &store.NotFoundError{Collection: name, ID: id}
}

// Subscribe delivers live snapshots for q.
func (s *Store) Subscribe(ctx context.Context, q store.Query, fn func(store.Snapshot)) (store.Unsubscribe, error) {
	return s.hub.Subscribe(ctx, q, s.Get, fn)
}

// Close stops all subscriptions.
func (s *Store) Close(context.Context) error {
	s.hub.Close()
	return nil
}
