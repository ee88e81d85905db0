// Package mongostore reads and writes site documents in MongoDB, one mongo
// collection per site collection, and turns change streams into live
// snapshots.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goliatone/go-site/internal/logging"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/pkg/interfaces"
)

// Codes the server uses for authorization failures.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
)

// Option customises the store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithChangeStreams enables server side change streams for subscriptions.
// Without them only writes made through this Store refresh subscribers.
func WithChangeStreams(enabled bool) Option {
	return func(s *Store) { s.watch = enabled }
}

// Store implements store.Store over a mongo database.
type Store struct {
	db     *mongo.Database
	hub    *store.Hub
	logger interfaces.Logger
	watch  bool

	mu       sync.Mutex
	watchers map[string]context.CancelFunc
	wg       sync.WaitGroup
	closed   bool
}

var _ store.Store = (*Store)(nil)

// New wraps db.
func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{
		db:       db,
		hub:      store.NewHub(),
		logger:   logging.NoOp(),
		watchers: map[string]context.CancelFunc{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = logging.Ensure(s.logger)
	return s
}

// Get runs the filter on the server and orders in process.
func (s *Store) Get(ctx context.Context, q store.Query) ([]store.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	cur, err := s.db.Collection(q.Collection).Find(ctx, filterFor(q))
	if err != nil {
		return nil, mapError(err, q.Collection, "", "read "+q.Collection)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, mapError(err, q.Collection, "", "read "+q.Collection)
	}
	docs := make([]store.Document, 0, len(raw))
	for _, item := range raw {
		doc, err := toDocument(item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return store.Apply(q, docs), nil
}

// Document loads one document by id.
func (s *Store) Document(ctx context.Context, collection, id string) (store.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		return nil, mapError(err, collection, id, "read "+collection+"/"+id)
	}
	return toDocument(raw)
}

// Put upserts doc by id.
func (s *Store) Put(ctx context.Context, collection string, doc store.Document) error {
	normalized, err := store.Normalize(doc)
	if err != nil {
		return err
	}
	id := normalized.ID()
	if id == "" || strings.TrimSpace(collection) == "" {
		return fmt.Errorf("%w: collection and document id required", store.ErrInvalidQuery)
	}
	_, err = s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id},
		toBSON(normalized),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return mapError(err, collection, id, "write "+collection+"/"+id)
	}
	s.hub.Notify(collection)
	return nil
}

// Delete removes a document by id.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return mapError(err, collection, id, "delete "+collection+"/"+id)
	}
	s.hub.Notify(collection)
	return nil
}

// Subscribe delivers live snapshots, starting a change stream for the
// collection on first use when enabled.
func (s *Store) Subscribe(ctx context.Context, q store.Query, fn func(store.Snapshot)) (store.Unsubscribe, error) {
	unsubscribe, err := s.hub.Subscribe(ctx, q, s.Get, fn)
	if err != nil {
		return nil, err
	}
	if s.watch {
		s.ensureWatcher(q.Collection)
	}
	return unsubscribe, nil
}

// Close stops change streams and subscriptions. The client belongs to the
// caller.
func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	for name, cancel := range s.watchers {
		cancel()
		delete(s.watchers, name)
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.hub.Close()
	return nil
}

func (s *Store) ensureWatcher(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, ok := s.watchers[collection]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.watchers[collection] = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watchCollection(ctx, collection)
	}()
}

func (s *Store) watchCollection(ctx context.Context, collection string) {
	stream, err := s.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("store.watch.unavailable", "collection", collection, "error", err)
		}
		return
	}
	defer stream.Close(context.Background())
	for stream.Next(ctx) {
		s.hub.Notify(collection)
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		s.logger.Warn("store.watch.stopped", "collection", collection, "error", err)
	}
}

func mapError(err error, collection, id, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &store.NotFoundError{Collection: collection, ID: id}
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) &&
		(serverErr.HasErrorCode(codeUnauthorized) || serverErr.HasErrorCode(codeAuthenticationFailed)) {
		return store.PermissionDenied(errors.Join(store.ErrPermissionDenied, err), op)
	}
	return fmt.Errorf("mongostore: %s: %w", op, err)
}
