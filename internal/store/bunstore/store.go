// Package bunstore persists site documents in a SQL database through bun and
// go-repository-bun.
package bunstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-site/internal/identity"
	"github.com/goliatone/go-site/internal/logging"
	"github.com/goliatone/go-site/internal/store"
	"github.com/goliatone/go-site/pkg/interfaces"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"

	documentNamespace = "site_document"
	maxListRows       = 10000
)

// Open wraps an existing connection with the bun dialect matching name.
func Open(db *sql.DB, dialect string) (*bun.DB, error) {
	if db == nil {
		return nil, fmt.Errorf("bunstore: nil sql db")
	}
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "", DialectSQLite, "sqlite3":
		return bun.NewDB(db, sqlitedialect.New()), nil
	case DialectPostgres, "pg":
		return bun.NewDB(db, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("bunstore: unsupported dialect %q", dialect)
	}
}

// Migrate creates the documents table when it does not exist.
func Migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*documentRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("bunstore: create documents table: %w", err)
	}
	_, err := db.NewCreateIndex().
		Model((*documentRecord)(nil)).
		Index("site_documents_collection_idx").
		Column("collection", "created_at").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bunstore: create documents index: %w", err)
	}
	return nil
}

// Option customises the store.
type Option func(*Store)

// WithCache decorates the repository with go-repository-cache.
func WithCache(service cache.CacheService, serializer cache.KeySerializer) Option {
	return func(s *Store) {
		s.cacheService = service
		s.serializer = serializer
	}
}

// WithLogger sets the store logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithNow overrides the clock used for row timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store implements store.Store on top of a bun database. Queries select the
// collection in SQL and evaluate the remaining filters with store.Apply so
// results match the other backends exactly. Subscriptions observe writes
// made through this Store.
type Store struct {
	db           *bun.DB
	repo         repository.Repository[*documentRecord]
	cacheService cache.CacheService
	serializer   cache.KeySerializer
	cachePrefix  string
	hub          *store.Hub
	logger       interfaces.Logger
	now          func() time.Time
}

var _ store.Store = (*Store)(nil)

// New builds a store over db. Call Migrate first on fresh databases.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		hub:    store.NewHub(),
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	base := newDocumentRepository(db)
	if s.cacheService != nil && s.serializer != nil {
		base = repositorycache.New(base, s.cacheService, s.serializer)
		s.cachePrefix = documentNamespace + cache.KeySeparator
	} else {
		s.cacheService = nil
	}
	s.repo = base
	s.logger = logging.Ensure(s.logger)
	return s
}

// Get lists the collection and evaluates q in process.
func (s *Store) Get(ctx context.Context, q store.Query) ([]store.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.collection = ?", q.Collection).
				OrderExpr("?TableAlias.created_at ASC")
		}),
		repository.SelectPaginate(maxListRows, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, q.Collection, "")
	}
	docs := make([]store.Document, 0, len(records))
	for _, record := range records {
		docs = append(docs, toDocument(record))
	}
	return store.Apply(q, docs), nil
}

// Document loads one document by id.
func (s *Store) Document(ctx context.Context, collection, id string) (store.Document, error) {
	record, err := s.repo.GetByID(ctx, identity.DocumentUUID(collection, id).String())
	if err != nil {
		return nil, mapRepositoryError(err, collection, id)
	}
	return toDocument(record), nil
}

// Put inserts or updates doc keyed by its id.
func (s *Store) Put(ctx context.Context, collection string, doc store.Document) error {
	normalized, err := store.Normalize(doc)
	if err != nil {
		return err
	}
	id := normalized.ID()
	if id == "" || strings.TrimSpace(collection) == "" {
		return fmt.Errorf("%w: collection and document id required", store.ErrInvalidQuery)
	}
	key := identity.DocumentUUID(collection, id)
	now := s.now().UTC()

	existing, err := s.repo.GetByID(ctx, key.String())
	switch {
	case err == nil:
		existing.Body = normalized
		existing.UpdatedAt = now
		if _, err := s.repo.Update(ctx, existing); err != nil {
			return fmt.Errorf("bunstore: update %s/%s: %w", collection, id, err)
		}
	case goerrors.IsCategory(err, repository.CategoryDatabaseNotFound):
		record := &documentRecord{
			ID:         key,
			Collection: collection,
			DocID:      id,
			Body:       normalized,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := s.repo.Create(ctx, record); err != nil {
			return fmt.Errorf("bunstore: create %s/%s: %w", collection, id, err)
		}
	default:
		return mapRepositoryError(err, collection, id)
	}
	s.changed(ctx, collection)
	return nil
}

// Delete removes a document. Missing documents are not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	err := s.repo.Delete(ctx, &documentRecord{ID: identity.DocumentUUID(collection, id)})
	if err != nil && !goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return fmt.Errorf("bunstore: delete %s/%s: %w", collection, id, err)
	}
	s.changed(ctx, collection)
	return nil
}

// Subscribe delivers snapshots on every write made through this store.
func (s *Store) Subscribe(ctx context.Context, q store.Query, fn func(store.Snapshot)) (store.Unsubscribe, error) {
	return s.hub.Subscribe(ctx, q, s.Get, fn)
}

// InvalidateCache drops cached document reads.
func (s *Store) InvalidateCache(ctx context.Context) error {
	if s.cacheService == nil || s.cachePrefix == "" {
		return nil
	}
	return s.cacheService.DeleteByPrefix(ctx, s.cachePrefix)
}

// Close stops subscriptions. The database handle belongs to the caller.
func (s *Store) Close(context.Context) error {
	s.hub.Close()
	return nil
}

func (s *Store) changed(ctx context.Context, collection string) {
	if err := s.InvalidateCache(ctx); err != nil {
		s.logger.Warn("store.cache.invalidate_failed", "collection", collection, "error", err)
	}
	s.hub.Notify(collection)
}

func toDocument(record *documentRecord) store.Document {
	if record == nil {
		return nil
	}
	doc := store.Clone(record.Body)
	if doc == nil {
		doc = store.Document{}
	}
	if doc.ID() == "" {
		doc["id"] = record.DocID
	}
	return doc
}

func mapRepositoryError(err error, collection, id string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &store.NotFoundError{Collection: collection, ID: id}
	}
	return fmt.Errorf("%s repository error: %w", collection, err)
}
