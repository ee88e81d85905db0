package bunstore

import (
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// documentRecord is one row of the shared documents table. The primary key
// is derived from collection and document id, so every collection shares a
// single table.
type documentRecord struct {
	bun.BaseModel `bun:"table:site_documents,alias:sd"`

	ID         uuid.UUID      `bun:",pk,type:uuid"`
	Collection string         `bun:"collection,notnull"`
	DocID      string         `bun:"doc_id,notnull"`
	Body       map[string]any `bun:"body,type:jsonb,notnull"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull"`
	UpdatedAt  time.Time      `bun:"updated_at,nullzero,notnull"`
}

func newDocumentRepository(db *bun.DB) repository.Repository[*documentRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*documentRecord]{
		NewRecord: func() *documentRecord { return &documentRecord{} },
		GetID: func(r *documentRecord) uuid.UUID {
			return r.ID
		},
		SetID: func(r *documentRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(r *documentRecord) string {
			return r.ID.String()
		},
	})
}
