package interfaces

import (
	"context"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
)

// DocumentStore is the subset of a hosted document database the app relies on.
type DocumentStore interface {
	ListDocuments(ctx context.Context, collection string, filters ...models.Filter) (models.DocumentList, error)
	GetDocument(ctx context.Context, collection, id string) (models.Document, error)
	// CreateDocument assigns an id when id is empty.
	CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (models.Document, error)
	// UpdateDocument merges fields into the stored document.
	UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (models.Document, error)
	DeleteDocument(ctx context.Context, collection, id string) error
}

// TransactionalStore is a DocumentStore that can commit several writes atomically.
type TransactionalStore interface {
	DocumentStore
	RunInTransaction(ctx context.Context, fn func(tx DocumentStore) error) error
}
