package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
)

// collection keeps documents by id plus their insertion order,
// so list results come back in the order they were created.
type collection struct {
	docs  map[string]models.Document
	order []string
}

func (c *collection) clone() *collection {
	cp := &collection{
		docs:  make(map[string]models.Document, len(c.docs)),
		order: append([]string(nil), c.order...),
	}
	for id, doc := range c.docs {
		cp.docs[id] = copyDocument(doc)
	}
	return cp
}

// MemoryDocumentStore is an in-memory implementation of interfaces.TransactionalStore.
// It is safe for concurrent use.
type MemoryDocumentStore struct {
	mu          sync.Mutex
	collections map[string]*collection
	now         func() time.Time
}

// NewMemoryDocumentStore creates an empty store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		collections: make(map[string]*collection),
		now:         time.Now,
	}
}

func (m *MemoryDocumentStore) ListDocuments(ctx context.Context, name string, filters ...models.Filter) (models.DocumentList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(ctx, name, filters)
}

func (m *MemoryDocumentStore) GetDocument(ctx context.Context, name, id string) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(ctx, name, id)
}

func (m *MemoryDocumentStore) CreateDocument(ctx context.Context, name, id string, fields map[string]any) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(ctx, name, id, fields)
}

func (m *MemoryDocumentStore) UpdateDocument(ctx context.Context, name, id string, fields map[string]any) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(ctx, name, id, fields)
}

func (m *MemoryDocumentStore) DeleteDocument(ctx context.Context, name, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delete(ctx, name, id)
}

// RunInTransaction holds the store lock for the whole of fn and restores
// the previous state if fn returns an error.
func (m *MemoryDocumentStore) RunInTransaction(ctx context.Context, fn func(tx interfaces.DocumentStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]*collection, len(m.collections))
	for name, c := range m.collections {
		snapshot[name] = c.clone()
	}

	if err := fn(&txView{store: m}); err != nil {
		m.collections = snapshot
		return err
	}
	return nil
}

// The helpers below expect m.mu to be held.

func (m *MemoryDocumentStore) list(ctx context.Context, name string, filters []models.Filter) (models.DocumentList, error) {
	if err := ctx.Err(); err != nil {
		return models.DocumentList{}, err
	}

	result := models.DocumentList{Documents: []models.Document{}}
	c, ok := m.collections[name]
	if !ok {
		return result, nil
	}

	for _, id := range c.order {
		doc := c.docs[id]
		if matchesAll(doc, filters) {
			result.Documents = append(result.Documents, copyDocument(doc))
		}
	}
	result.Total = len(result.Documents)
	return result, nil
}

func (m *MemoryDocumentStore) get(ctx context.Context, name, id string) (models.Document, error) {
	if err := ctx.Err(); err != nil {
		return models.Document{}, err
	}

	c, ok := m.collections[name]
	if !ok {
		return models.Document{}, fmt.Errorf("%s/%s: %w", name, id, models.ErrDocumentNotFound)
	}
	doc, ok := c.docs[id]
	if !ok {
		return models.Document{}, fmt.Errorf("%s/%s: %w", name, id, models.ErrDocumentNotFound)
	}
	return copyDocument(doc), nil
}

func (m *MemoryDocumentStore) create(ctx context.Context, name, id string, fields map[string]any) (models.Document, error) {
	if err := ctx.Err(); err != nil {
		return models.Document{}, err
	}
	if id == "" {
		id = uuid.New().String()
	}

	c, ok := m.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]models.Document)}
		m.collections[name] = c
	}
	if _, exists := c.docs[id]; exists {
		return models.Document{}, fmt.Errorf("%s/%s: %w", name, id, models.ErrDocumentConflict)
	}

	now := m.now().UTC()
	doc := models.Document{
		ID:         id,
		Collection: name,
		CreatedAt:  now,
		UpdatedAt:  now,
		Fields:     maps.Clone(fields),
	}
	if doc.Fields == nil {
		doc.Fields = map[string]any{}
	}
	c.docs[id] = doc
	c.order = append(c.order, id)
	return copyDocument(doc), nil
}

func (m *MemoryDocumentStore) update(ctx context.Context, name, id string, fields map[string]any) (models.Document, error) {
	doc, err := m.get(ctx, name, id)
	if err != nil {
		return models.Document{}, err
	}

	maps.Copy(doc.Fields, fields)
	doc.UpdatedAt = m.now().UTC()
	m.collections[name].docs[id] = doc
	return copyDocument(doc), nil
}

func (m *MemoryDocumentStore) delete(ctx context.Context, name, id string) error {
	if _, err := m.get(ctx, name, id); err != nil {
		return err
	}

	c := m.collections[name]
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func matchesAll(doc models.Document, filters []models.Filter) bool {
	for _, f := range filters {
		if !f.Matches(doc) {
			return false
		}
	}
	return true
}

// copyDocument returns a copy so callers can't modify stored state.
func copyDocument(doc models.Document) models.Document {
	doc.Fields = maps.Clone(doc.Fields)
	return doc
}

// txView is the store handed to RunInTransaction callbacks. The lock is
// already held by RunInTransaction, so it calls the unlocked helpers.
type txView struct {
	store *MemoryDocumentStore
}

func (t *txView) ListDocuments(ctx context.Context, name string, filters ...models.Filter) (models.DocumentList, error) {
	return t.store.list(ctx, name, filters)
}

func (t *txView) GetDocument(ctx context.Context, name, id string) (models.Document, error) {
	return t.store.get(ctx, name, id)
}

func (t *txView) CreateDocument(ctx context.Context, name, id string, fields map[string]any) (models.Document, error) {
	return t.store.create(ctx, name, id, fields)
}

func (t *txView) UpdateDocument(ctx context.Context, name, id string, fields map[string]any) (models.Document, error) {
	return t.store.update(ctx, name, id, fields)
}

func (t *txView) DeleteDocument(ctx context.Context, name, id string) error {
	return t.store.delete(ctx, name, id)
}

// RunInTransaction on a view joins the enclosing transaction.
func (t *txView) RunInTransaction(ctx context.Context, fn func(tx interfaces.DocumentStore) error) error {
	return fn(t)
}

// Compile-time check: ensure MemoryDocumentStore implements TransactionalStore
var (
	_ interfaces.TransactionalStore = (*MemoryDocumentStore)(nil)
	_ interfaces.TransactionalStore = (*txView)(nil)
)
