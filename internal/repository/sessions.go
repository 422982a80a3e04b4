package repository

import (
	"context"
	"errors"
	"fmt"

	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
)

type SessionRepository struct {
	store interfaces.DocumentStore
}

func NewSessionRepository(store interfaces.DocumentStore) *SessionRepository {
	return &SessionRepository{store: store}
}

func (r *SessionRepository) Create(ctx context.Context, session models.Session) (models.Session, error) {
	doc, err := r.store.CreateDocument(ctx, SessionsCollection, session.ID, sessionFields(session))
	if err != nil {
		return models.Session{}, err
	}
	return toSession(doc)
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (models.Session, error) {
	doc, err := r.store.GetDocument(ctx, SessionsCollection, sessionID)
	if errors.Is(err, models.ErrDocumentNotFound) {
		return models.Session{}, fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, err
	}
	return toSession(doc)
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	err := r.store.DeleteDocument(ctx, SessionsCollection, sessionID)
	if errors.Is(err, models.ErrDocumentNotFound) {
		return fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	return err
}

var _ interfaces.SessionRepository = (*SessionRepository)(nil)
