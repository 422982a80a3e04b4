package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
)

type UserRepository struct {
	store interfaces.DocumentStore
}

func NewUserRepository(store interfaces.DocumentStore) *UserRepository {
	return &UserRepository{store: store}
}

// Create claims the email in the emails collection before writing the user.
// The claim is a document keyed by the lower-cased email, so of two concurrent
// sign-ups with one email the store lets exactly one through.
func (r *UserRepository) Create(ctx context.Context, user models.User, passwordHash string) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	email := strings.ToLower(user.Email)

	_, err := r.store.CreateDocument(ctx, EmailsCollection, email, map[string]any{"userId": user.ID})
	if errors.Is(err, models.ErrDocumentConflict) {
		return models.User{}, fmt.Errorf("user %s: %w", email, models.ErrEmailTaken)
	}
	if err != nil {
		return models.User{}, err
	}

	doc, err := r.store.CreateDocument(ctx, UsersCollection, user.ID, userFields(user, passwordHash))
	if err != nil {
		if relErr := r.store.DeleteDocument(ctx, EmailsCollection, email); relErr != nil {
			return models.User{}, errors.Join(err, fmt.Errorf("release email claim: %w", relErr))
		}
		return models.User{}, err
	}
	return toUser(doc), nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (models.User, error) {
	doc, err := r.store.GetDocument(ctx, UsersCollection, userID)
	if errors.Is(err, models.ErrDocumentNotFound) {
		return models.User{}, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return models.User{}, err
	}
	return toUser(doc), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (models.User, string, error) {
	list, err := r.store.ListDocuments(ctx, UsersCollection, models.Equal("email", email))
	if err != nil {
		return models.User{}, "", err
	}
	if len(list.Documents) == 0 {
		return models.User{}, "", fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}

	doc := list.Documents[0]
	return toUser(doc), doc.String("passwordHash"), nil
}

var _ interfaces.UserRepository = (*UserRepository)(nil)
