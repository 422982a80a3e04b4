package repository

import (
	"context"
	"errors"
	"fmt"

	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// AccountRepository stores accounts in the accounts collection.
type AccountRepository struct {
	store interfaces.DocumentStore
}

func NewAccountRepository(store interfaces.DocumentStore) *AccountRepository {
	return &AccountRepository{store: store}
}

// ListByUser returns the user's accounts in store order; no accounts is not an error.
func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]models.Account, error) {
	list, err := r.store.ListDocuments(ctx, AccountsCollection, models.Equal("userId", userID))
	if err != nil {
		return nil, err
	}

	accounts := make([]models.Account, 0, len(list.Documents))
	for _, doc := range list.Documents {
		a, err := toAccount(doc)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (models.Account, error) {
	doc, err := r.store.GetDocument(ctx, AccountsCollection, accountID)
	if errors.Is(err, models.ErrDocumentNotFound) {
		return models.Account{}, fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}
	if err != nil {
		return models.Account{}, err
	}
	return toAccount(doc)
}

// UpdateBalance overwrites the stored balance. There is no version check.
func (r *AccountRepository) UpdateBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	_, err := r.store.UpdateDocument(ctx, AccountsCollection, accountID, map[string]any{
		"balance": encodeMoney(balance),
	})
	if errors.Is(err, models.ErrDocumentNotFound) {
		return fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}
	return err
}

func (r *AccountRepository) Create(ctx context.Context, userID string, details models.AccountDetails) (models.Account, error) {
	doc, err := r.store.CreateDocument(ctx, AccountsCollection, "", accountFields(userID, details))
	if err != nil {
		return models.Account{}, err
	}
	return toAccount(doc)
}

var _ interfaces.AccountRepository = (*AccountRepository)(nil)
