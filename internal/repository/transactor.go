package repository

import (
	"context"

	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
)

// StoreTransactor hands out repositories bound to one store transaction.
type StoreTransactor struct {
	store interfaces.TransactionalStore
}

func NewTransactor(store interfaces.TransactionalStore) *StoreTransactor {
	return &StoreTransactor{store: store}
}

func (t *StoreTransactor) WithinTransaction(
	ctx context.Context,
	fn func(accounts interfaces.AccountRepository, transactions interfaces.TransactionRepository) error,
) error {
	return t.store.RunInTransaction(ctx, func(tx interfaces.DocumentStore) error {
		return fn(NewAccountRepository(tx), NewTransactionRepository(tx))
	})
}

var _ interfaces.Transactor = (*StoreTransactor)(nil)
