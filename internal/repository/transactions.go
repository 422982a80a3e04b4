package repository

import (
	"context"

	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
)

// TransactionRepository is the append-only log of transfers.
type TransactionRepository struct {
	store interfaces.DocumentStore
}

func NewTransactionRepository(store interfaces.DocumentStore) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// ListByAccount runs one query for the sender side and one for the receiver side
// and concatenates them. Total is the sum of both totals, so a transaction whose
// sender and receiver are the same account shows up (and counts) twice.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string) (models.TransactionList, error) {
	sent, err := r.store.ListDocuments(ctx, TransactionsCollection, models.Equal("senderBankId", accountID))
	if err != nil {
		return models.TransactionList{}, err
	}
	received, err := r.store.ListDocuments(ctx, TransactionsCollection, models.Equal("receiverBankId", accountID))
	if err != nil {
		return models.TransactionList{}, err
	}

	result := models.TransactionList{
		Total:        sent.Total + received.Total,
		Transactions: make([]models.Transaction, 0, len(sent.Documents)+len(received.Documents)),
	}
	for _, doc := range append(sent.Documents, received.Documents...) {
		tx, err := toTransaction(doc)
		if err != nil {
			return models.TransactionList{}, err
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

func (r *TransactionRepository) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	doc, err := r.store.CreateDocument(ctx, TransactionsCollection, tx.ID, transactionFields(tx))
	if err != nil {
		return models.Transaction{}, err
	}
	return toTransaction(doc)
}

func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (models.Transaction, bool, error) {
	if key == "" {
		return models.Transaction{}, false, nil
	}

	list, err := r.store.ListDocuments(ctx, TransactionsCollection, models.Equal("idempotencyKey", key))
	if err != nil {
		return models.Transaction{}, false, err
	}
	if len(list.Documents) == 0 {
		return models.Transaction{}, false, nil
	}

	tx, err := toTransaction(list.Documents[0])
	if err != nil {
		return models.Transaction{}, false, err
	}
	return tx, true, nil
}

var _ interfaces.TransactionRepository = (*TransactionRepository)(nil)
