package interfaces

import (
	"context"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"github.com/shopspring/decimal"
)

type AccountRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Account, error)
	GetByID(ctx context.Context, accountID string) (models.Account, error)
	UpdateBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
	Create(ctx context.Context, userID string, details models.AccountDetails) (models.Account, error)
}

type TransactionRepository interface {
	ListByAccount(ctx context.Context, accountID string) (models.TransactionList, error)
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (models.Transaction, bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, user models.User, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	// GetByEmail returns the user together with its stored password hash.
	GetByEmail(ctx context.Context, email string) (models.User, string, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session models.Session) (models.Session, error)
	Get(ctx context.Context, sessionID string) (models.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// Transactor runs fn with repositories bound to a single store transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(accounts AccountRepository, transactions TransactionRepository) error) error
}
