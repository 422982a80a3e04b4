package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ChannelOnline    = "online"
	CategoryTransfer = "Transfer"
)

// Transaction is one completed transfer between two accounts.
// It is written once and never updated.
type Transaction struct {
	ID             string          `json:"id"`
	SenderBankID   string          `json:"senderBankId"`   // account document id of the payer
	ReceiverBankID string          `json:"receiverBankId"` // account document id of the payee
	Amount         decimal.Decimal `json:"amount"`
	Name           string          `json:"name"` // memo shown in the UI
	Channel        string          `json:"channel"`
	Category       string          `json:"category"`
	Date           time.Time       `json:"date"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

// TransactionList is the result of querying transactions for one account.
// Total is the sum of the per-query totals, so a self-transfer is counted twice.
type TransactionList struct {
	Total        int           `json:"total"`
	Transactions []Transaction `json:"transactions"`
}
