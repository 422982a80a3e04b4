package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const TransferCompletedTopic = "transfer_completed"

type TransferCompleted struct {
	TransactionID  string          `json:"transaction_id"`
	SenderBankID   string          `json:"sender_bank_id"`
	ReceiverBankID string          `json:"receiver_bank_id"`
	Amount         decimal.Decimal `json:"amount"`
	Name           string          `json:"name"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
