package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrTransferCompensated means a write failed after the sender was debited
// and the original balances were written back.
var ErrTransferCompensated = errors.New("transfer failed and was rolled back")

// PartialTransferError means a transfer failed midway and the balances could
// not be restored. Money has left the sender without a matching credit or record.
type PartialTransferError struct {
	SenderBankID    string
	ReceiverBankID  string
	Amount          decimal.Decimal
	Step            string
	Err             error
	CompensationErr error
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf("partial transfer %s -> %s (%s): %s failed: %v; restoring balances failed: %v",
		e.SenderBankID, e.ReceiverBankID, e.Amount.StringFixed(2), e.Step, e.Err, e.CompensationErr)
}

func (e *PartialTransferError) Unwrap() []error {
	return []error{e.Err, e.CompensationErr}
}
