package mockbank

import (
	"fmt"
	"time"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const (
	AccountNumber = "1234567890"
	RoutingNumber = "111000614"
	BankName      = "Demo Bank"
	Currency      = "USD"
)

var OpeningBalance = decimal.RequireFromString("1000.00")

// New builds the details of a synthetic bank account for email, linked at now.
func New(email string, now time.Time) models.AccountDetails {
	id := fmt.Sprintf("mock_%s_%d", email, now.UnixMilli())
	return models.AccountDetails{
		BankID:        id,
		ShareableID:   id,
		Name:          BankName,
		AccountNumber: AccountNumber,
		RoutingNumber: RoutingNumber,
		Balance:       OpeningBalance,
		Currency:      Currency,
		LinkedAt:      now.UTC(),
	}
}
