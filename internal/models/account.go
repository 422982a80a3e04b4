package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a (mock) bank account linked to one user.
type Account struct {
	ID            string          `json:"id"`     // document id, used as senderBankId/receiverBankId
	UserID        string          `json:"userId"` // owning user
	BankID        string          `json:"bankId"`
	ShareableID   string          `json:"shareableId"`
	Name          string          `json:"name"`
	AccountNumber string          `json:"-"`
	RoutingNumber string          `json:"routingNumber"`
	Balance       decimal.Decimal `json:"currentBalance"` // no floor, overdraft is allowed
	Currency      string          `json:"currency"`
	LinkedAt      time.Time       `json:"linkedAt"`
}

// Mask returns the last four digits of the account number.
func (a Account) Mask() string {
	if len(a.AccountNumber) <= 4 {
		return a.AccountNumber
	}
	return a.AccountNumber[len(a.AccountNumber)-4:]
}

// AccountDetails are the caller supplied fields of a new account.
type AccountDetails struct {
	BankID        string
	ShareableID   string
	Name          string
	AccountNumber string
	RoutingNumber string
	Balance       decimal.Decimal
	Currency      string
	LinkedAt      time.Time
}
