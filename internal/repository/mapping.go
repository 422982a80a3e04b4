package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const (
	AccountsCollection     = "accounts"
	TransactionsCollection = "transactions"
	UsersCollection        = "users"
	SessionsCollection     = "sessions"
	EmailsCollection       = "emails" // document id is the lower-cased email
)

// Money is persisted as a fixed two digit string so every store
// round-trips it without float conversion.
func encodeMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decimalField(doc models.Document, field string) (decimal.Decimal, error) {
	switch v := doc.Fields[field].(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s/%s: field %s: %w", doc.Collection, doc.ID, field, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s/%s: field %s: %w", doc.Collection, doc.ID, field, err)
		}
		return d, nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("%s/%s: field %s has type %T", doc.Collection, doc.ID, field, v)
	}
}

func timeField(doc models.Document, field string) (time.Time, error) {
	switch v := doc.Fields[field].(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s/%s: field %s: %w", doc.Collection, doc.ID, field, err)
		}
		return t, nil
	case time.Time:
		return v, nil
	default:
		return time.Time{}, fmt.Errorf("%s/%s: field %s has type %T", doc.Collection, doc.ID, field, v)
	}
}

func accountFields(userID string, d models.AccountDetails) map[string]any {
	return map[string]any{
		"userId":        userID,
		"bankId":        d.BankID,
		"accountId":     d.ShareableID,
		"accountNumber": d.AccountNumber,
		"routingNumber": d.RoutingNumber,
		"bankName":      d.Name,
		"balance":       encodeMoney(d.Balance),
		"currency":      d.Currency,
		"linkedAt":      encodeTime(d.LinkedAt),
	}
}

func toAccount(doc models.Document) (models.Account, error) {
	balance, err := decimalField(doc, "balance")
	if err != nil {
		return models.Account{}, err
	}
	linkedAt, err := timeField(doc, "linkedAt")
	if err != nil {
		return models.Account{}, err
	}

	return models.Account{
		ID:            doc.ID,
		UserID:        doc.String("userId"),
		BankID:        doc.String("bankId"),
		ShareableID:   doc.String("accountId"),
		Name:          doc.String("bankName"),
		AccountNumber: doc.String("accountNumber"),
		RoutingNumber: doc.String("routingNumber"),
		Balance:       balance,
		Currency:      doc.String("currency"),
		LinkedAt:      linkedAt,
	}, nil
}

func transactionFields(tx models.Transaction) map[string]any {
	fields := map[string]any{
		"senderBankId":   tx.SenderBankID,
		"receiverBankId": tx.ReceiverBankID,
		"amount":         encodeMoney(tx.Amount),
		"name":           tx.Name,
		"channel":        tx.Channel,
		"category":       tx.Category,
		"date":           encodeTime(tx.Date),
	}
	if tx.IdempotencyKey != "" {
		fields["idempotencyKey"] = tx.IdempotencyKey
	}
	return fields
}

func toTransaction(doc models.Document) (models.Transaction, error) {
	amount, err := decimalField(doc, "amount")
	if err != nil {
		return models.Transaction{}, err
	}
	date, err := timeField(doc, "date")
	if err != nil {
		return models.Transaction{}, err
	}

	return models.Transaction{
		ID:             doc.ID,
		SenderBankID:   doc.String("senderBankId"),
		ReceiverBankID: doc.String("receiverBankId"),
		Amount:         amount,
		Name:           doc.String("name"),
		Channel:        doc.String("channel"),
		Category:       doc.String("category"),
		Date:           date,
		IdempotencyKey: doc.String("idempotencyKey"),
	}, nil
}

func userFields(u models.User, passwordHash string) map[string]any {
	return map[string]any{
		"email":        u.Email,
		"firstName":    u.FirstName,
		"lastName":     u.LastName,
		"address1":     u.Address1,
		"city":         u.City,
		"state":        u.State,
		"postalCode":   u.PostalCode,
		"dateOfBirth":  u.DateOfBirth,
		"ssn":          u.SSN,
		"passwordHash": passwordHash,
	}
}

func toUser(doc models.Document) models.User {
	return models.User{
		ID:          doc.ID,
		Email:       doc.String("email"),
		FirstName:   doc.String("firstName"),
		LastName:    doc.String("lastName"),
		Address1:    doc.String("address1"),
		City:        doc.String("city"),
		State:       doc.String("state"),
		PostalCode:  doc.String("postalCode"),
		DateOfBirth: doc.String("dateOfBirth"),
		SSN:         doc.String("ssn"),
	}
}

func sessionFields(s models.Session) map[string]any {
	return map[string]any{
		"userId":    s.UserID,
		"createdAt": encodeTime(s.CreatedAt),
		"expiresAt": encodeTime(s.ExpiresAt),
	}
}

func toSession(doc models.Document) (models.Session, error) {
	created, err := timeField(doc, "createdAt")
	if err != nil {
		return models.Session{}, err
	}
	expires, err := timeField(doc, "expiresAt")
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{
		ID:        doc.ID,
		UserID:    doc.String("userId"),
		CreatedAt: created,
		ExpiresAt: expires,
	}, nil
}
