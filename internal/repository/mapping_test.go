package repository

import (
	"encoding/json"
	"testing"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalFieldErrorsNameTheField(t *testing.T) {
	for name, value := range map[string]any{
		"string":      "ten",
		"json number": json.Number("abc"),
	} {
		t.Run(name, func(t *testing.T) {
			doc := models.Document{ID: "a1", Collection: AccountsCollection, Fields: map[string]any{"balance": value}}

			_, err := toAccount(doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "accounts/a1: field balance")
		})
	}

	doc := models.Document{ID: "a1", Collection: AccountsCollection, Fields: map[string]any{"balance": json.Number("12.5")}}
	acc, err := toAccount(doc)
	require.NoError(t, err)
	assert.Equal(t, "12.50", acc.Balance.StringFixed(2))
}
