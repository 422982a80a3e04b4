// Package summary computes the read-side figures shown on the dashboard.
// All functions are pure and work on already fetched records.
package summary

import (
	"sort"
	"time"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const (
	StatusProcessing = "Processing"
	StatusSuccess    = "Success"
)

// Totals is the aggregate over a user's accounts.
type Totals struct {
	TotalAccounts int             `json:"totalBanks"`
	TotalBalance  decimal.Decimal `json:"totalCurrentBalance"`
}

// Summarize counts the accounts and sums their balances. An empty list gives {0, 0}.
func Summarize(accounts []models.Account) Totals {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return Totals{TotalAccounts: len(accounts), TotalBalance: total}
}

type CategoryCount struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	TotalCount int    `json:"totalCount"`
}

// CountCategories tallies transactions per category, most frequent first.
// Categories with equal counts keep the order in which they were first seen.
func CountCategories(transactions []models.Transaction) []CategoryCount {
	index := make(map[string]int)
	counts := make([]CategoryCount, 0)

	for _, tx := range transactions {
		i, ok := index[tx.Category]
		if !ok {
			i = len(counts)
			index[tx.Category] = i
			counts = append(counts, CategoryCount{Name: tx.Category})
		}
		counts[i].Count++
	}

	for i := range counts {
		counts[i].TotalCount = len(transactions)
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// Status reports a transaction as processing for two days after its date.
func Status(date, now time.Time) string {
	if date.After(now.AddDate(0, 0, -2)) {
		return StatusProcessing
	}
	return StatusSuccess
}
