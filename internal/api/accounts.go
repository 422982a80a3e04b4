package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/ledger"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/summary"
	"github.com/shopspring/decimal"
)

const (
	institutionID  = "mock_institution"
	accountType    = "depository"
	accountSubtype = "checking"
)

type accountView struct {
	ID               string `json:"id"`
	ShareableID      string `json:"shareableId"`
	AvailableBalance string `json:"availableBalance"`
	CurrentBalance   string `json:"currentBalance"`
	InstitutionID    string `json:"institutionId"`
	Name             string `json:"name"`
	OfficialName     string `json:"officialName"`
	Mask             string `json:"mask"`
	Type             string `json:"type"`
	Subtype          string `json:"subtype"`
	Currency         string `json:"currency"`
}

func newAccountView(a models.Account) accountView {
	balance := a.Balance.StringFixed(2)
	return accountView{
		ID:               a.ID,
		ShareableID:      a.ShareableID,
		AvailableBalance: balance,
		CurrentBalance:   balance,
		InstitutionID:    institutionID,
		Name:             a.Name,
		OfficialName:     a.Name,
		Mask:             a.Mask(),
		Type:             accountType,
		Subtype:          accountSubtype,
		Currency:         a.Currency,
	}
}

type accountsResponse struct {
	Data                []accountView `json:"data"`
	TotalBanks          int           `json:"totalBanks"`
	TotalCurrentBalance string        `json:"totalCurrentBalance"`
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())
	accounts, err := h.accounts.ListByUser(r.Context(), cred.UserID())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	totals := summary.Summarize(accounts)
	resp := accountsResponse{
		Data:                make([]accountView, 0, len(accounts)),
		TotalBanks:          totals.TotalAccounts,
		TotalCurrentBalance: totals.TotalBalance.StringFixed(2),
	}
	for _, a := range accounts {
		resp.Data = append(resp.Data, newAccountView(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddAccount links another mock bank to the caller.
func (h *Handler) AddAccount(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())
	account, err := h.auth.AddMockBank(r.Context(), cred.UserID())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAccountView(account))
}

type transactionView struct {
	models.Transaction
	Amount string `json:"amount"`
	Status string `json:"status"`
}

type transactionsResponse struct {
	Total        int                     `json:"total"`
	Transactions []transactionView       `json:"transactions"`
	Categories   []summary.CategoryCount `json:"categories"`
}

// ListTransactions returns the transactions of one of the caller's accounts.
// Accounts owned by someone else are reported as not found.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())
	accountID := chi.URLParam(r, "id")

	if _, err := h.ownedAccount(r, cred, accountID); err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.transactions.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	now := h.now()
	resp := transactionsResponse{
		Total:        list.Total,
		Transactions: make([]transactionView, 0, len(list.Transactions)),
		Categories:   summary.CountCategories(list.Transactions),
	}
	for _, tx := range list.Transactions {
		resp.Transactions = append(resp.Transactions, transactionView{
			Transaction: tx,
			Amount:      tx.Amount.StringFixed(2),
			Status:      summary.Status(tx.Date, now),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type transferRequest struct {
	SenderBankID   string          `json:"senderBankId"`
	ReceiverBankID string          `json:"receiverBankId"`
	Amount         decimal.Decimal `json:"amount"`
	Name           string          `json:"name"`
}

type transferResponse struct {
	Transaction transactionView `json:"transaction"`
	Replayed    bool            `json:"replayed"`
}

// Transfer moves money out of one of the caller's accounts. The receiver may
// belong to any user. A repeated Idempotency-Key returns the first result.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())

	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SenderBankID == "" || req.ReceiverBankID == "" {
		writeError(w, http.StatusBadRequest, "senderBankId and receiverBankId are required")
		return
	}

	if _, err := h.ownedAccount(r, cred, req.SenderBankID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sender or receiver bank not found")
			return
		}
		h.fail(w, r, err)
		return
	}

	result, err := h.ledger.Transfer(r.Context(), ledger.TransferRequest{
		SenderBankID:   req.SenderBankID,
		ReceiverBankID: req.ReceiverBankID,
		Amount:         req.Amount,
		Name:           req.Name,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sender or receiver bank not found")
			return
		}
		h.fail(w, r, err)
		return
	}

	code := http.StatusCreated
	if result.Replayed {
		code = http.StatusOK
	}
	tx := result.Transaction
	writeJSON(w, code, transferResponse{
		Transaction: transactionView{
			Transaction: tx,
			Amount:      tx.Amount.StringFixed(2),
			Status:      summary.Status(tx.Date, h.now()),
		},
		Replayed: result.Replayed,
	})
}

func (h *Handler) ownedAccount(r *http.Request, cred Credential, accountID string) (models.Account, error) {
	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		return models.Account{}, err
	}
	if account.UserID != cred.UserID() {
		return models.Account{}, models.ErrNotFound
	}
	return account, nil
}
