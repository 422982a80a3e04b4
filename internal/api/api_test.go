package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/api"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/auth"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/ledger"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/repository"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const cookieName = "session"

type client struct {
	t      *testing.T
	router http.Handler
}

func newClient(t *testing.T) *client {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := memory.NewMemoryDocumentStore()

	accounts := repository.NewAccountRepository(store)
	transactions := repository.NewTransactionRepository(store)
	l := ledger.NewLedger(accounts, transactions,
		ledger.WithTransactor(repository.NewTransactor(store)),
		ledger.WithLogger(log),
	)
	authService := auth.NewService(
		repository.NewUserRepository(store),
		repository.NewSessionRepository(store),
		accounts,
		"test-secret",
		time.Hour,
		auth.WithBcryptCost(bcrypt.MinCost),
		auth.WithLogger(log),
	)

	h := api.NewHandler(authService, l, accounts, transactions,
		api.CookieConfig{Name: cookieName, MaxAge: time.Hour}, log)
	return &client{t: t, router: api.NewRouter(h, log)}
}

func (c *client) do(method, path, token string, body any, header map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type session struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

type account struct {
	ID             string `json:"id"`
	CurrentBalance string `json:"currentBalance"`
	Mask           string `json:"mask"`
	Type           string `json:"type"`
}

type accountsBody struct {
	Data                []account `json:"data"`
	TotalBanks          int       `json:"totalBanks"`
	TotalCurrentBalance string    `json:"totalCurrentBalance"`
}

type transfer struct {
	Transaction struct {
		ID       string `json:"id"`
		Amount   string `json:"amount"`
		Status   string `json:"status"`
		Category string `json:"category"`
	} `json:"transaction"`
	Replayed bool `json:"replayed"`
}

type transactionsBody struct {
	Total        int `json:"total"`
	Transactions []struct {
		ID     string `json:"id"`
		Amount string `json:"amount"`
		Status string `json:"status"`
	} `json:"transactions"`
	Categories []struct {
		Name       string `json:"name"`
		Count      int    `json:"count"`
		TotalCount int    `json:"totalCount"`
	} `json:"categories"`
}

func signUpBody(email, first string) map[string]string {
	return map[string]string{
		"email":       email,
		"password":    "correct-horse",
		"firstName":   first,
		"lastName":    "Tester",
		"address1":    "1 Main St",
		"city":        "Albany",
		"state":       "NY",
		"postalCode":  "12207",
		"dateOfBirth": "1990-04-01",
		"ssn":         "1234",
	}
}

func (c *client) signUp(email, first string) session {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/auth/sign-up", "", signUpBody(email, first), nil)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[session](c.t, rec)
}

func (c *client) accounts(token string) accountsBody {
	c.t.Helper()
	rec := c.do(http.MethodGet, "/accounts", token, nil, nil)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[accountsBody](c.t, rec)
}

func TestHealth(t *testing.T) {
	c := newClient(t)
	rec := c.do(http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTransferFlow(t *testing.T) {
	c := newClient(t)

	alice := c.signUp("alice@example.com", "Alice")
	bob := c.signUp("bob@example.com", "Bob")

	aliceAccounts := c.accounts(alice.Token)
	require.Len(t, aliceAccounts.Data, 1)
	assert.Equal(t, 1, aliceAccounts.TotalBanks)
	assert.Equal(t, "1000.00", aliceAccounts.TotalCurrentBalance)
	assert.Equal(t, "7890", aliceAccounts.Data[0].Mask)
	assert.Equal(t, "depository", aliceAccounts.Data[0].Type)

	sender := aliceAccounts.Data[0].ID
	receiver := c.accounts(bob.Token).Data[0].ID

	body := map[string]any{
		"senderBankId":   sender,
		"receiverBankId": receiver,
		"amount":         "250.50",
		"name":           "rent",
	}
	rec := c.do(http.MethodPost, "/transfers", alice.Token, body, map[string]string{"Idempotency-Key": "k-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[transfer](t, rec)
	assert.Equal(t, "250.50", created.Transaction.Amount)
	assert.Equal(t, "Transfer", created.Transaction.Category)
	assert.Equal(t, "Processing", created.Transaction.Status)
	assert.False(t, created.Replayed)

	assert.Equal(t, "749.50", c.accounts(alice.Token).TotalCurrentBalance)
	assert.Equal(t, "1250.50", c.accounts(bob.Token).TotalCurrentBalance)

	t.Run("replay with same idempotency key", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/transfers", alice.Token, body, map[string]string{"Idempotency-Key": "k-1"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		replayed := decode[transfer](t, rec)
		assert.True(t, replayed.Replayed)
		assert.Equal(t, created.Transaction.ID, replayed.Transaction.ID)
		assert.Equal(t, "749.50", c.accounts(alice.Token).TotalCurrentBalance)
	})

	t.Run("transaction history", func(t *testing.T) {
		for _, who := range []struct {
			token, account string
		}{{alice.Token, sender}, {bob.Token, receiver}} {
			rec := c.do(http.MethodGet, "/accounts/"+who.account+"/transactions", who.token, nil, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			list := decode[transactionsBody](t, rec)
			assert.Equal(t, 1, list.Total)
			require.Len(t, list.Transactions, 1)
			assert.Equal(t, created.Transaction.ID, list.Transactions[0].ID)
			require.Len(t, list.Categories, 1)
			assert.Equal(t, "Transfer", list.Categories[0].Name)
			assert.Equal(t, 1, list.Categories[0].TotalCount)
		}
	})

	t.Run("foreign account history is hidden", func(t *testing.T) {
		rec := c.do(http.MethodGet, "/accounts/"+receiver+"/transactions", alice.Token, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("sender must belong to caller", func(t *testing.T) {
		body := map[string]any{"senderBankId": receiver, "receiverBankId": sender, "amount": "1.00"}
		rec := c.do(http.MethodPost, "/transfers", alice.Token, body, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "1250.50", c.accounts(bob.Token).TotalCurrentBalance)
	})

	t.Run("unknown receiver", func(t *testing.T) {
		body := map[string]any{"senderBankId": sender, "receiverBankId": "missing", "amount": "1.00"}
		rec := c.do(http.MethodPost, "/transfers", alice.Token, body, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "749.50", c.accounts(alice.Token).TotalCurrentBalance)
	})

	t.Run("invalid amounts", func(t *testing.T) {
		for _, amount := range []string{"0", "-5", "1.005"} {
			body := map[string]any{"senderBankId": sender, "receiverBankId": receiver, "amount": amount}
			rec := c.do(http.MethodPost, "/transfers", alice.Token, body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, amount)
		}
		assert.Equal(t, "749.50", c.accounts(alice.Token).TotalCurrentBalance)
	})

	t.Run("overdraft is allowed", func(t *testing.T) {
		body := map[string]any{"senderBankId": sender, "receiverBankId": receiver, "amount": "1000.00"}
		rec := c.do(http.MethodPost, "/transfers", alice.Token, body, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "-250.50", c.accounts(alice.Token).TotalCurrentBalance)
	})
}

func TestAddAccount(t *testing.T) {
	c := newClient(t)
	s := c.signUp("carol@example.com", "Carol")

	rec := c.do(http.MethodPost, "/accounts", s.Token, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := c.accounts(s.Token)
	assert.Equal(t, 2, got.TotalBanks)
	assert.Equal(t, "2000.00", got.TotalCurrentBalance)
}

func TestAuthEndpoints(t *testing.T) {
	c := newClient(t)
	s := c.signUp("dave@example.com", "Dave")

	t.Run("duplicate email", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/auth/sign-up", "", signUpBody("dave@example.com", "Dave"), nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid sign-up form", func(t *testing.T) {
		body := signUpBody("erin@example.com", "Erin")
		body["state"] = "ZZ"
		rec := c.do(http.MethodPost, "/auth/sign-up", "", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := c.do(http.MethodGet, "/accounts", "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		rec := c.do(http.MethodGet, "/accounts", "garbage", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me", func(t *testing.T) {
		rec := c.do(http.MethodGet, "/auth/me", s.Token, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		me := decode[struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		}](t, rec)
		assert.Equal(t, s.User.ID, me.ID)
		assert.Equal(t, "dave@example.com", me.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := map[string]string{"email": "dave@example.com", "password": "not-the-one"}
		rec := c.do(http.MethodPost, "/auth/sign-in", "", body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("sign in sets cookie", func(t *testing.T) {
		body := map[string]string{"email": "dave@example.com", "password": "correct-horse"}
		rec := c.do(http.MethodPost, "/auth/sign-in", "", body, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, cookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
		req.AddCookie(cookies[0])
		got := httptest.NewRecorder()
		c.router.ServeHTTP(got, req)
		assert.Equal(t, http.StatusOK, got.Code)
	})

	t.Run("sign out revokes token", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/auth/sign-out", s.Token, nil, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = c.do(http.MethodGet, "/accounts", s.Token, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
