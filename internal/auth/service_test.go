package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sheikh-saqib/mock-banking-ledger/internal/auth"
	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/repository"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(t *testing.T, c *clock) (*auth.Service, *repository.AccountRepository) {
	t.Helper()
	store := memory.NewMemoryDocumentStore()
	accounts := repository.NewAccountRepository(store)
	svc := auth.NewService(
		repository.NewUserRepository(store),
		repository.NewSessionRepository(store),
		accounts,
		"test-secret",
		time.Hour,
		auth.WithClock(c.now),
		auth.WithBcryptCost(bcrypt.MinCost),
	)
	return svc, accounts
}

func validSignUp() auth.SignUpParams {
	return auth.SignUpParams{
		Email:       "Jane.Doe@Example.com",
		Password:    "correct-horse",
		FirstName:   "Jane",
		LastName:    "Doe",
		Address1:    "1 Main St",
		City:        "Albany",
		State:       "ny",
		PostalCode:  "12207",
		DateOfBirth: "1990-04-01",
		SSN:         "1234",
	}
}

func TestSignUpProvisionsMockBank(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc, accounts := newService(t, c)

	user, token, err := svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", user.Email)
	assert.Equal(t, "NY", user.State)
	assert.NotEmpty(t, token.Value)
	assert.Equal(t, user.ID, token.Session.UserID)

	banks, err := accounts.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, "Demo Bank", banks[0].Name)
	assert.Equal(t, "1000.00", banks[0].Balance.StringFixed(2))
	assert.Equal(t, "7890", banks[0].Mask())

	t.Run("email taken", func(t *testing.T) {
		_, _, err := svc.SignUp(ctx, validSignUp())
		assert.ErrorIs(t, err, models.ErrEmailTaken)
	})

	t.Run("add bank", func(t *testing.T) {
		_, err := svc.AddMockBank(ctx, user.ID)
		require.NoError(t, err)

		banks, err := accounts.ListByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, banks, 2)
	})
}

func TestSignUpValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, &clock{t: time.Now()})

	cases := map[string]func(p *auth.SignUpParams){
		"email":       func(p *auth.SignUpParams) { p.Email = "not-an-email" },
		"password":    func(p *auth.SignUpParams) { p.Password = "short" },
		"first name":  func(p *auth.SignUpParams) { p.FirstName = "Jo" },
		"state":       func(p *auth.SignUpParams) { p.State = "XX" },
		"postal code": func(p *auth.SignUpParams) { p.PostalCode = "1234a" },
		"birth date":  func(p *auth.SignUpParams) { p.DateOfBirth = "01/04/1990" },
		"ssn":         func(p *auth.SignUpParams) { p.SSN = "12345" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validSignUp()
			mutate(&p)
			_, _, err := svc.SignUp(ctx, p)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestSignInAndSessions(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Now()}
	svc, _ := newService(t, c)

	user, _, err := svc.SignUp(ctx, validSignUp())
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, auth.SignInParams{Email: "jane.doe@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, _, err = svc.SignIn(ctx, auth.SignInParams{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	signedIn, token, err := svc.SignIn(ctx, auth.SignInParams{Email: "JANE.DOE@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)

	session, err := svc.GetSession(ctx, token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)

	me, err := svc.CurrentUser(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "Jane", me.FirstName)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.GetSession(ctx, "not.a.token")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		_, expiring, err := svc.SignIn(ctx, auth.SignInParams{Email: "jane.doe@example.com", Password: "correct-horse"})
		require.NoError(t, err)

		c.t = c.t.Add(2 * time.Hour)
		defer func() { c.t = c.t.Add(-2 * time.Hour) }()

		_, err = svc.GetSession(ctx, expiring.Value)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("deleted session is revoked", func(t *testing.T) {
		require.NoError(t, svc.DeleteSession(ctx, token.Value))

		_, err := svc.GetSession(ctx, token.Value)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}

// slowLookups delays list queries so concurrent sign-ups all pass the
// email pre-check before any of them writes.
type slowLookups struct {
	interfaces.DocumentStore
}

func (s slowLookups) ListDocuments(ctx context.Context, collection string, filters ...models.Filter) (models.DocumentList, error) {
	time.Sleep(20 * time.Millisecond)
	return s.DocumentStore.ListDocuments(ctx, collection, filters...)
}

func TestConcurrentSignUpsWithOneEmail(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewMemoryDocumentStore()
	store := slowLookups{DocumentStore: mem}
	svc := auth.NewService(
		repository.NewUserRepository(store),
		repository.NewSessionRepository(store),
		repository.NewAccountRepository(store),
		"test-secret",
		time.Hour,
		auth.WithBcryptCost(bcrypt.MinCost),
	)

	const attempts = 4
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.SignUp(ctx, validSignUp())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, models.ErrEmailTaken)
	}
	assert.Equal(t, 1, succeeded)

	users, err := mem.ListDocuments(ctx, repository.UsersCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, users.Total)

	accounts, err := mem.ListDocuments(ctx, repository.AccountsCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, accounts.Total)
}
