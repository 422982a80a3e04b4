package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/mockbank"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Token is a signed session token together with the session it refers to.
type Token struct {
	Value   string
	Session models.Session
}

// Service signs users up and in and resolves session tokens.
// Tokens are HS256 JWTs whose jti names a stored session, so deleting the
// session revokes the token.
type Service struct {
	users    interfaces.UserRepository
	sessions interfaces.SessionRepository
	accounts interfaces.AccountRepository

	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
	log        *zap.Logger
	validate   *validator.Validate
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(
	users interfaces.UserRepository,
	sessions interfaces.SessionRepository,
	accounts interfaces.AccountRepository,
	secret string,
	ttl time.Duration,
	opts ...Option,
) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		accounts:   accounts,
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		log:        zap.NewNop(),
		validate:   newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp creates the user, provisions one mock bank account and opens a session.
func (s *Service) SignUp(ctx context.Context, params SignUpParams) (models.User, Token, error) {
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.State = strings.ToUpper(params.State)
	if err := s.validate.Struct(params); err != nil {
		return models.User{}, Token{}, validationError(err)
	}

	_, _, err := s.users.GetByEmail(ctx, params.Email)
	if err == nil {
		return models.User{}, Token{}, models.ErrEmailTaken
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, Token{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return models.User{}, Token{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, models.User{
		ID:          uuid.New().String(),
		Email:       params.Email,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		Address1:    params.Address1,
		City:        params.City,
		State:       params.State,
		PostalCode:  params.PostalCode,
		DateOfBirth: params.DateOfBirth,
		SSN:         params.SSN,
	}, string(hash))
	if err != nil {
		return models.User{}, Token{}, err
	}

	if _, err := s.accounts.Create(ctx, user.ID, mockbank.New(user.Email, s.now())); err != nil {
		return models.User{}, Token{}, fmt.Errorf("provision mock bank: %w", err)
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return models.User{}, Token{}, err
	}

	s.log.Info("user signed up", zap.String("user_id", user.ID))
	return user, token, nil
}

func (s *Service) SignIn(ctx context.Context, params SignInParams) (models.User, Token, error) {
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	if err := s.validate.Struct(params); err != nil {
		return models.User{}, Token{}, validationError(err)
	}

	user, hash, err := s.users.GetByEmail(ctx, params.Email)
	if errors.Is(err, models.ErrNotFound) {
		return models.User{}, Token{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, Token{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(params.Password)); err != nil {
		return models.User{}, Token{}, models.ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return models.User{}, Token{}, err
	}
	return user, token, nil
}

// GetSession resolves a token to its live session.
func (s *Service) GetSession(ctx context.Context, token string) (models.Session, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if errors.Is(err, models.ErrNotFound) {
		return models.Session{}, fmt.Errorf("%w: session revoked", models.ErrUnauthorized)
	}
	if err != nil {
		return models.Session{}, err
	}
	if session.UserID != claims.Subject || !session.ExpiresAt.After(s.now()) {
		return models.Session{}, fmt.Errorf("%w: session expired", models.ErrUnauthorized)
	}
	return session, nil
}

// DeleteSession revokes the session behind token.
func (s *Service) DeleteSession(ctx context.Context, token string) error {
	session, err := s.GetSession(ctx, token)
	if err != nil {
		return err
	}
	return s.sessions.Delete(ctx, session.ID)
}

func (s *Service) CurrentUser(ctx context.Context, session models.Session) (models.User, error) {
	return s.users.GetByID(ctx, session.UserID)
}

// AddMockBank links another mock bank account to the user.
func (s *Service) AddMockBank(ctx context.Context, userID string) (models.Account, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.Account{}, err
	}
	return s.accounts.Create(ctx, user.ID, mockbank.New(user.Email, s.now()))
}

func (s *Service) openSession(ctx context.Context, userID string) (Token, error) {
	now := s.now().UTC()
	session, err := s.sessions.Create(ctx, models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		return Token{}, err
	}

	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign session token: %w", err)
	}
	return Token{Value: signed, Session: session}, nil
}
