package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/auth"
	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/ledger"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"go.uber.org/zap"
)

type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Handler serves the JSON API. It holds no per-user state; the caller's
// credential travels in the request context.
type Handler struct {
	auth         *auth.Service
	ledger       *ledger.Ledger
	accounts     interfaces.AccountRepository
	transactions interfaces.TransactionRepository
	cookie       CookieConfig
	log          *zap.Logger
	now          func() time.Time
}

func NewHandler(
	authService *auth.Service,
	l *ledger.Ledger,
	accounts interfaces.AccountRepository,
	transactions interfaces.TransactionRepository,
	cookie CookieConfig,
	log *zap.Logger,
) *Handler {
	return &Handler{
		auth:         authService,
		ledger:       l,
		accounts:     accounts,
		transactions: transactions,
		cookie:       cookie,
		log:          log,
		now:          time.Now,
	}
}

type sessionResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpParams
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setSessionCookie(w, token.Value)
	writeJSON(w, http.StatusCreated, sessionResponse{User: user, Token: token.Value})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req auth.SignInParams
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.auth.SignIn(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setSessionCookie(w, token.Value)
	writeJSON(w, http.StatusOK, sessionResponse{User: user, Token: token.Value})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())
	if err := h.auth.DeleteSession(r.Context(), cred.Token); err != nil {
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())
	user, err := h.auth.CurrentUser(r.Context(), cred.Session)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// fail maps domain errors to status codes. Anything unexpected is logged and
// reported without details.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password. Please check your credentials or reset your password.")
	case errors.Is(err, models.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, models.ErrEmailTaken):
		writeError(w, http.StatusConflict, "An account with this email already exists. Please sign in.")
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		fields := []zap.Field{
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("message", err.Error()),
		}
		var remote *models.RemoteError
		if errors.As(err, &remote) {
			fields = append(fields, zap.String("code", remote.Code), zap.String("type", remote.Type))
		}
		h.log.Error("request failed", fields...)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
