package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"go.uber.org/zap"
)

type credentialKey struct{}

// Credential is the authenticated caller of one request.
type Credential struct {
	Token   string
	Session models.Session
}

func (c Credential) UserID() string {
	return c.Session.UserID
}

func withCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, c)
}

func CredentialFrom(ctx context.Context) (Credential, bool) {
	c, ok := ctx.Value(credentialKey{}).(Credential)
	return c, ok
}

// RequireSession resolves the bearer token (or session cookie) and stores the
// caller's credential in the request context.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.tokenFrom(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session")
			return
		}

		session, err := h.auth.GetSession(r.Context(), token)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		ctx := withCredential(r.Context(), Credential{Token: token, Session: session})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) tokenFrom(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(h.cookie.Name); err == nil {
		return c.Value
	}
	return ""
}

// RequestLogger writes one access log line per request.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
