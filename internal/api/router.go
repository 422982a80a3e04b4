package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up", h.SignUp)
		r.Post("/sign-in", h.SignIn)
		r.With(h.RequireSession).Post("/sign-out", h.SignOut)
		r.With(h.RequireSession).Get("/me", h.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)
		r.Get("/accounts", h.ListAccounts)
		r.Post("/accounts", h.AddAccount)
		r.Get("/accounts/{id}/transactions", h.ListTransactions)
		r.Post("/transfers", h.Transfer)
	})

	return r
}
