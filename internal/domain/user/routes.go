package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns user router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Public
	r.Post("/", h.Register)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Get("/me", h.Me)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
	})

	return r
}
