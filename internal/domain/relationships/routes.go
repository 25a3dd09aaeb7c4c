package relationships

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns relationships router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// All routes require authentication
	r.Use(authMiddleware)

	r.Post("/blocks/{id}", h.BlockUser)
	r.Get("/blocks", h.ListBlocked)

	return r
}
