package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns chat router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// All routes require authentication
	r.Use(authMiddleware)

	r.Get("/rooms", h.ListRooms)
	r.Get("/rooms/{id}", h.GetRoom)
	r.Get("/rooms/{id}/messages", h.GetMessages)
	r.Post("/rooms/{id}/messages", h.SendMessage)

	return r
}

// WSRoute returns the WebSocket handler. Browsers cannot set headers on the
// upgrade request, so the token may also come as ?token=xxx.
func (h *Handler) WSRoute(authMiddleware func(http.Handler) http.Handler) http.HandlerFunc {
	protected := authMiddleware(http.HandlerFunc(h.WebSocket))
	return func(w http.ResponseWriter, r *http.Request) {
		if token := r.URL.Query().Get("token"); token != "" && r.Header.Get("Authorization") == "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		protected.ServeHTTP(w, r)
	}
}
