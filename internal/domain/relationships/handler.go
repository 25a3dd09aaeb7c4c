package relationships

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/domain/directory"
	"github.com/orbit/orbit-api/internal/middleware"
	"github.com/orbit/orbit-api/internal/pkg/errorhandler"
	"github.com/orbit/orbit-api/internal/pkg/response"
)

// Directory is the part of the directory the block handlers use
type Directory interface {
	BlockUser(ctx context.Context, blockerID, blockedID uuid.UUID) (*directory.BlockResult, error)
	ListBlocked(ctx context.Context, userID uuid.UUID) []uuid.UUID
	GetUser(ctx context.Context, id uuid.UUID) (*directory.User, error)
}

// Handler handles relationship HTTP requests
type Handler struct {
	dir Directory
}

// NewHandler creates relationship handler
func NewHandler(dir Directory) *Handler {
	return &Handler{dir: dir}
}

// BlockUser handles POST /relationships/blocks/{id}
// Blocking removes any chat room shared with the target. Repeating a block
// answers 200 with applied=false unless a room had to be removed again.
func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	targetUserID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	res, err := h.dir.BlockUser(r.Context(), userID, targetUserID)
	if err != nil {
		var verr *directory.ValidationError
		switch {
		case errors.As(err, &verr):
			errorhandler.HandleValidation(r.Context(), w, verr.Fields)
		case errors.Is(err, directory.ErrUserNotFound):
			response.NotFound(w, "User not found")
		default:
			errorhandler.HandleInternal(r.Context(), w, err)
		}
		return
	}

	response.OK(w, BlockResponseFromResult(targetUserID, res))
}

// ListBlocked handles GET /relationships/blocks
func (h *Handler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	blocked := h.dir.ListBlocked(r.Context(), userID)

	// Enrich with profile data
	items := make([]*BlockedUserResponse, 0, len(blocked))
	for _, id := range blocked {
		item := &BlockedUserResponse{UserID: id}
		if u, err := h.dir.GetUser(r.Context(), id); err == nil {
			item.FullName = u.FullName
			item.University = u.University
		}
		items = append(items, item)
	}

	response.List(w, items, len(items))
}
