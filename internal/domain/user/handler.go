package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/domain/directory"
	"github.com/orbit/orbit-api/internal/middleware"
	"github.com/orbit/orbit-api/internal/pkg/errorhandler"
	"github.com/orbit/orbit-api/internal/pkg/jwt"
	"github.com/orbit/orbit-api/internal/pkg/response"
	"github.com/orbit/orbit-api/internal/pkg/validator"
)

// Directory is the part of the directory the user handlers use
type Directory interface {
	RegisterUser(ctx context.Context, p directory.Profile) *directory.User
	UpdateUser(ctx context.Context, u directory.User) (*directory.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*directory.User, error)
	ListUsers(ctx context.Context) []*directory.User
}

// Presence reports whether a user has a live event feed connection
type Presence interface {
	IsOnline(userID uuid.UUID) bool
}

// Handler handles user HTTP requests
type Handler struct {
	dir      Directory
	jwt      *jwt.Service
	presence Presence
}

// NewHandler creates user handler. presence may be nil.
func NewHandler(dir Directory, jwtService *jwt.Service, presence Presence) *Handler {
	return &Handler{dir: dir, jwt: jwtService, presence: presence}
}

// Register handles POST /users
// Registration makes the new user the session user; the returned token
// identifies that session on later requests.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if fields := validator.Validate(&req); fields != nil {
		errorhandler.HandleValidation(r.Context(), w, fields)
		return
	}

	u := h.dir.RegisterUser(r.Context(), req.Profile())

	token, err := h.jwt.GenerateAccessToken(u.ID)
	if err != nil {
		errorhandler.HandleInternal(r.Context(), w, err)
		return
	}

	response.Created(w, AuthResponse{
		User: h.toResponse(u),
		Tokens: TokensResponse{
			AccessToken: token,
			ExpiresIn:   int(h.jwt.AccessTTL().Seconds()),
			TokenType:   "Bearer",
		},
	})
}

// List handles GET /users
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users := h.dir.ListUsers(r.Context())
	items := make([]*UserResponse, len(users))
	for i, u := range users {
		items[i] = h.toResponse(u)
	}
	response.List(w, items, len(items))
}

// Me handles GET /users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, r, middleware.GetUserID(r.Context()))
}

// Get handles GET /users/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}
	h.writeUser(w, r, id)
}

// Update handles PUT /users/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	if id != middleware.GetUserID(r.Context()) {
		response.Forbidden(w, "You can only edit your own profile")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if fields := validator.Validate(&req); fields != nil {
		errorhandler.HandleValidation(r.Context(), w, fields)
		return
	}

	current, err := h.dir.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.dir.UpdateUser(r.Context(), directory.User{
		ID:           id,
		FullName:     req.FullName,
		Email:        req.Email,
		University:   req.University,
		Interests:    req.Interests,
		UniversityID: req.UniversityID,
		Verified:     current.Verified,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, h.toResponse(updated))
}

func (h *Handler) writeUser(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	u, err := h.dir.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, h.toResponse(u))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, directory.ErrUserNotFound):
		response.NotFound(w, "User not found")
	default:
		errorhandler.HandleInternal(r.Context(), w, err)
	}
}

func (h *Handler) toResponse(u *directory.User) *UserResponse {
	online := h.presence != nil && h.presence.IsOnline(u.ID)
	return UserResponseFromEntity(u, online)
}
