package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/domain/directory"
)

// RegisterRequest for POST /users. Fields are free text; email and
// university id are not checked for uniqueness.
type RegisterRequest struct {
	FullName     string   `json:"full_name" validate:"max=200"`
	Email        string   `json:"email" validate:"max=320"`
	University   string   `json:"university" validate:"max=200"`
	Interests    []string `json:"interests" validate:"max=50,dive,max=100"`
	UniversityID string   `json:"university_id" validate:"max=100"`
}

// Profile converts the request to a directory profile
func (r *RegisterRequest) Profile() directory.Profile {
	return directory.Profile{
		FullName:     r.FullName,
		Email:        r.Email,
		University:   r.University,
		Interests:    r.Interests,
		UniversityID: r.UniversityID,
	}
}

// UpdateProfileRequest for PUT /users/{id}. The body replaces every
// editable field; verification status is kept.
type UpdateProfileRequest struct {
	RegisterRequest
}

// UserResponse represents user in API response
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	University   string    `json:"university"`
	Interests    []string  `json:"interests"`
	UniversityID string    `json:"university_id"`
	Verified     bool      `json:"verified"`
	Online       bool      `json:"online"`
	CreatedAt    string    `json:"created_at"`
}

// TokensResponse represents tokens in API response
type TokensResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds until access token expires
	TokenType   string `json:"token_type"`
}

// AuthResponse returned after register
type AuthResponse struct {
	User   *UserResponse  `json:"user"`
	Tokens TokensResponse `json:"tokens"`
}

// UserResponseFromEntity converts a directory user to response
func UserResponseFromEntity(u *directory.User, online bool) *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		University:   u.University,
		Interests:    u.Interests,
		UniversityID: u.UniversityID,
		Verified:     u.Verified,
		Online:       online,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
}
