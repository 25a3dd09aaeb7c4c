package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/pkg/logger"
)

// RegisterUser creates a user with a fresh id and makes it the current user
// of the session. Email and university id are not checked for uniqueness.
func (s *Service) RegisterUser(ctx context.Context, p Profile) *User {
	s.lockWrite()

	u := &User{
		ID:           s.newID(),
		FullName:     p.FullName,
		Email:        p.Email,
		University:   p.University,
		Interests:    append([]string{}, p.Interests...),
		UniversityID: p.UniversityID,
		CreatedAt:    s.now(),
	}
	s.users[u.ID] = u
	s.userOrder = append(s.userOrder, u.ID)
	s.currentUserID = u.ID

	out := u.clone()
	ev := s.event(EventUserRegistered, u.ID)
	ev.UserID = u.ID
	ev.Data = u.clone()

	logger.LogDebug(ctx, "user registered", "user_id", u.ID.String())
	s.unlockAndPublish(ctx, []Event{ev})
	return out
}

// UpdateUser replaces the stored record with the same id. The id and
// registration time are kept; an unknown id changes nothing.
func (s *Service) UpdateUser(ctx context.Context, updated User) (*User, error) {
	s.lockWrite()

	existing, ok := s.users[updated.ID]
	if !ok {
		s.unlockWrite()
		logger.LogDebug(ctx, "update skipped: unknown user", "user_id", updated.ID.String())
		return nil, ErrUserNotFound
	}

	next := updated.clone()
	next.ID = existing.ID
	next.CreatedAt = existing.CreatedAt
	if next.Interests == nil {
		next.Interests = []string{}
	}
	s.users[next.ID] = next

	out := next.clone()
	ev := s.event(EventUserUpdated, next.ID)
	ev.UserID = next.ID
	ev.Data = next.clone()

	logger.LogDebug(ctx, "user updated", "user_id", next.ID.String())
	s.unlockAndPublish(ctx, []Event{ev})
	return out, nil
}

// GetUser returns user by ID
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u.clone(), nil
}

// ListUsers returns all users in registration order
func (s *Service) ListUsers(ctx context.Context) []*User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id].clone())
	}
	return out
}

// CurrentUser returns the most recently registered user of this session,
// reflecting any later profile edits.
func (s *Service) CurrentUser(ctx context.Context) (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[s.currentUserID]
	if !ok {
		return nil, false
	}
	return u.clone(), true
}

func (s *Service) userExists(id uuid.UUID) bool {
	_, ok := s.users[id]
	return ok
}
