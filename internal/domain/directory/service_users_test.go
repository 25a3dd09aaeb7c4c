package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tick := 0
	return NewService(WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))
}

func register(t *testing.T, s *Service, name string) *User {
	t.Helper()
	return s.RegisterUser(context.Background(), Profile{
		FullName:   name,
		Email:      name + "@campus.test",
		University: "State University",
		Interests:  []string{"chess", "chess", "hiking"},
	})
}

func TestRegisterUserSetsCurrentUser(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first := register(t, s, "ana")
	second := register(t, s, "ben")

	if first.ID == uuid.Nil || first.ID == second.ID {
		t.Fatalf("expected distinct non-nil ids, got %s and %s", first.ID, second.ID)
	}
	if first.Verified {
		t.Fatal("expected new users to be unverified")
	}
	if len(first.Interests) != 3 || first.Interests[0] != "chess" || first.Interests[1] != "chess" {
		t.Fatalf("expected interests kept in order with duplicates, got %v", first.Interests)
	}

	current, ok := s.CurrentUser(ctx)
	if !ok || current.ID != second.ID {
		t.Fatalf("expected current user %s, got %+v", second.ID, current)
	}
}

func TestCurrentUserEmptyDirectory(t *testing.T) {
	if _, ok := newTestService(t).CurrentUser(context.Background()); ok {
		t.Fatal("expected no current user")
	}
}

func TestRegisterUserDoesNotEnforceUniqueEmail(t *testing.T) {
	s := newTestService(t)

	register(t, s, "ana")
	register(t, s, "ana")

	if got := len(s.ListUsers(context.Background())); got != 2 {
		t.Fatalf("expected 2 users with the same email, got %d", got)
	}
}

func TestUpdateUserUnknownIDChangesNothing(t *testing.T) {
	s := newTestService(t)
	ana := register(t, s, "ana")

	_, err := s.UpdateUser(context.Background(), User{ID: uuid.New(), FullName: "ghost"})
	if !errors.Is(err, ErrUserNotFound) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	users := s.ListUsers(context.Background())
	if len(users) != 1 || users[0].FullName != ana.FullName {
		t.Fatalf("expected directory unchanged, got %+v", users)
	}
}

func TestUpdateUserReplacesInPlace(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	ana := register(t, s, "ana")
	ben := register(t, s, "ben")

	edited := *ana
	edited.FullName = "Ana Lima"
	edited.Interests = []string{"jazz"}
	edited.Verified = true
	edited.CreatedAt = time.Time{}

	updated, err := s.UpdateUser(ctx, edited)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != ana.ID || !updated.CreatedAt.Equal(ana.CreatedAt) {
		t.Fatalf("expected id and created_at preserved, got %+v", updated)
	}

	users := s.ListUsers(ctx)
	if len(users) != 2 || users[0].ID != ana.ID || users[1].ID != ben.ID {
		t.Fatalf("expected registration order kept, got %+v", users)
	}
	if users[0].FullName != "Ana Lima" || !users[0].Verified {
		t.Fatalf("expected stored record replaced, got %+v", users[0])
	}
}

func TestUpdateUserRefreshesCurrentUser(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	ana := register(t, s, "ana")
	ana.University = "Tech Institute"
	if _, err := s.UpdateUser(ctx, *ana); err != nil {
		t.Fatalf("update: %v", err)
	}

	current, ok := s.CurrentUser(ctx)
	if !ok || current.University != "Tech Institute" {
		t.Fatalf("expected current user to reflect edit, got %+v", current)
	}
}

func TestReturnedUserDoesNotAliasStore(t *testing.T) {
	s := newTestService(t)
	ana := register(t, s, "ana")

	ana.Interests[0] = "mutated"
	ana.FullName = "mutated"

	stored, err := s.GetUser(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.FullName == "mutated" || stored.Interests[0] == "mutated" {
		t.Fatalf("expected store unaffected by caller mutation, got %+v", stored)
	}
}
