package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestMatchThenBlockRemovesRoom(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	u1 := register(t, s, "u1")
	u2 := register(t, s, "u2")

	approve(t, s, submit(t, s, u2), u1)
	if n := roomsWith(s, u1.ID, u2.ID); n != 1 {
		t.Fatalf("expected one room after match, got %d", n)
	}

	res, err := s.BlockUser(ctx, u1.ID, u2.ID)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if res.Outcome != OutcomeApplied || len(res.RemovedRoomIDs) != 1 {
		t.Fatalf("expected block applied with one room removed, got %+v", res)
	}
	if got := len(s.ListRooms(ctx, uuid.Nil)); got != 0 {
		t.Fatalf("expected zero rooms, got %d", got)
	}
}

func TestBlockedSideCanAlsoRemoveRoom(t *testing.T) {
	s := newTestService(t)
	u1 := register(t, s, "u1")
	u2 := register(t, s, "u2")
	u3 := register(t, s, "u3")

	approve(t, s, submit(t, s, u1), u2)
	approve(t, s, submit(t, s, u1), u3)

	if _, err := s.BlockUser(context.Background(), u2.ID, u1.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	if roomsWith(s, u1.ID, u2.ID) != 0 {
		t.Fatal("expected room between u1 and u2 removed")
	}
	if roomsWith(s, u1.ID, u3.ID) != 1 {
		t.Fatal("expected unrelated room kept")
	}
}

func TestBlockDoesNotPreventRematch(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	u1 := register(t, s, "u1")
	u2 := register(t, s, "u2")

	approve(t, s, submit(t, s, u2), u1)
	if _, err := s.BlockUser(ctx, u1.ID, u2.ID); err != nil {
		t.Fatalf("block: %v", err)
	}

	res := approve(t, s, submit(t, s, u2), u1)
	if res.Room == nil || roomsWith(s, u1.ID, u2.ID) != 1 {
		t.Fatal("expected a later match to re-create the room")
	}

	// The existing block entry still removes the re-created room.
	again, err := s.BlockUser(ctx, u1.ID, u2.ID)
	if err != nil {
		t.Fatalf("block again: %v", err)
	}
	if again.Outcome != OutcomeApplied || roomsWith(s, u1.ID, u2.ID) != 0 {
		t.Fatalf("expected re-created room removed, got %+v", again)
	}
	if got := len(s.ListBlocked(ctx, u1.ID)); got != 1 {
		t.Fatalf("expected a single block entry, got %d", got)
	}
}

func TestBlockTwiceIsNoOp(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	u1 := register(t, s, "u1")
	u2 := register(t, s, "u2")

	if _, err := s.BlockUser(ctx, u1.ID, u2.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	res, err := s.BlockUser(ctx, u1.ID, u2.ID)
	if err != nil {
		t.Fatalf("block again: %v", err)
	}
	if res.Outcome != OutcomeNoOp {
		t.Fatalf("expected no-op, got %s", res.Outcome)
	}
	if got := s.ListBlocked(ctx, u1.ID); len(got) != 1 || got[0] != u2.ID {
		t.Fatalf("expected one block entry, got %v", got)
	}
}

// Reverse-direction blocking is not supported.
func TestBlockIsNotSymmetric(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	u1 := register(t, s, "u1")
	u2 := register(t, s, "u2")

	if _, err := s.BlockUser(ctx, u1.ID, u2.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	if !s.HasBlocked(ctx, u1.ID, u2.ID) {
		t.Fatal("expected u1 to block u2")
	}
	if s.HasBlocked(ctx, u2.ID, u1.ID) {
		t.Fatal("expected no reverse block")
	}
}

// Unblocking is not supported.
func TestUnblockNotSupported(t *testing.T) {
	var svc interface{} = NewService()
	if _, ok := svc.(interface {
		UnblockUser(context.Context, uuid.UUID, uuid.UUID) (*BlockResult, error)
	}); ok {
		t.Fatal("directory unexpectedly exposes UnblockUser")
	}
}

func TestBlockRejectsSelfAndUnknownUsers(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	u1, u2, _ := matchedRoom(t, s)

	if _, err := s.BlockUser(ctx, u1.ID, u1.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self block, got %v", err)
	}
	if _, err := s.BlockUser(ctx, u1.ID, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if roomsWith(s, u1.ID, u2.ID) != 1 {
		t.Fatal("expected room untouched by rejected blocks")
	}
	if len(s.ListBlocked(ctx, u1.ID)) != 0 {
		t.Fatal("expected no block entries")
	}
}
