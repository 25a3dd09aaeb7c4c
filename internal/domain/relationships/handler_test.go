package relationships

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/domain/directory"
	"github.com/orbit/orbit-api/internal/middleware"
)

func blockRequest(h *Handler, actor uuid.UUID, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/relationships/blocks/"+target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", target)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithUserID(ctx, actor)

	rr := httptest.NewRecorder()
	h.BlockUser(rr, req.WithContext(ctx))
	return rr
}

func TestBlockUserRemovesRoomAndReportsOutcome(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewService()
	u1 := dir.RegisterUser(ctx, directory.Profile{FullName: "u1"})
	u2 := dir.RegisterUser(ctx, directory.Profile{FullName: "u2", University: "Tech"})
	req, err := dir.SubmitMeetupRequest(ctx, directory.SubmitMeetupInput{
		CreatorID: u2.ID, Location: "l", Topic: "t", ConversationStarter: "c",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := dir.ApproveMeetupRequest(ctx, req.ID, u1.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	h := NewHandler(dir)

	rr := blockRequest(h, u1.ID, u2.ID.String())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	var first struct {
		Data BlockResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !first.Data.Applied || len(first.Data.RemovedRoomIDs) != 1 {
		t.Fatalf("expected applied block removing one room, got %+v", first.Data)
	}
	if len(dir.ListRooms(ctx, uuid.Nil)) != 0 {
		t.Fatal("expected zero rooms")
	}

	rr = blockRequest(h, u1.ID, u2.ID.String())
	var second struct {
		Data BlockResponse `json:"data"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &second)
	if rr.Code != http.StatusOK || second.Data.Applied || second.Data.Outcome != "no_op" {
		t.Fatalf("expected no-op on repeat, got %d %+v", rr.Code, second.Data)
	}

	list := httptest.NewRequest(http.MethodGet, "/api/v1/relationships/blocks", nil)
	lr := httptest.NewRecorder()
	h.ListBlocked(lr, list.WithContext(middleware.WithUserID(list.Context(), u1.ID)))
	var listed struct {
		Data []BlockedUserResponse `json:"data"`
	}
	if err := json.Unmarshal(lr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Data) != 1 || listed.Data[0].UserID != u2.ID || listed.Data[0].University != "Tech" {
		t.Fatalf("unexpected blocked list %+v", listed.Data)
	}
}

func TestBlockUserErrors(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewService()
	u1 := dir.RegisterUser(ctx, directory.Profile{FullName: "u1"})
	h := NewHandler(dir)

	cases := []struct {
		name   string
		target string
		want   int
	}{
		{"self", u1.ID.String(), http.StatusUnprocessableEntity},
		{"unknown", uuid.NewString(), http.StatusNotFound},
		{"malformed", "nope", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rr := blockRequest(h, u1.ID, tc.target); rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}
}
