package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/domain/directory"
	"github.com/orbit/orbit-api/internal/middleware"
	"github.com/orbit/orbit-api/internal/pkg/jwt"
)

type stubPresence map[uuid.UUID]bool

func (p stubPresence) IsOnline(id uuid.UUID) bool { return p[id] }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func do(t *testing.T, srv http.Handler, method, path, token, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, rr.Body.String())
	}
	return rr.Code, env
}

func registerVia(t *testing.T, srv http.Handler, body string) AuthResponse {
	t.Helper()
	code, env := do(t, srv, http.MethodPost, "/", "", body)
	if code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", code)
	}
	var auth AuthResponse
	if err := json.Unmarshal(env.Data, &auth); err != nil {
		t.Fatalf("decode auth: %v", err)
	}
	return auth
}

func newTestRouter(presence Presence) (http.Handler, *directory.Service) {
	dir := directory.NewService()
	jwtSvc := jwt.NewService("test-secret", time.Hour)
	h := NewHandler(dir, jwtSvc, presence)
	return h.Routes(middleware.Auth(jwtSvc)), dir
}

func TestRegisterIssuesSessionToken(t *testing.T) {
	srv, dir := newTestRouter(nil)

	auth := registerVia(t, srv, `{"full_name":"Ana Lima","email":"ana@campus.test","interests":["go","chess"]}`)
	if auth.Tokens.AccessToken == "" || auth.Tokens.TokenType != "Bearer" || auth.Tokens.ExpiresIn != 3600 {
		t.Fatalf("unexpected tokens %+v", auth.Tokens)
	}

	code, env := do(t, srv, http.MethodGet, "/me", auth.Tokens.AccessToken, "")
	if code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", code)
	}
	var me UserResponse
	_ = json.Unmarshal(env.Data, &me)
	if me.ID != auth.User.ID || me.FullName != "Ana Lima" || len(me.Interests) != 2 {
		t.Fatalf("unexpected me %+v", me)
	}

	current, ok := dir.CurrentUser(context.Background())
	if !ok || current.ID != auth.User.ID {
		t.Fatal("expected registration to set the directory's current user")
	}
}

func TestRegisterAcceptsEmptyProfile(t *testing.T) {
	srv, _ := newTestRouter(nil)
	auth := registerVia(t, srv, `{}`)
	if auth.User.ID == uuid.Nil || auth.User.Interests == nil {
		t.Fatalf("expected registered user with empty interests, got %+v", auth.User)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestRouter(nil)
	code, env := do(t, srv, http.MethodGet, "/", "", "")
	if code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("expected 401 UNAUTHORIZED, got %d %+v", code, env.Error)
	}
}

func TestUpdateOwnProfileOnly(t *testing.T) {
	srv, dir := newTestRouter(nil)
	ana := registerVia(t, srv, `{"full_name":"Ana"}`)
	ben := registerVia(t, srv, `{"full_name":"Ben"}`)

	code, _ := do(t, srv, http.MethodPut, "/"+ben.User.ID.String(), ana.Tokens.AccessToken, `{"full_name":"Hacked"}`)
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}

	code, env := do(t, srv, http.MethodPut, "/"+ana.User.ID.String(), ana.Tokens.AccessToken,
		`{"full_name":"Ana Maria","university":"State","interests":["climbing"]}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var updated UserResponse
	_ = json.Unmarshal(env.Data, &updated)
	if updated.FullName != "Ana Maria" || updated.University != "State" || updated.CreatedAt != ana.User.CreatedAt {
		t.Fatalf("unexpected update %+v", updated)
	}

	stored, err := dir.GetUser(context.Background(), ben.User.ID)
	if err != nil || stored.FullName != "Ben" {
		t.Fatalf("expected other user untouched, got %+v %v", stored, err)
	}
}

func TestGetUserNotFoundAndPresence(t *testing.T) {
	presence := stubPresence{}
	srv, _ := newTestRouter(presence)
	ana := registerVia(t, srv, `{"full_name":"Ana"}`)
	presence[ana.User.ID] = true

	code, env := do(t, srv, http.MethodGet, "/"+uuid.NewString(), ana.Tokens.AccessToken, "")
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d", code)
	}

	code, env = do(t, srv, http.MethodGet, "/"+ana.User.ID.String(), ana.Tokens.AccessToken, "")
	var got UserResponse
	_ = json.Unmarshal(env.Data, &got)
	if code != http.StatusOK || !got.Online {
		t.Fatalf("expected online user, got %d %+v", code, got)
	}
}
