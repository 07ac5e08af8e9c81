package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"rentfolio/internal/auth"
	"rentfolio/internal/store"

	"github.com/lib/pq"
)

func TestRegisterSuccess(t *testing.T) {
	created := false
	handler := newTestHandler(testHandlerDeps{
		users: stubUserStore{
			createFn: func(_ context.Context, _ store.Execer, id, username, email, passwordHash string) error {
				created = true
				if username != "landlord" || email != "owner@example.com" {
					t.Fatalf("unexpected create args: %s %s", username, email)
				}
				if passwordHash == "supersecret1" {
					t.Fatal("password stored unhashed")
				}
				return nil
			},
		},
	})

	rr := serveAnon(handler, http.MethodPost, "/auth/register", `{"username":"landlord","email":"owner@example.com","password":"supersecret1"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !created {
		t.Fatal("expected user to be created")
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatal("expected token in response")
	}
}

func TestRegisterInvalidEmail(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{})
	rr := serveAnon(handler, http.MethodPost, "/auth/register", `{"username":"landlord","email":"nope","password":"supersecret1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		users: stubUserStore{
			createFn: func(context.Context, store.Execer, string, string, string, string) error {
				return &pq.Error{Code: "23505"}
			},
		},
	})
	rr := serveAnon(handler, http.MethodPost, "/auth/register", `{"username":"landlord","email":"owner@example.com","password":"supersecret1"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("rightpassword")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	handler := newTestHandler(testHandlerDeps{
		users: stubUserStore{
			getByEmailFn: func(context.Context, string) (map[string]any, error) {
				return map[string]any{"id": "user-1", "password_hash": hash}, nil
			},
		},
	})
	rr := serveAnon(handler, http.MethodPost, "/auth/login", `{"email":"owner@example.com","password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		users: stubUserStore{
			getByEmailFn: func(context.Context, string) (map[string]any, error) {
				return nil, sql.ErrNoRows
			},
		},
	})
	rr := serveAnon(handler, http.MethodPost, "/auth/login", `{"email":"ghost@example.com","password":"whatever"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{})
	rr := serveAnon(handler, http.MethodGet, "/auth/me", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMeReturnsProfile(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		users: stubUserStore{
			getByIDFn: func(_ context.Context, userID string) (map[string]any, error) {
				return map[string]any{"id": userID, "username": "landlord", "email": "owner@example.com"}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodGet, "/auth/me", "user-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp["id"] != "user-1" || resp["username"] != "landlord" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}
