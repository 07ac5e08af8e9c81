package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"rentfolio/internal/gocardless"
	"rentfolio/internal/models"
	"rentfolio/internal/services"
	"rentfolio/internal/store"
)

func TestListInstitutionsRejectsBadCountry(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{})
	rr := serveAuthed(t, handler, http.MethodGet, "/banking/institutions?country=France", "user-1", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestListInstitutionsDefaultsCountry(t *testing.T) {
	var requested string
	handler := newTestHandler(testHandlerDeps{
		aggregator: stubAggregator{
			listInstitutionsFn: func(_ context.Context, countryCode string) ([]gocardless.Institution, error) {
				requested = countryCode
				return []gocardless.Institution{{ID: "BNP_FR_PP"}}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodGet, "/banking/institutions", "user-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if requested != "FR" {
		t.Fatalf("expected default country FR, got %q", requested)
	}
}

func TestCreateConnectionStoresPendingRow(t *testing.T) {
	var stored models.BankConnection
	handler := newTestHandler(testHandlerDeps{
		aggregator: stubAggregator{
			createConsentFn: func(_ context.Context, institutionID string, maxHistoricalDays int) (gocardless.ConsentLink, error) {
				if institutionID != "BNP_FR_PP" || maxHistoricalDays != 90 {
					t.Fatalf("unexpected consent args: %s %d", institutionID, maxHistoricalDays)
				}
				return gocardless.ConsentLink{
					AuthorizationLink:  "https://bank.example/authorize",
					RequisitionID:      "req-1",
					AgreementID:        "agr-1",
					AccessValidForDays: 90,
				}, nil
			},
		},
		connections: stubConnectionStore{
			createFn: func(_ context.Context, _ store.Execer, conn models.BankConnection) error {
				stored = conn
				return nil
			},
		},
	})

	rr := serveAuthed(t, handler, http.MethodPost, "/banking/connections", "user-1", `{"institution_id":"BNP_FR_PP","institution_name":"BNP Paribas"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if stored.Status != models.ConnectionPending {
		t.Fatalf("expected pending status, got %s", stored.Status)
	}
	if stored.RequisitionID != "req-1" || stored.UserID != "user-1" {
		t.Fatalf("unexpected stored connection: %#v", stored)
	}
	if stored.ConsentExpiresAt == nil {
		t.Fatal("expected consent expiry to be set")
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp["authorization_link"] != "https://bank.example/authorize" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestCreateConnectionRejectsBadInstitution(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{})
	rr := serveAuthed(t, handler, http.MethodPost, "/banking/connections", "user-1", `{"institution_id":"not valid!"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestDeleteConnectionHidesForeignRows(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		connections: stubConnectionStore{
			getByIDFn: func(_ context.Context, connectionID string) (models.BankConnection, error) {
				return models.BankConnection{ID: connectionID, UserID: "owner"}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodDelete, "/banking/connections/conn-1", "intruder", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSyncConnectionErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", services.ErrConnectionNotFound, http.StatusNotFound},
		{"foreign", services.ErrForbidden, http.StatusNotFound},
		{"in progress", services.ErrSyncInProgress, http.StatusConflict},
		{"not ready", services.ErrNotReady, http.StatusConflict},
		{"rate limited", gocardless.ErrRateLimited, http.StatusTooManyRequests},
		{"auth failed", gocardless.ErrAuthFailed, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(testHandlerDeps{
				sync: stubSyncService{
					syncFn: func(context.Context, string, string) (services.Result, error) {
						return services.Result{}, tc.err
					},
				},
			})
			rr := serveAuthed(t, handler, http.MethodPost, "/banking/connections/conn-1/sync", "user-1", "")
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}
}

func TestSyncConnectionReturnsResult(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		sync: stubSyncService{
			syncFn: func(_ context.Context, userID, connectionID string) (services.Result, error) {
				if userID != "user-1" || connectionID != "conn-1" {
					t.Fatalf("unexpected sync args: %s %s", userID, connectionID)
				}
				return services.Result{Success: true, AccountsSynced: 2, TransactionsImported: 14, Errors: []string{}}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodPost, "/banking/connections/conn-1/sync", "user-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var result services.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !result.Success || result.TransactionsImported != 14 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestListSyncLogsChecksOwnership(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		connections: stubConnectionStore{
			getByIDFn: func(_ context.Context, connectionID string) (models.BankConnection, error) {
				return models.BankConnection{ID: connectionID, UserID: "owner"}, nil
			},
		},
		syncLogs: stubSyncLogStore{
			listFn: func(context.Context, string, int, int) ([]map[string]any, error) {
				t.Fatal("must not list logs for a foreign connection")
				return nil, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodGet, "/banking/connections/conn-1/logs", "intruder", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
