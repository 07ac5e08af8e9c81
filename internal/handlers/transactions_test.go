package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"rentfolio/internal/models"
	"rentfolio/internal/services"
	"rentfolio/internal/store"
)

func TestRetagBankTransactionUnknownCategory(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{})
	rr := serveAuthed(t, handler, http.MethodPut, "/banking/transactions/txn-1/category", "user-1", `{"category":"groceries"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRetagBankTransactionChecksOwnership(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		bankTxns: stubBankTransactionStore{
			getByIDFn: func(_ context.Context, transactionID string) (models.BankTransaction, error) {
				return models.BankTransaction{ID: transactionID, AccountID: "acct-1"}, nil
			},
			updateCategoryFn: func(context.Context, store.Execer, string, string) (int64, error) {
				t.Fatal("must not update a foreign transaction")
				return 0, nil
			},
		},
		accounts: stubBankAccountStore{
			getByIDFn: func(_ context.Context, accountID string) (models.BankAccount, error) {
				return models.BankAccount{ID: accountID, ConnectionID: "conn-1"}, nil
			},
		},
		connections: stubConnectionStore{
			getByIDFn: func(_ context.Context, connectionID string) (models.BankConnection, error) {
				return models.BankConnection{ID: connectionID, UserID: "owner"}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodPut, "/banking/transactions/txn-1/category", "intruder", `{"category":"maintenance"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRetagBankTransactionUpdates(t *testing.T) {
	var updatedCategory string
	handler := newTestHandler(testHandlerDeps{
		bankTxns: stubBankTransactionStore{
			getByIDFn: func(_ context.Context, transactionID string) (models.BankTransaction, error) {
				return models.BankTransaction{ID: transactionID, AccountID: "acct-1", Category: "other_expense"}, nil
			},
			updateCategoryFn: func(_ context.Context, _ store.Execer, transactionID, category string) (int64, error) {
				updatedCategory = category
				return 1, nil
			},
		},
		accounts: stubBankAccountStore{
			getByIDFn: func(_ context.Context, accountID string) (models.BankAccount, error) {
				return models.BankAccount{ID: accountID, ConnectionID: "conn-1"}, nil
			},
		},
		connections: stubConnectionStore{
			getByIDFn: func(_ context.Context, connectionID string) (models.BankConnection, error) {
				return models.BankConnection{ID: connectionID, UserID: "user-1"}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodPut, "/banking/transactions/txn-1/category", "user-1", `{"category":"maintenance"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if updatedCategory != "maintenance" {
		t.Fatalf("expected category update, got %q", updatedCategory)
	}
}

func TestListBankTransactionsUnknownAccount(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		accounts: stubBankAccountStore{
			getByIDFn: func(_ context.Context, accountID string) (models.BankAccount, error) {
				return models.BankAccount{ID: accountID, ConnectionID: "conn-1"}, nil
			},
		},
		connections: stubConnectionStore{
			getByIDFn: func(_ context.Context, connectionID string) (models.BankConnection, error) {
				return models.BankConnection{ID: connectionID, UserID: "owner"}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodGet, "/banking/accounts/acct-1/transactions", "intruder", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListUnifiedTransactionsParsesFilter(t *testing.T) {
	var captured services.UnifiedFilter
	handler := newTestHandler(testHandlerDeps{
		unified: stubUnifiedService{
			listFn: func(_ context.Context, userID string, filter services.UnifiedFilter) ([]models.UnifiedTransaction, error) {
				captured = filter
				return []models.UnifiedTransaction{}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodGet, "/transactions?type=expense&source=bank_import&category=utilities&search=edf&from=2024-11-01&to=2024-11-30", "user-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured.Type != "expense" || captured.Source != "bank_import" || captured.Category != "utilities" || captured.Search != "edf" {
		t.Fatalf("unexpected filter: %#v", captured)
	}
	if captured.From == nil || !captured.From.Equal(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from: %v", captured.From)
	}
	if captured.To == nil {
		t.Fatal("expected to bound to be set")
	}
}

func TestListBankAccountsFiltersByConnection(t *testing.T) {
	var listedConnection string
	handler := newTestHandler(testHandlerDeps{
		connections: stubConnectionStore{
			getByIDFn: func(_ context.Context, connectionID string) (models.BankConnection, error) {
				return models.BankConnection{ID: connectionID, UserID: "user-1"}, nil
			},
		},
		accounts: stubBankAccountStore{
			listByConnectionFn: func(_ context.Context, connectionID string) ([]models.BankAccount, error) {
				listedConnection = connectionID
				return []models.BankAccount{{ID: "acct-1", ConnectionID: connectionID}}, nil
			},
			listByUserFn: func(context.Context, string) ([]models.BankAccount, error) {
				t.Fatal("expected the connection scoped query")
				return nil, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodGet, "/banking/accounts?connection_id=conn-1", "user-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if listedConnection != "conn-1" {
		t.Fatalf("expected conn-1, got %q", listedConnection)
	}
}

func TestListBankAccountsHidesForeignConnections(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		connections: stubConnectionStore{
			getByIDFn: func(_ context.Context, connectionID string) (models.BankConnection, error) {
				return models.BankConnection{ID: connectionID, UserID: "owner"}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodGet, "/banking/accounts?connection_id=conn-1", "intruder", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
