package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"rentfolio/internal/models"
)

func TestBankAccountStoreUpsertOverwritesBalances(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "ON CONFLICT (id) DO UPDATE") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != "acct-1" || args[1] != "conn-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewBankAccountStore(stubDB{})
	err := store.Upsert(ctx, execer, models.BankAccount{
		ID:           "acct-1",
		ConnectionID: "conn-1",
		Currency:     "EUR",
		BalanceMinor: 123456,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBankAccountStoreListByUserJoinsConnections(t *testing.T) {
	ctx := context.Background()
	store := NewBankAccountStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "JOIN bank_connections") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			rows := dest.(*[]bankAccountRow)
			*rows = []bankAccountRow{{ID: "acct-1", ConnectionID: "conn-1"}}
			return nil
		},
	})
	accounts, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "acct-1" {
		t.Fatalf("unexpected accounts: %#v", accounts)
	}
}
