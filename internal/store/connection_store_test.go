package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"rentfolio/internal/models"
)

func TestConnectionStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO bank_connections") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 8 || args[0] != "conn-1" || args[6] != "pending" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewConnectionStore(stubDB{})
	err := store.Create(ctx, execer, models.BankConnection{
		ID:     "conn-1",
		UserID: "user-1",
		Status: models.ConnectionPending,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConnectionStoreGetByIDParsesStatus(t *testing.T) {
	ctx := context.Background()
	store := NewConnectionStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM bank_connections") {
				t.Fatalf("unexpected query: %s", query)
			}
			row := dest.(*connectionRow)
			*row = connectionRow{ID: "conn-1", UserID: "user-1", Status: "connected"}
			return nil
		},
	})
	conn, err := store.GetByID(ctx, "conn-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.Status != models.ConnectionConnected {
		t.Fatalf("unexpected status: %s", conn.Status)
	}
}

func TestConnectionStoreGetByIDRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	store := NewConnectionStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			row := dest.(*connectionRow)
			*row = connectionRow{ID: "conn-1", Status: "what"}
			return nil
		},
	})
	if _, err := store.GetByID(ctx, "conn-1"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestConnectionStoreListSyncableOrdersOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewConnectionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "status IN ('connected', 'pending')") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "ORDER BY last_sync_at ASC NULLS FIRST") {
				t.Fatalf("unexpected query: %s", query)
			}
			rows := dest.(*[]connectionRow)
			*rows = []connectionRow{{ID: "conn-1", Status: "connected"}}
			return nil
		},
	})
	connections, err := store.ListSyncable(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(connections) != 1 || connections[0].ID != "conn-1" {
		t.Fatalf("unexpected connections: %#v", connections)
	}
}

func TestConnectionStoreMarkSynced(t *testing.T) {
	ctx := context.Background()
	syncedAt := time.Now()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET status = $1, last_sync_at = $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != "connected" || args[2] != "conn-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewConnectionStore(stubDB{})
	if err := store.MarkSynced(ctx, execer, "conn-1", models.ConnectionConnected, syncedAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConnectionStoreDeleteCascades(t *testing.T) {
	ctx := context.Background()
	var queries []string
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			queries = append(queries, query)
			if len(args) != 1 || args[0] != "conn-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewConnectionStore(stubDB{})
	if err := store.Delete(ctx, execer, "conn-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queries) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(queries))
	}
	if !strings.Contains(queries[0], "DELETE FROM bank_transactions") {
		t.Fatalf("unexpected first statement: %s", queries[0])
	}
	if !strings.Contains(queries[1], "DELETE FROM bank_accounts") {
		t.Fatalf("unexpected second statement: %s", queries[1])
	}
	if !strings.Contains(queries[2], "DELETE FROM bank_connections") {
		t.Fatalf("unexpected third statement: %s", queries[2])
	}
}
