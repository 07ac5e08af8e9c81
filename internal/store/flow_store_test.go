package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"rentfolio/internal/models"
)

func TestFlowStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO financial_flows") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 15 || args[0] != "flow-1" || args[13] != "manual" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewFlowStore(stubDB{})
	err := store.Create(ctx, execer, models.FinancialFlow{
		ID:     "flow-1",
		UserID: "user-1",
		Type:   models.FlowIncome,
		Status: models.FlowCompleted,
		Source: "manual",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFlowStoreListByUserUnfiltered(t *testing.T) {
	ctx := context.Background()
	store := NewFlowStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if strings.Contains(query, "AND type") || strings.Contains(query, "LIMIT") {
				t.Fatalf("unexpected clauses in query: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			rows := dest.(*[]flowRow)
			*rows = []flowRow{{ID: "flow-1", UserID: "user-1", Type: "income", Status: "completed"}}
			return nil
		},
	})
	flows, err := store.ListByUser(ctx, "user-1", FlowFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flows) != 1 || flows[0].Type != models.FlowIncome {
		t.Fatalf("unexpected flows: %#v", flows)
	}
}

func TestFlowStoreListByUserAppliesFilter(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	store := NewFlowStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "AND type = $2") {
				t.Fatalf("missing type clause: %s", query)
			}
			if !strings.Contains(query, "AND category = $3") {
				t.Fatalf("missing category clause: %s", query)
			}
			if !strings.Contains(query, "AND date >= $4") {
				t.Fatalf("missing from clause: %s", query)
			}
			if !strings.Contains(query, "LIMIT $5 OFFSET $6") {
				t.Fatalf("missing limit clause: %s", query)
			}
			if len(args) != 6 || args[1] != "expense" || args[2] != "utilities" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	_, err := store.ListByUser(ctx, "user-1", FlowFilter{
		Type:     "expense",
		Category: "utilities",
		From:     &from,
		Limit:    20,
		Offset:   40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFlowStoreListByUserRejectsBadRow(t *testing.T) {
	ctx := context.Background()
	store := NewFlowStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			rows := dest.(*[]flowRow)
			*rows = []flowRow{{ID: "flow-1", Type: "sideways", Status: "completed"}}
			return nil
		},
	})
	if _, err := store.ListByUser(ctx, "user-1", FlowFilter{}); err == nil {
		t.Fatal("expected error for unknown flow type")
	}
}

func TestFlowStoreTotalsByCategoryExcludesCancelled(t *testing.T) {
	ctx := context.Background()
	store := NewFlowStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "status <> 'cancelled'") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "GROUP BY category, type") {
				t.Fatalf("unexpected query: %s", query)
			}
			rows := dest.(*[]CategoryTotal)
			*rows = []CategoryTotal{{Category: "rental_income", Type: "income", Total: 85000, Count: 1}}
			return nil
		},
	})
	totals, err := store.TotalsByCategory(ctx, "user-1", time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(totals) != 1 || totals[0].Total != 85000 {
		t.Fatalf("unexpected totals: %#v", totals)
	}
}

func TestFlowStoreDeleteScopedToUser(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "WHERE id = $1 AND user_id = $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			return stubResult{rows: 0}, nil
		},
	}
	store := NewFlowStore(stubDB{})
	affected, err := store.Delete(ctx, execer, "flow-1", "someone-else")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected no rows affected, got %d", affected)
	}
}
