package handlers

import (
	"context"
	"net/http"
	"testing"

	"rentfolio/internal/models"
	"rentfolio/internal/services"
	"rentfolio/internal/store"
)

func TestCreateFlowParsesAmount(t *testing.T) {
	var captured services.FlowInput
	handler := newTestHandler(testHandlerDeps{
		flows: stubFlowService{
			createFn: func(_ context.Context, userID string, input services.FlowInput) (models.FinancialFlow, error) {
				captured = input
				return models.FinancialFlow{ID: "flow-1"}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodPost, "/flows", "user-1", `{"type":"income","category":"rental_income","amount":"850.00","currency":"EUR","date":"2024-11-05"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.AmountMinor != 85000 {
		t.Fatalf("expected amount in minor units, got %d", captured.AmountMinor)
	}
	if captured.Date.Day() != 5 || captured.Date.Month() != 11 {
		t.Fatalf("unexpected date: %v", captured.Date)
	}
}

func TestCreateFlowInvalidAmount(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{})
	rr := serveAuthed(t, handler, http.MethodPost, "/flows", "user-1", `{"type":"income","category":"rental_income","amount":"lots","date":"2024-11-05"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateFlowServiceValidation(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		flows: stubFlowService{
			createFn: func(context.Context, string, services.FlowInput) (models.FinancialFlow, error) {
				return models.FinancialFlow{}, services.ErrInvalidFlow
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodPost, "/flows", "user-1", `{"type":"sideways","category":"x","amount":"10.00","date":"2024-11-05"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUpdateFlowNotFoundStatus(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		flows: stubFlowService{
			updateFn: func(context.Context, string, string, services.FlowInput) (models.FinancialFlow, error) {
				return models.FinancialFlow{}, services.ErrFlowNotFound
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodPut, "/flows/flow-1", "user-1", `{"type":"income","category":"rental_income","amount":"850.00","date":"2024-11-05"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListFlowsPassesFilter(t *testing.T) {
	var captured store.FlowFilter
	handler := newTestHandler(testHandlerDeps{
		flows: stubFlowService{
			listFn: func(_ context.Context, userID string, filter store.FlowFilter) ([]models.FinancialFlow, error) {
				captured = filter
				return nil, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodGet, "/flows?type=expense&category=insurance&property_id=prop-1&limit=25&offset=50", "user-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured.Type != "expense" || captured.Category != "insurance" || captured.PropertyID != "prop-1" {
		t.Fatalf("unexpected filter: %#v", captured)
	}
	if captured.Limit != 25 || captured.Offset != 50 {
		t.Fatalf("unexpected paging: %#v", captured)
	}
}

func TestMonthlyReportRejectsBadMonth(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{})
	rr := serveAuthed(t, handler, http.MethodGet, "/flows/report?year=2024&month=13", "user-1", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestTaxSummaryPassesYear(t *testing.T) {
	var captured int
	handler := newTestHandler(testHandlerDeps{
		flows: stubFlowService{
			taxFn: func(_ context.Context, userID string, year int) (services.TaxSummary, error) {
				captured = year
				return services.TaxSummary{Year: year}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodGet, "/flows/tax-summary?year=2023", "user-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured != 2023 {
		t.Fatalf("expected year 2023, got %d", captured)
	}
}
