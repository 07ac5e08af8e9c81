package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rentfolio/internal/middleware"
	"rentfolio/internal/money"
	"rentfolio/internal/services"
	"rentfolio/internal/store"

	"github.com/go-chi/chi/v5"
)

type flowRequest struct {
	Type          string  `json:"type"`
	Category      string  `json:"category"`
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	Date          string  `json:"date"`
	PropertyID    *string `json:"property_id"`
	TenantID      *string `json:"tenant_id"`
	Recurrence    string  `json:"recurrence"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
	Notes         string  `json:"notes"`
}

func (h *Handler) decodeFlowInput(r *http.Request) (services.FlowInput, error) {
	var req flowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.FlowInput{}, errors.New("invalid payload")
	}
	amountMinor, err := money.ParseMinor(req.Amount)
	if err != nil {
		return services.FlowInput{}, errors.New("invalid amount")
	}
	var date time.Time
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return services.FlowInput{}, errors.New("invalid date")
		}
	}
	return services.FlowInput{
		Type:          req.Type,
		Category:      req.Category,
		AmountMinor:   amountMinor,
		Currency:      req.Currency,
		Date:          date,
		PropertyID:    req.PropertyID,
		TenantID:      req.TenantID,
		Recurrence:    req.Recurrence,
		Status:        req.Status,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}, nil
}

func (h *Handler) CreateFlow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	input, err := h.decodeFlowInput(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	flow, err := h.flows.CreateFlow(r.Context(), userID, input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFlow) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create flow")
		return
	}
	respondJSON(w, http.StatusCreated, flow)
}

func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	flow, err := h.flows.GetFlow(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrFlowNotFound) {
			respondError(w, http.StatusNotFound, "flow not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load flow")
		return
	}
	respondJSON(w, http.StatusOK, flow)
}

func (h *Handler) UpdateFlow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	input, err := h.decodeFlowInput(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	flow, err := h.flows.UpdateFlow(r.Context(), userID, chi.URLParam(r, "id"), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFlowNotFound):
			respondError(w, http.StatusNotFound, "flow not found")
		case errors.Is(err, services.ErrInvalidFlow):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to update flow")
		}
		return
	}
	respondJSON(w, http.StatusOK, flow)
}

func (h *Handler) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.flows.DeleteFlow(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, services.ErrFlowNotFound) {
			respondError(w, http.StatusNotFound, "flow not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete flow")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	filter := store.FlowFilter{
		Type:       r.URL.Query().Get("type"),
		Category:   r.URL.Query().Get("category"),
		Status:     r.URL.Query().Get("status"),
		PropertyID: r.URL.Query().Get("property_id"),
		From:       queryDate(r, "from"),
		To:         queryDate(r, "to"),
		Limit:      queryInt(r, "limit", 100),
		Offset:     queryInt(r, "offset", 0),
	}
	flows, err := h.flows.ListFlows(r.Context(), userID, filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list flows")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"flows": flows})
}

func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	now := time.Now().UTC()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	if month < 1 || month > 12 {
		respondError(w, http.StatusBadRequest, "invalid month")
		return
	}
	report, err := h.flows.MonthlyReport(r.Context(), userID, year, time.Month(month))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) TaxSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	year := queryInt(r, "year", time.Now().UTC().Year())
	summary, err := h.flows.YearlyTaxSummary(r.Context(), userID, year)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to build tax summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
