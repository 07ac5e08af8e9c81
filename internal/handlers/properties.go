package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"rentfolio/internal/middleware"
	"rentfolio/internal/models"
	"rentfolio/internal/money"
	"rentfolio/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type propertyRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	RentAmount string `json:"rent_amount"`
	Currency   string `json:"currency"`
}

func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := validator.ValidateCurrency(req.Currency); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rentMinor, err := money.ParseMinor(req.RentAmount)
	if err != nil || rentMinor < 0 {
		respondError(w, http.StatusBadRequest, "invalid rent amount")
		return
	}
	property := models.Property{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            req.Name,
		Address:         req.Address,
		City:            req.City,
		RentAmountMinor: rentMinor,
		Currency:        req.Currency,
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.properties.Create(r.Context(), tx, property)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create property")
		return
	}
	respondJSON(w, http.StatusCreated, property)
}

func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	properties, err := h.properties.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list properties")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"properties": properties})
}

func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	propertyID := chi.URLParam(r, "id")
	existing, err := h.properties.GetByID(r.Context(), propertyID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "property not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load property")
		return
	}
	if existing.UserID != userID {
		respondError(w, http.StatusNotFound, "property not found")
		return
	}
	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Address != "" {
		existing.Address = req.Address
	}
	if req.City != "" {
		existing.City = req.City
	}
	if req.Currency != "" {
		if err := validator.ValidateCurrency(req.Currency); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		existing.Currency = req.Currency
	}
	if req.RentAmount != "" {
		rentMinor, err := money.ParseMinor(req.RentAmount)
		if err != nil || rentMinor < 0 {
			respondError(w, http.StatusBadRequest, "invalid rent amount")
			return
		}
		existing.RentAmountMinor = rentMinor
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		affected, err := h.properties.Update(r.Context(), tx, existing)
		if err != nil {
			return err
		}
		if affected == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "property not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update property")
		return
	}
	respondJSON(w, http.StatusOK, existing)
}

func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	propertyID := chi.URLParam(r, "id")
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		affected, err := h.properties.Delete(r.Context(), tx, propertyID, userID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "property not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete property")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) ListPropertyTenants(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	propertyID := chi.URLParam(r, "id")
	property, err := h.properties.GetByID(r.Context(), propertyID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "property not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load property")
		return
	}
	if property.UserID != userID {
		respondError(w, http.StatusNotFound, "property not found")
		return
	}
	tenants, err := h.tenants.ListByProperty(r.Context(), propertyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tenants")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}
