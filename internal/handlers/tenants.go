package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"rentfolio/internal/middleware"
	"rentfolio/internal/models"
	"rentfolio/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type tenantRequest struct {
	PropertyID string `json:"property_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	LeaseStart string `json:"lease_start"`
	LeaseEnd   string `json:"lease_end"`
}

func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req tenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Email != "" {
		if err := validator.ValidateEmail(req.Email); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	property, err := h.properties.GetByID(r.Context(), req.PropertyID)
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
	tenant := models.Tenant{
		ID:         uuid.NewString(),
		PropertyID: req.PropertyID,
		Name:       req.Name,
		Email:      req.Email,
	}
	if req.LeaseStart != "" {
		start, err := time.Parse("2006-01-02", req.LeaseStart)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid lease start date")
			return
		}
		tenant.LeaseStart = &start
	}
	if req.LeaseEnd != "" {
		end, err := time.Parse("2006-01-02", req.LeaseEnd)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid lease end date")
			return
		}
		tenant.LeaseEnd = &end
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.tenants.Create(r.Context(), tx, tenant)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create tenant")
		return
	}
	respondJSON(w, http.StatusCreated, tenant)
}

func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tenants, err := h.tenants.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tenants")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tenantID := chi.URLParam(r, "id")
	tenant, err := h.tenants.GetByID(r.Context(), tenantID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load tenant")
		return
	}
	property, err := h.properties.GetByID(r.Context(), tenant.PropertyID)
	if err != nil || property.UserID != userID {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		affected, err := h.tenants.Delete(r.Context(), tx, tenantID)
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
			respondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete tenant")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
