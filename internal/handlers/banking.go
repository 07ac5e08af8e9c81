package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rentfolio/internal/gocardless"
	"rentfolio/internal/middleware"
	"rentfolio/internal/models"
	"rentfolio/internal/services"
	"rentfolio/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	country := r.URL.Query().Get("country")
	if country == "" {
		country = h.cfg.UserLanguage
	}
	if err := validator.ValidateCountryCode(country); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	institutions, err := h.aggregator.ListInstitutions(r.Context(), country)
	if err != nil {
		respondAggregatorError(w, err, "failed to list institutions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"institutions": institutions})
}

type createConnectionRequest struct {
	InstitutionID   string `json:"institution_id"`
	InstitutionName string `json:"institution_name"`
}

// CreateConnection opens a consent with the aggregator and stores a pending
// connection. The caller finishes the flow in the bank's UI via the returned
// authorization link; the connection only becomes usable once the first sync
// finds the requisition linked.
func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateInstitutionID(req.InstitutionID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	link, err := h.aggregator.CreateConsentAndLink(r.Context(), req.InstitutionID, h.cfg.MaxHistoricalDays)
	if err != nil {
		respondAggregatorError(w, err, "failed to create consent")
		return
	}
	expiresAt := time.Now().UTC().AddDate(0, 0, link.AccessValidForDays)
	conn := models.BankConnection{
		ID:               uuid.NewString(),
		UserID:           userID,
		InstitutionID:    req.InstitutionID,
		InstitutionName:  req.InstitutionName,
		RequisitionID:    link.RequisitionID,
		AgreementID:      link.AgreementID,
		Status:           models.ConnectionPending,
		ConsentExpiresAt: &expiresAt,
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.connections.Create(r.Context(), tx, conn)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create connection")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"connection":         conn,
		"authorization_link": link.AuthorizationLink,
	})
}

func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	connections, err := h.connections.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list connections")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"connections": connections})
}

func (h *Handler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	connectionID := chi.URLParam(r, "id")
	conn, err := h.connections.GetByID(r.Context(), connectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "connection not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load connection")
		return
	}
	if conn.UserID != userID {
		respondError(w, http.StatusNotFound, "connection not found")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.connections.Delete(r.Context(), tx, connectionID)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete connection")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) SyncConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	result, err := h.sync.SyncConnection(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConnectionNotFound), errors.Is(err, services.ErrForbidden):
			respondError(w, http.StatusNotFound, "connection not found")
		case errors.Is(err, services.ErrSyncInProgress):
			respondError(w, http.StatusConflict, "sync already in progress")
		case errors.Is(err, services.ErrNotReady):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, gocardless.ErrRateLimited):
			respondError(w, http.StatusTooManyRequests, "aggregator rate limit reached")
		case errors.Is(err, gocardless.ErrAuthFailed):
			respondError(w, http.StatusBadGateway, "aggregator authentication failed")
		default:
			respondError(w, http.StatusInternalServerError, "sync failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) ListSyncLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	connectionID := chi.URLParam(r, "id")
	conn, err := h.connections.GetByID(r.Context(), connectionID)
	if err != nil || conn.UserID != userID {
		respondError(w, http.StatusNotFound, "connection not found")
		return
	}
	logs, err := h.syncLogs.ListByConnection(r.Context(), connectionID, queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list sync logs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func respondAggregatorError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, gocardless.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, "aggregator rate limit reached")
	case errors.Is(err, gocardless.ErrAuthFailed):
		respondError(w, http.StatusBadGateway, "aggregator authentication failed")
	default:
		respondError(w, http.StatusBadGateway, fallback)
	}
}
