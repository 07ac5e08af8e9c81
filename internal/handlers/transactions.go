package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"rentfolio/internal/categorize"
	"rentfolio/internal/middleware"
	"rentfolio/internal/models"
	"rentfolio/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var accounts []models.BankAccount
	var err error
	if connectionID := r.URL.Query().Get("connection_id"); connectionID != "" {
		conn, connErr := h.connections.GetByID(r.Context(), connectionID)
		if connErr != nil || conn.UserID != userID {
			respondError(w, http.StatusNotFound, "connection not found")
			return
		}
		accounts, err = h.accounts.ListByConnection(r.Context(), connectionID)
	} else {
		accounts, err = h.accounts.ListByUser(r.Context(), userID)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) ListBankTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID := chi.URLParam(r, "id")
	if _, err := h.accountForUser(r, accountID, userID); err != nil {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}
	transactions, err := h.bankTxns.ListByAccount(r.Context(), accountID, queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

type retagRequest struct {
	Category string `json:"category"`
}

// RetagBankTransaction overrides the automatic category. The category is the
// only field of an imported transaction that may change after import.
func (h *Handler) RetagBankTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req retagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !categorize.IsKnownCategory(req.Category) {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}
	transactionID := chi.URLParam(r, "id")
	txn, err := h.bankTxns.GetByID(r.Context(), transactionID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}
	if _, err := h.accountForUser(r, txn.AccountID, userID); err != nil {
		respondError(w, http.StatusNotFound, "transaction not found")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		affected, err := h.bankTxns.UpdateCategory(r.Context(), tx, transactionID, req.Category)
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
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update category")
		return
	}
	txn.Category = req.Category
	respondJSON(w, http.StatusOK, txn)
}

func (h *Handler) ListUnifiedTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	filter := services.UnifiedFilter{
		Search:    r.URL.Query().Get("search"),
		Type:      r.URL.Query().Get("type"),
		Source:    r.URL.Query().Get("source"),
		Category:  r.URL.Query().Get("category"),
		Status:    r.URL.Query().Get("status"),
		AccountID: r.URL.Query().Get("account_id"),
		From:      queryDate(r, "from"),
		To:        queryDate(r, "to"),
	}
	transactions, err := h.unified.List(r.Context(), userID, filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func (h *Handler) accountForUser(r *http.Request, accountID, userID string) (models.BankAccount, error) {
	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		return models.BankAccount{}, err
	}
	conn, err := h.connections.GetByID(r.Context(), account.ConnectionID)
	if err != nil {
		return models.BankAccount{}, err
	}
	if conn.UserID != userID {
		return models.BankAccount{}, sql.ErrNoRows
	}
	return account, nil
}
