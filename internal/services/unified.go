package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"rentfolio/internal/models"
	"rentfolio/internal/store"

	"github.com/rs/zerolog"
)

// UnifiedFilter is applied conjunctively: every set field must match.
type UnifiedFilter struct {
	Search    string
	Type      string
	Source    string
	Category  string
	Status    string // manual records only
	AccountID string // bank records only
	From      *time.Time
	To        *time.Time
}

type UnifiedBankStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.BankTransaction, error)
}

type UnifiedFlowStore interface {
	ListByUser(ctx context.Context, userID string, filter store.FlowFilter) ([]models.FinancialFlow, error)
}

// UnifiedService merges the manual ledger and imported bank transactions into
// one read-only, date-descending projection. Nothing here is persisted.
type UnifiedService struct {
	flows UnifiedFlowStore
	bank  UnifiedBankStore
	log   zerolog.Logger
}

func NewUnifiedService(flows UnifiedFlowStore, bank UnifiedBankStore, log zerolog.Logger) *UnifiedService {
	return &UnifiedService{flows: flows, bank: bank, log: log}
}

func (s *UnifiedService) List(ctx context.Context, userID string, filter UnifiedFilter) ([]models.UnifiedTransaction, error) {
	flows, err := s.flows.ListByUser(ctx, userID, store.FlowFilter{})
	if err != nil {
		return nil, err
	}
	bankTransactions, err := s.bank.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := make([]models.UnifiedTransaction, 0, len(flows)+len(bankTransactions))
	for _, flow := range flows {
		unified, err := normalizeFlow(flow)
		if err != nil {
			// One malformed record must not break the whole list.
			s.log.Warn().Err(err).Str("flow_id", flow.ID).Msg("skipping malformed flow")
			continue
		}
		merged = append(merged, unified)
	}
	for _, txn := range bankTransactions {
		unified, err := normalizeBankTransaction(txn)
		if err != nil {
			s.log.Warn().Err(err).Str("transaction_id", txn.ID).Msg("skipping malformed bank transaction")
			continue
		}
		merged = append(merged, unified)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})

	filtered := merged[:0]
	for _, txn := range merged {
		if matchesFilter(txn, filter) {
			filtered = append(filtered, txn)
		}
	}
	return filtered, nil
}

// normalizeFlow maps a ledger record to the common signed-amount shape:
// income positive, expense negative.
func normalizeFlow(flow models.FinancialFlow) (models.UnifiedTransaction, error) {
	if flow.Date.IsZero() {
		return models.UnifiedTransaction{}, errors.New("flow has no date")
	}
	amount := flow.AmountMinor
	if amount < 0 {
		amount = -amount
	}
	if flow.Type == models.FlowExpense {
		amount = -amount
	} else if flow.Type != models.FlowIncome {
		return models.UnifiedTransaction{}, errors.New("flow has no type")
	}
	return models.UnifiedTransaction{
		ID:          "flow_" + flow.ID,
		Source:      models.SourceManual,
		Type:        flow.Type,
		AmountMinor: amount,
		Currency:    flow.Currency,
		Date:        flow.Date,
		Description: flow.Notes,
		Category:    flow.Category,
		Status:      string(flow.Status),
		PropertyID:  derefOrEmpty(flow.PropertyID),
	}, nil
}

func normalizeBankTransaction(txn models.BankTransaction) (models.UnifiedTransaction, error) {
	if txn.BookingDate.IsZero() {
		return models.UnifiedTransaction{}, errors.New("bank transaction has no booking date")
	}
	flowType := models.FlowExpense
	if txn.IsCredit {
		flowType = models.FlowIncome
	}
	return models.UnifiedTransaction{
		ID:           "bank_" + txn.ID,
		Source:       models.SourceBankImport,
		Type:         flowType,
		AmountMinor:  txn.AmountMinor,
		Currency:     txn.Currency,
		Date:         txn.BookingDate,
		Description:  txn.Description,
		Category:     txn.Category,
		Counterparty: txn.Counterparty,
		AccountID:    txn.AccountID,
	}, nil
}

func matchesFilter(txn models.UnifiedTransaction, filter UnifiedFilter) bool {
	if filter.Type != "" && string(txn.Type) != filter.Type {
		return false
	}
	if filter.Source != "" && string(txn.Source) != filter.Source {
		return false
	}
	if filter.Category != "" && txn.Category != filter.Category {
		return false
	}
	if filter.Status != "" && (txn.Source != models.SourceManual || txn.Status != filter.Status) {
		return false
	}
	if filter.AccountID != "" && (txn.Source != models.SourceBankImport || txn.AccountID != filter.AccountID) {
		return false
	}
	if filter.From != nil && txn.Date.Before(*filter.From) {
		return false
	}
	if filter.To != nil && txn.Date.After(*filter.To) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		haystack := strings.ToLower(txn.Description + " " + txn.Category + " " + txn.Counterparty)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func derefOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
