package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rentfolio/internal/db"
	"rentfolio/internal/models"
	"rentfolio/internal/money"
	"rentfolio/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrFlowNotFound = errors.New("flow not found")
	ErrInvalidFlow  = errors.New("invalid flow")
)

// FlowLedgerStore is the full financial-flow repository surface; the sync
// orchestrator only needs the narrower FlowStore.
type FlowLedgerStore interface {
	Create(ctx context.Context, tx store.Execer, flow models.FinancialFlow) error
	GetByID(ctx context.Context, flowID string) (models.FinancialFlow, error)
	ListByUser(ctx context.Context, userID string, filter store.FlowFilter) ([]models.FinancialFlow, error)
	Update(ctx context.Context, tx store.Execer, flow models.FinancialFlow) (int64, error)
	Delete(ctx context.Context, tx store.Execer, flowID, userID string) (int64, error)
	TotalsByCategory(ctx context.Context, userID string, from, to time.Time) ([]store.CategoryTotal, error)
}

type FlowService struct {
	txRunner db.TxRunner
	flows    FlowLedgerStore
}

func NewFlowService(txRunner db.TxRunner, flows FlowLedgerStore) *FlowService {
	return &FlowService{txRunner: txRunner, flows: flows}
}

type FlowInput struct {
	Type          string
	Category      string
	AmountMinor   int64
	Currency      string
	Date          time.Time
	PropertyID    *string
	TenantID      *string
	Recurrence    string
	Status        string
	PaymentMethod string
	Notes         string
}

func (s *FlowService) CreateFlow(ctx context.Context, userID string, input FlowInput) (models.FinancialFlow, error) {
	flow, err := s.buildFlow(userID, input)
	if err != nil {
		return models.FinancialFlow{}, err
	}
	flow.ID = uuid.NewString()
	flow.Source = "manual"
	if err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.flows.Create(ctx, tx, flow)
	}); err != nil {
		return models.FinancialFlow{}, err
	}
	return flow, nil
}

func (s *FlowService) UpdateFlow(ctx context.Context, userID, flowID string, input FlowInput) (models.FinancialFlow, error) {
	flow, err := s.buildFlow(userID, input)
	if err != nil {
		return models.FinancialFlow{}, err
	}
	flow.ID = flowID
	var affected int64
	if err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		affected, err = s.flows.Update(ctx, tx, flow)
		return err
	}); err != nil {
		return models.FinancialFlow{}, err
	}
	if affected == 0 {
		return models.FinancialFlow{}, ErrFlowNotFound
	}
	return s.flows.GetByID(ctx, flowID)
}

func (s *FlowService) DeleteFlow(ctx context.Context, userID, flowID string) error {
	var affected int64
	if err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		affected, err = s.flows.Delete(ctx, tx, flowID, userID)
		return err
	}); err != nil {
		return err
	}
	if affected == 0 {
		return ErrFlowNotFound
	}
	return nil
}

func (s *FlowService) GetFlow(ctx context.Context, userID, flowID string) (models.FinancialFlow, error) {
	flow, err := s.flows.GetByID(ctx, flowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FinancialFlow{}, ErrFlowNotFound
		}
		return models.FinancialFlow{}, err
	}
	if flow.UserID != userID {
		return models.FinancialFlow{}, ErrFlowNotFound
	}
	return flow, nil
}

func (s *FlowService) ListFlows(ctx context.Context, userID string, filter store.FlowFilter) ([]models.FinancialFlow, error) {
	return s.flows.ListByUser(ctx, userID, filter)
}

type CategoryLine struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	Total    int64  `json:"total"`
	Count    int64  `json:"count"`
}

type Report struct {
	From         time.Time      `json:"from"`
	To           time.Time      `json:"to"`
	IncomeMinor  int64          `json:"income"`
	ExpenseMinor int64          `json:"expense"`
	NetMinor     int64          `json:"net"`
	NetDisplay   string         `json:"net_display"`
	ByCategory   []CategoryLine `json:"by_category"`
}

// MonthlyReport aggregates completed and pending flows for one month.
func (s *FlowService) MonthlyReport(ctx context.Context, userID string, year int, month time.Month) (Report, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return s.report(ctx, userID, from, to)
}

// Deductible expense categories for the yearly tax summary.
var deductibleCategories = map[string]bool{
	"utilities":       true,
	"insurance":       true,
	"property_tax":    true,
	"maintenance":     true,
	"management_fees": true,
}

type TaxSummary struct {
	Year               int            `json:"year"`
	RentalIncomeMinor  int64          `json:"rental_income"`
	DeductibleMinor    int64          `json:"deductible_expenses"`
	NetTaxableMinor    int64          `json:"net_taxable"`
	DeductibleByBucket []CategoryLine `json:"deductible_by_category"`
}

func (s *FlowService) YearlyTaxSummary(ctx context.Context, userID string, year int) (TaxSummary, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	totals, err := s.flows.TotalsByCategory(ctx, userID, from, to)
	if err != nil {
		return TaxSummary{}, err
	}
	summary := TaxSummary{Year: year, DeductibleByBucket: []CategoryLine{}}
	for _, total := range totals {
		if total.Type == string(models.FlowIncome) && total.Category == "rental_income" {
			summary.RentalIncomeMinor += total.Total
		}
		if total.Type == string(models.FlowExpense) && deductibleCategories[total.Category] {
			summary.DeductibleMinor += total.Total
			summary.DeductibleByBucket = append(summary.DeductibleByBucket, CategoryLine(total))
		}
	}
	summary.NetTaxableMinor = summary.RentalIncomeMinor - summary.DeductibleMinor
	return summary, nil
}

func (s *FlowService) report(ctx context.Context, userID string, from, to time.Time) (Report, error) {
	totals, err := s.flows.TotalsByCategory(ctx, userID, from, to)
	if err != nil {
		return Report{}, err
	}
	report := Report{From: from, To: to, ByCategory: []CategoryLine{}}
	for _, total := range totals {
		if total.Type == string(models.FlowIncome) {
			report.IncomeMinor += total.Total
		} else {
			report.ExpenseMinor += total.Total
		}
		report.ByCategory = append(report.ByCategory, CategoryLine(total))
	}
	report.NetMinor = report.IncomeMinor - report.ExpenseMinor
	report.NetDisplay = money.FormatMinor(report.NetMinor)
	return report, nil
}

func (s *FlowService) buildFlow(userID string, input FlowInput) (models.FinancialFlow, error) {
	flowType, err := models.ParseFlowType(input.Type)
	if err != nil {
		return models.FinancialFlow{}, fmt.Errorf("%w: %v", ErrInvalidFlow, err)
	}
	status := models.FlowCompleted
	if input.Status != "" {
		status, err = models.ParseFlowStatus(input.Status)
		if err != nil {
			return models.FinancialFlow{}, fmt.Errorf("%w: %v", ErrInvalidFlow, err)
		}
	}
	if input.AmountMinor <= 0 {
		return models.FinancialFlow{}, fmt.Errorf("%w: amount must be positive", ErrInvalidFlow)
	}
	if input.Category == "" {
		return models.FinancialFlow{}, fmt.Errorf("%w: category is required", ErrInvalidFlow)
	}
	if input.Date.IsZero() {
		return models.FinancialFlow{}, fmt.Errorf("%w: date is required", ErrInvalidFlow)
	}
	recurrence := input.Recurrence
	if recurrence == "" {
		recurrence = "none"
	}
	return models.FinancialFlow{
		UserID:        userID,
		Type:          flowType,
		Category:      input.Category,
		AmountMinor:   input.AmountMinor,
		Currency:      input.Currency,
		Date:          input.Date,
		PropertyID:    input.PropertyID,
		TenantID:      input.TenantID,
		Recurrence:    recurrence,
		Status:        status,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
	}, nil
}
