package handlers

import (
	"context"
	"time"

	"rentfolio/internal/gocardless"
	"rentfolio/internal/models"
	"rentfolio/internal/services"
	"rentfolio/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (map[string]any, error)
	GetByID(ctx context.Context, userID string) (map[string]any, error)
}

type PropertyStore interface {
	Create(ctx context.Context, tx store.Execer, property models.Property) error
	GetByID(ctx context.Context, propertyID string) (models.Property, error)
	ListByUser(ctx context.Context, userID string) ([]models.Property, error)
	Update(ctx context.Context, tx store.Execer, property models.Property) (int64, error)
	Delete(ctx context.Context, tx store.Execer, propertyID, userID string) (int64, error)
}

type TenantStore interface {
	Create(ctx context.Context, tx store.Execer, tenant models.Tenant) error
	GetByID(ctx context.Context, tenantID string) (models.Tenant, error)
	ListByProperty(ctx context.Context, propertyID string) ([]models.Tenant, error)
	ListByUser(ctx context.Context, userID string) ([]models.Tenant, error)
	Delete(ctx context.Context, tx store.Execer, tenantID string) (int64, error)
}

type ConnectionStore interface {
	Create(ctx context.Context, tx store.Execer, conn models.BankConnection) error
	GetByID(ctx context.Context, connectionID string) (models.BankConnection, error)
	ListByUser(ctx context.Context, userID string) ([]models.BankConnection, error)
	Delete(ctx context.Context, tx store.Execer, connectionID string) error
}

type BankAccountStore interface {
	GetByID(ctx context.Context, accountID string) (models.BankAccount, error)
	ListByUser(ctx context.Context, userID string) ([]models.BankAccount, error)
	ListByConnection(ctx context.Context, connectionID string) ([]models.BankAccount, error)
}

type BankTransactionStore interface {
	GetByID(ctx context.Context, transactionID string) (models.BankTransaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.BankTransaction, error)
	UpdateCategory(ctx context.Context, tx store.Execer, transactionID, category string) (int64, error)
}

type SyncLogStore interface {
	ListByConnection(ctx context.Context, connectionID string, limit, offset int) ([]map[string]any, error)
}

// AggregatorClient is the part of the open-banking client the HTTP layer
// talks to directly; the sync path goes through SyncService.
type AggregatorClient interface {
	ListInstitutions(ctx context.Context, countryCode string) ([]gocardless.Institution, error)
	CreateConsentAndLink(ctx context.Context, institutionID string, maxHistoricalDays int) (gocardless.ConsentLink, error)
}

type SyncService interface {
	SyncConnection(ctx context.Context, userID, connectionID string) (services.Result, error)
}

type FlowService interface {
	CreateFlow(ctx context.Context, userID string, input services.FlowInput) (models.FinancialFlow, error)
	UpdateFlow(ctx context.Context, userID, flowID string, input services.FlowInput) (models.FinancialFlow, error)
	DeleteFlow(ctx context.Context, userID, flowID string) error
	GetFlow(ctx context.Context, userID, flowID string) (models.FinancialFlow, error)
	ListFlows(ctx context.Context, userID string, filter store.FlowFilter) ([]models.FinancialFlow, error)
	MonthlyReport(ctx context.Context, userID string, year int, month time.Month) (services.Report, error)
	YearlyTaxSummary(ctx context.Context, userID string, year int) (services.TaxSummary, error)
}

type UnifiedService interface {
	List(ctx context.Context, userID string, filter services.UnifiedFilter) ([]models.UnifiedTransaction, error)
}
