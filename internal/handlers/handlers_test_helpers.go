package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rentfolio/internal/auth"
	"rentfolio/internal/config"
	"rentfolio/internal/gocardless"
	"rentfolio/internal/models"
	"rentfolio/internal/services"
	"rentfolio/internal/store"
	"rentfolio/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByEmailFn func(ctx context.Context, email string) (map[string]any, error)
	getByIDFn    func(ctx context.Context, userID string) (map[string]any, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubPropertyStore struct {
	createFn     func(ctx context.Context, tx store.Execer, property models.Property) error
	getByIDFn    func(ctx context.Context, propertyID string) (models.Property, error)
	listByUserFn func(ctx context.Context, userID string) ([]models.Property, error)
	updateFn     func(ctx context.Context, tx store.Execer, property models.Property) (int64, error)
	deleteFn     func(ctx context.Context, tx store.Execer, propertyID, userID string) (int64, error)
}

func (s stubPropertyStore) Create(ctx context.Context, tx store.Execer, property models.Property) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, property)
}

func (s stubPropertyStore) GetByID(ctx context.Context, propertyID string) (models.Property, error) {
	if s.getByIDFn == nil {
		return models.Property{}, nil
	}
	return s.getByIDFn(ctx, propertyID)
}

func (s stubPropertyStore) ListByUser(ctx context.Context, userID string) ([]models.Property, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

func (s stubPropertyStore) Update(ctx context.Context, tx store.Execer, property models.Property) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, property)
}

func (s stubPropertyStore) Delete(ctx context.Context, tx store.Execer, propertyID, userID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, propertyID, userID)
}

type stubTenantStore struct {
	createFn         func(ctx context.Context, tx store.Execer, tenant models.Tenant) error
	getByIDFn        func(ctx context.Context, tenantID string) (models.Tenant, error)
	listByPropertyFn func(ctx context.Context, propertyID string) ([]models.Tenant, error)
	listByUserFn     func(ctx context.Context, userID string) ([]models.Tenant, error)
	deleteFn         func(ctx context.Context, tx store.Execer, tenantID string) (int64, error)
}

func (s stubTenantStore) Create(ctx context.Context, tx store.Execer, tenant models.Tenant) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, tenant)
}

func (s stubTenantStore) GetByID(ctx context.Context, tenantID string) (models.Tenant, error) {
	if s.getByIDFn == nil {
		return models.Tenant{}, nil
	}
	return s.getByIDFn(ctx, tenantID)
}

func (s stubTenantStore) ListByProperty(ctx context.Context, propertyID string) ([]models.Tenant, error) {
	if s.listByPropertyFn == nil {
		return nil, nil
	}
	return s.listByPropertyFn(ctx, propertyID)
}

func (s stubTenantStore) ListByUser(ctx context.Context, userID string) ([]models.Tenant, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

func (s stubTenantStore) Delete(ctx context.Context, tx store.Execer, tenantID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, tenantID)
}

type stubConnectionStore struct {
	createFn     func(ctx context.Context, tx store.Execer, conn models.BankConnection) error
	getByIDFn    func(ctx context.Context, connectionID string) (models.BankConnection, error)
	listByUserFn func(ctx context.Context, userID string) ([]models.BankConnection, error)
	deleteFn     func(ctx context.Context, tx store.Execer, connectionID string) error
}

func (s stubConnectionStore) Create(ctx context.Context, tx store.Execer, conn models.BankConnection) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, conn)
}

func (s stubConnectionStore) GetByID(ctx context.Context, connectionID string) (models.BankConnection, error) {
	if s.getByIDFn == nil {
		return models.BankConnection{}, nil
	}
	return s.getByIDFn(ctx, connectionID)
}

func (s stubConnectionStore) ListByUser(ctx context.Context, userID string) ([]models.BankConnection, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

func (s stubConnectionStore) Delete(ctx context.Context, tx store.Execer, connectionID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, tx, connectionID)
}

type stubBankAccountStore struct {
	getByIDFn          func(ctx context.Context, accountID string) (models.BankAccount, error)
	listByUserFn       func(ctx context.Context, userID string) ([]models.BankAccount, error)
	listByConnectionFn func(ctx context.Context, connectionID string) ([]models.BankAccount, error)
}

func (s stubBankAccountStore) GetByID(ctx context.Context, accountID string) (models.BankAccount, error) {
	if s.getByIDFn == nil {
		return models.BankAccount{}, nil
	}
	return s.getByIDFn(ctx, accountID)
}

func (s stubBankAccountStore) ListByUser(ctx context.Context, userID string) ([]models.BankAccount, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

func (s stubBankAccountStore) ListByConnection(ctx context.Context, connectionID string) ([]models.BankAccount, error) {
	if s.listByConnectionFn == nil {
		return nil, nil
	}
	return s.listByConnectionFn(ctx, connectionID)
}

type stubBankTransactionStore struct {
	getByIDFn        func(ctx context.Context, transactionID string) (models.BankTransaction, error)
	listByAccountFn  func(ctx context.Context, accountID string, limit, offset int) ([]models.BankTransaction, error)
	updateCategoryFn func(ctx context.Context, tx store.Execer, transactionID, category string) (int64, error)
}

func (s stubBankTransactionStore) GetByID(ctx context.Context, transactionID string) (models.BankTransaction, error) {
	if s.getByIDFn == nil {
		return models.BankTransaction{}, nil
	}
	return s.getByIDFn(ctx, transactionID)
}

func (s stubBankTransactionStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.BankTransaction, error) {
	if s.listByAccountFn == nil {
		return nil, nil
	}
	return s.listByAccountFn(ctx, accountID, limit, offset)
}

func (s stubBankTransactionStore) UpdateCategory(ctx context.Context, tx store.Execer, transactionID, category string) (int64, error) {
	if s.updateCategoryFn == nil {
		return 1, nil
	}
	return s.updateCategoryFn(ctx, tx, transactionID, category)
}

type stubSyncLogStore struct {
	listFn func(ctx context.Context, connectionID string, limit, offset int) ([]map[string]any, error)
}

func (s stubSyncLogStore) ListByConnection(ctx context.Context, connectionID string, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, connectionID, limit, offset)
}

type stubAggregator struct {
	listInstitutionsFn func(ctx context.Context, countryCode string) ([]gocardless.Institution, error)
	createConsentFn    func(ctx context.Context, institutionID string, maxHistoricalDays int) (gocardless.ConsentLink, error)
}

func (s stubAggregator) ListInstitutions(ctx context.Context, countryCode string) ([]gocardless.Institution, error) {
	if s.listInstitutionsFn == nil {
		return nil, nil
	}
	return s.listInstitutionsFn(ctx, countryCode)
}

func (s stubAggregator) CreateConsentAndLink(ctx context.Context, institutionID string, maxHistoricalDays int) (gocardless.ConsentLink, error) {
	if s.createConsentFn == nil {
		return gocardless.ConsentLink{}, nil
	}
	return s.createConsentFn(ctx, institutionID, maxHistoricalDays)
}

type stubSyncService struct {
	syncFn func(ctx context.Context, userID, connectionID string) (services.Result, error)
}

func (s stubSyncService) SyncConnection(ctx context.Context, userID, connectionID string) (services.Result, error) {
	if s.syncFn == nil {
		return services.Result{Success: true}, nil
	}
	return s.syncFn(ctx, userID, connectionID)
}

type stubFlowService struct {
	createFn  func(ctx context.Context, userID string, input services.FlowInput) (models.FinancialFlow, error)
	updateFn  func(ctx context.Context, userID, flowID string, input services.FlowInput) (models.FinancialFlow, error)
	deleteFn  func(ctx context.Context, userID, flowID string) error
	getFn     func(ctx context.Context, userID, flowID string) (models.FinancialFlow, error)
	listFn    func(ctx context.Context, userID string, filter store.FlowFilter) ([]models.FinancialFlow, error)
	monthlyFn func(ctx context.Context, userID string, year int, month time.Month) (services.Report, error)
	taxFn     func(ctx context.Context, userID string, year int) (services.TaxSummary, error)
}

func (s stubFlowService) CreateFlow(ctx context.Context, userID string, input services.FlowInput) (models.FinancialFlow, error) {
	if s.createFn == nil {
		return models.FinancialFlow{}, nil
	}
	return s.createFn(ctx, userID, input)
}

func (s stubFlowService) UpdateFlow(ctx context.Context, userID, flowID string, input services.FlowInput) (models.FinancialFlow, error) {
	if s.updateFn == nil {
		return models.FinancialFlow{}, nil
	}
	return s.updateFn(ctx, userID, flowID, input)
}

func (s stubFlowService) DeleteFlow(ctx context.Context, userID, flowID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, flowID)
}

func (s stubFlowService) GetFlow(ctx context.Context, userID, flowID string) (models.FinancialFlow, error) {
	if s.getFn == nil {
		return models.FinancialFlow{}, nil
	}
	return s.getFn(ctx, userID, flowID)
}

func (s stubFlowService) ListFlows(ctx context.Context, userID string, filter store.FlowFilter) ([]models.FinancialFlow, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, filter)
}

func (s stubFlowService) MonthlyReport(ctx context.Context, userID string, year int, month time.Month) (services.Report, error) {
	if s.monthlyFn == nil {
		return services.Report{}, nil
	}
	return s.monthlyFn(ctx, userID, year, month)
}

func (s stubFlowService) YearlyTaxSummary(ctx context.Context, userID string, year int) (services.TaxSummary, error) {
	if s.taxFn == nil {
		return services.TaxSummary{}, nil
	}
	return s.taxFn(ctx, userID, year)
}

type stubUnifiedService struct {
	listFn func(ctx context.Context, userID string, filter services.UnifiedFilter) ([]models.UnifiedTransaction, error)
}

func (s stubUnifiedService) List(ctx context.Context, userID string, filter services.UnifiedFilter) ([]models.UnifiedTransaction, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, filter)
}

type testHandlerDeps struct {
	txRunner    fakeTxRunner
	users       stubUserStore
	properties  stubPropertyStore
	tenants     stubTenantStore
	connections stubConnectionStore
	accounts    stubBankAccountStore
	bankTxns    stubBankTransactionStore
	syncLogs    stubSyncLogStore
	aggregator  stubAggregator
	sync        stubSyncService
	flows       stubFlowService
	unified     stubUnifiedService
}

func newTestHandler(deps testHandlerDeps) *Handler {
	cfg := config.Config{
		AppEnv:            "test",
		Port:              "0",
		JWTSecret:         "secret",
		TokenTTL:          time.Minute,
		AllowedOrigins:    "*",
		UserLanguage:      "FR",
		MaxHistoricalDays: 90,
	}
	return New(deps.txRunner, cfg, deps.users, deps.properties, deps.tenants, deps.connections, deps.accounts, deps.bankTxns, deps.syncLogs, deps.aggregator, deps.sync, deps.flows, deps.unified, websocket.NewHub())
}

func serveAuthed(t *testing.T, handler *Handler, method, target, userID string, body string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	return rr
}

func serveAnon(handler *Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	return rr
}
