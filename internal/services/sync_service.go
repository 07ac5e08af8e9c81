package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"rentfolio/internal/categorize"
	"rentfolio/internal/db"
	"rentfolio/internal/gocardless"
	"rentfolio/internal/models"
	"rentfolio/internal/money"
	"rentfolio/internal/store"
	"rentfolio/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrForbidden          = errors.New("connection does not belong to user")
	// ErrNotReady means the requisition is not linked yet; the caller may
	// retry later.
	ErrNotReady = errors.New("connection not ready for sync")
	// ErrSyncInProgress coalesces concurrent triggers for one connection.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// Aggregator is the slice of the open-banking client the orchestrator needs.
type Aggregator interface {
	GetRequisition(ctx context.Context, requisitionID string) (gocardless.Requisition, error)
	GetAccountDetails(ctx context.Context, accountID string) (gocardless.AccountDetails, error)
	GetAccountBalances(ctx context.Context, accountID string) (gocardless.Balances, error)
	GetAccountTransactions(ctx context.Context, accountID string) ([]gocardless.Transaction, error)
}

type ConnectionStore interface {
	GetByID(ctx context.Context, connectionID string) (models.BankConnection, error)
	UpdateStatus(ctx context.Context, tx store.Execer, connectionID string, status models.ConnectionStatus) error
	MarkSynced(ctx context.Context, tx store.Execer, connectionID string, status models.ConnectionStatus, syncedAt time.Time) error
	ListSyncable(ctx context.Context) ([]models.BankConnection, error)
}

type BankAccountStore interface {
	Upsert(ctx context.Context, tx store.Execer, account models.BankAccount) error
}

type BankTransactionStore interface {
	Exists(ctx context.Context, transactionID string) (bool, error)
	Insert(ctx context.Context, tx store.Execer, txn models.BankTransaction) error
}

type PropertyStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Property, error)
}

type FlowStore interface {
	Create(ctx context.Context, tx store.Execer, flow models.FinancialFlow) error
}

type SyncLogStore interface {
	Log(ctx context.Context, tx store.Execer, connectionID string, accountsSynced, transactionsImported int, errorsJSON string) error
}

type SyncHub interface {
	BroadcastSync(userID string, update websocket.SyncUpdate)
}

// Result is the aggregate outcome of one connection refresh. Per-account
// failures land in Errors; the sync itself still completes.
type Result struct {
	Success              bool     `json:"success"`
	AccountsSynced       int      `json:"accounts_synced"`
	TransactionsImported int      `json:"transactions_imported"`
	Errors               []string `json:"errors"`
}

type SyncService struct {
	txRunner     db.TxRunner
	aggregator   Aggregator
	connections  ConnectionStore
	accounts     BankAccountStore
	transactions BankTransactionStore
	properties   PropertyStore
	flows        FlowStore
	syncLogs     SyncLogStore
	hub          SyncHub
	log          zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}

	stopAuto chan struct{}
	autoOnce sync.Once
}

func NewSyncService(txRunner db.TxRunner, aggregator Aggregator, connections ConnectionStore, accounts BankAccountStore, transactions BankTransactionStore, properties PropertyStore, flows FlowStore, syncLogs SyncLogStore, hub SyncHub, log zerolog.Logger) *SyncService {
	return &SyncService{
		txRunner:     txRunner,
		aggregator:   aggregator,
		connections:  connections,
		accounts:     accounts,
		transactions: transactions,
		properties:   properties,
		flows:        flows,
		syncLogs:     syncLogs,
		hub:          hub,
		log:          log,
		inFlight:     make(map[string]struct{}),
		stopAuto:     make(chan struct{}),
	}
}

// SyncConnection drives one connection's full refresh. Failures before the
// account loop abort the whole call; failures inside it are collected into
// the result and sibling accounts still sync.
func (s *SyncService) SyncConnection(ctx context.Context, userID, connectionID string) (Result, error) {
	if !s.acquire(connectionID) {
		return Result{}, ErrSyncInProgress
	}
	defer s.release(connectionID)

	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, ErrConnectionNotFound
		}
		return Result{}, fmt.Errorf("load connection: %w", err)
	}
	if conn.UserID != userID {
		return Result{}, ErrForbidden
	}

	requisition, err := s.aggregator.GetRequisition(ctx, conn.RequisitionID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch requisition: %w", err)
	}
	switch requisition.Status {
	case gocardless.StatusLinked:
	case gocardless.StatusExpired:
		if err := s.setStatus(ctx, conn.ID, models.ConnectionExpired); err != nil {
			s.log.Warn().Err(err).Str("connection_id", conn.ID).Msg("failed to mark connection expired")
		}
		return Result{}, fmt.Errorf("%w: consent expired", ErrNotReady)
	default:
		return Result{}, fmt.Errorf("%w: requisition status %s", ErrNotReady, requisition.Status)
	}

	s.hub.BroadcastSync(conn.UserID, websocket.SyncUpdate{ConnectionID: conn.ID, Phase: "started"})

	result := Result{Errors: []string{}}
	for _, accountID := range requisition.Accounts {
		imported, err := s.syncAccount(ctx, conn, accountID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("account %s: %v", accountID, err))
			s.log.Warn().Err(err).Str("connection_id", conn.ID).Str("account_id", accountID).Msg("account sync failed")
			continue
		}
		result.AccountsSynced++
		result.TransactionsImported += imported
		s.hub.BroadcastSync(conn.UserID, websocket.SyncUpdate{
			ConnectionID:         conn.ID,
			Phase:                "account_synced",
			AccountsSynced:       result.AccountsSynced,
			TransactionsImported: result.TransactionsImported,
		})
	}
	result.Success = len(result.Errors) == 0

	status := models.ConnectionConnected
	if !result.Success {
		status = models.ConnectionError
	}
	errorsJSON, _ := json.Marshal(result.Errors)
	if err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.connections.MarkSynced(ctx, tx, conn.ID, status, time.Now().UTC()); err != nil {
			return err
		}
		return s.syncLogs.Log(ctx, tx, conn.ID, result.AccountsSynced, result.TransactionsImported, string(errorsJSON))
	}); err != nil {
		return Result{}, fmt.Errorf("record sync result: %w", err)
	}

	s.hub.BroadcastSync(conn.UserID, websocket.SyncUpdate{
		ConnectionID:         conn.ID,
		Phase:                "completed",
		AccountsSynced:       result.AccountsSynced,
		TransactionsImported: result.TransactionsImported,
	})
	return result, nil
}

func (s *SyncService) syncAccount(ctx context.Context, conn models.BankConnection, accountID string) (int, error) {
	details, err := s.aggregator.GetAccountDetails(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("fetch details: %w", err)
	}
	balances, err := s.aggregator.GetAccountBalances(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("fetch balances: %w", err)
	}
	availableMinor, err := money.MinorFromDecimalString(balances.Available().Amount)
	if err != nil {
		return 0, fmt.Errorf("parse available balance: %w", err)
	}
	bookedMinor, err := money.MinorFromDecimalString(balances.Booked().Amount)
	if err != nil {
		return 0, fmt.Errorf("parse booked balance: %w", err)
	}

	now := time.Now().UTC()
	name := details.Name
	if name == "" {
		name = details.Product
	}
	if name == "" {
		name = details.IBAN
	}
	account := models.BankAccount{
		ID:             accountID,
		ConnectionID:   conn.ID,
		IBAN:           details.IBAN,
		Name:           name,
		Currency:       details.Currency,
		AccountType:    details.CashAccountType,
		BalanceMinor:   bookedMinor,
		AvailableMinor: availableMinor,
		LastSyncAt:     &now,
	}
	if err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.accounts.Upsert(ctx, tx, account)
	}); err != nil {
		return 0, fmt.Errorf("upsert account: %w", err)
	}

	rawTransactions, err := s.aggregator.GetAccountTransactions(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("fetch transactions: %w", err)
	}
	imported := 0
	for _, raw := range rawTransactions {
		isNew, err := s.saveTransaction(ctx, conn, accountID, raw)
		if err != nil {
			return imported, fmt.Errorf("save transaction %s: %w", raw.TransactionID, err)
		}
		if isNew {
			imported++
		}
	}
	return imported, nil
}

// saveTransaction persists one imported ledger line. An aggregator id already
// present is skipped, never merged. A property-related category additionally
// produces a best-effort financial flow whose failure never fails the sync.
func (s *SyncService) saveTransaction(ctx context.Context, conn models.BankConnection, accountID string, raw gocardless.Transaction) (bool, error) {
	if raw.TransactionID == "" {
		return false, errors.New("missing transaction id")
	}
	exists, err := s.transactions.Exists(ctx, raw.TransactionID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	amountMinor, err := money.MinorFromDecimalString(raw.TransactionAmount.Amount)
	if err != nil {
		return false, fmt.Errorf("parse amount %q: %w", raw.TransactionAmount.Amount, err)
	}
	bookingDate, err := parseAggregatorDate(raw.BookingDate)
	if err != nil {
		return false, fmt.Errorf("parse booking date %q: %w", raw.BookingDate, err)
	}
	valueDate := bookingDate
	if raw.ValueDate != "" {
		if parsed, err := parseAggregatorDate(raw.ValueDate); err == nil {
			valueDate = parsed
		}
	}

	isCredit := amountMinor > 0
	counterparty := raw.Counterparty(isCredit)
	category := categorize.Categorize(raw.RemittanceInformationUnstructured, counterparty, amountMinor)

	txn := models.BankTransaction{
		ID:           raw.TransactionID,
		AccountID:    accountID,
		AmountMinor:  amountMinor,
		Currency:     raw.TransactionAmount.Currency,
		BookingDate:  bookingDate,
		ValueDate:    valueDate,
		Description:  raw.RemittanceInformationUnstructured,
		Counterparty: counterparty,
		Category:     string(category),
		IsCredit:     isCredit,
	}
	if err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.transactions.Insert(ctx, tx, txn)
	}); err != nil {
		return false, err
	}

	if categorize.IsPropertyRelated(category) {
		if err := s.createFlowForTransaction(ctx, conn, txn, category); err != nil {
			s.log.Warn().Err(err).Str("transaction_id", txn.ID).Msg("could not create financial flow for bank transaction")
		}
	}
	return true, nil
}

func (s *SyncService) createFlowForTransaction(ctx context.Context, conn models.BankConnection, txn models.BankTransaction, category categorize.Category) error {
	properties, err := s.properties.ListByUser(ctx, conn.UserID)
	if err != nil {
		return err
	}
	propertyID := matchProperty(properties, txn.Description)

	amount := txn.AmountMinor
	if amount < 0 {
		amount = -amount
	}
	flowType, err := models.ParseFlowType(categorize.FlowType(category, txn.AmountMinor))
	if err != nil {
		return err
	}
	flow := models.FinancialFlow{
		ID:                  uuid.NewString(),
		UserID:              conn.UserID,
		Type:                flowType,
		Category:            string(category),
		AmountMinor:         amount,
		Currency:            txn.Currency,
		Date:                txn.BookingDate,
		PropertyID:          propertyID,
		Recurrence:          "none",
		Status:              models.FlowCompleted,
		PaymentMethod:       "bank_transfer",
		Notes:               txn.Description,
		Source:              "banking",
		SourceTransactionID: &txn.ID,
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.flows.Create(ctx, tx, flow)
	})
}

// matchProperty looks for a property whose name or address appears in the
// transaction description, defaulting to the first property when none match.
func matchProperty(properties []models.Property, description string) *string {
	if len(properties) == 0 {
		return nil
	}
	haystack := strings.ToLower(description)
	for i := range properties {
		name := strings.ToLower(properties[i].Name)
		address := strings.ToLower(properties[i].Address)
		if (name != "" && strings.Contains(haystack, name)) || (address != "" && strings.Contains(haystack, address)) {
			return &properties[i].ID
		}
	}
	return &properties[0].ID
}

func (s *SyncService) setStatus(ctx context.Context, connectionID string, status models.ConnectionStatus) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.connections.UpdateStatus(ctx, tx, connectionID, status)
	})
}

func (s *SyncService) acquire(connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.inFlight[connectionID]; held {
		return false
	}
	s.inFlight[connectionID] = struct{}{}
	return true
}

func (s *SyncService) release(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, connectionID)
}

// StartAutoSync refreshes every syncable connection on a fixed interval.
// Overlap with manual syncs is coalesced by the in-flight guard.
func (s *SyncService) StartAutoSync(interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runAutoSync()
			case <-s.stopAuto:
				return
			}
		}
	}()
}

func (s *SyncService) StopAutoSync() {
	s.autoOnce.Do(func() { close(s.stopAuto) })
}

func (s *SyncService) runAutoSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	connections, err := s.connections.ListSyncable(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("auto-sync could not list connections")
		return
	}
	for _, conn := range connections {
		if _, err := s.SyncConnection(ctx, conn.UserID, conn.ID); err != nil {
			if errors.Is(err, ErrSyncInProgress) || errors.Is(err, ErrNotReady) {
				continue
			}
			s.log.Warn().Err(err).Str("connection_id", conn.ID).Msg("auto-sync failed")
		}
	}
}

func parseAggregatorDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}
