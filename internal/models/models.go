package models

import (
	"fmt"
	"time"
)

// ConnectionStatus is the lifecycle state of a bank connection. Mirrored from
// the aggregator only at sync time; stored as a closed set, never free text.
type ConnectionStatus string

const (
	ConnectionPending      ConnectionStatus = "pending"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionError        ConnectionStatus = "error"
	ConnectionExpired      ConnectionStatus = "expired"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

func ParseConnectionStatus(raw string) (ConnectionStatus, error) {
	switch ConnectionStatus(raw) {
	case ConnectionPending, ConnectionConnected, ConnectionError, ConnectionExpired, ConnectionDisconnected:
		return ConnectionStatus(raw), nil
	}
	return "", fmt.Errorf("unknown connection status %q", raw)
}

// FlowType distinguishes income from expense records.
type FlowType string

const (
	FlowIncome  FlowType = "income"
	FlowExpense FlowType = "expense"
)

func ParseFlowType(raw string) (FlowType, error) {
	switch FlowType(raw) {
	case FlowIncome, FlowExpense:
		return FlowType(raw), nil
	}
	return "", fmt.Errorf("unknown flow type %q", raw)
}

// FlowStatus is the settlement state of a financial flow.
type FlowStatus string

const (
	FlowPending   FlowStatus = "pending"
	FlowCompleted FlowStatus = "completed"
	FlowCancelled FlowStatus = "cancelled"
)

func ParseFlowStatus(raw string) (FlowStatus, error) {
	switch FlowStatus(raw) {
	case FlowPending, FlowCompleted, FlowCancelled:
		return FlowStatus(raw), nil
	}
	return "", fmt.Errorf("unknown flow status %q", raw)
}

// Source tags where a unified transaction line came from.
type Source string

const (
	SourceManual     Source = "manual"
	SourceBankImport Source = "bank_import"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Property struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Name            string    `db:"name" json:"name"`
	Address         string    `db:"address" json:"address"`
	City            string    `db:"city" json:"city"`
	RentAmountMinor int64     `db:"rent_amount" json:"rent_amount"`
	Currency        string    `db:"currency" json:"currency"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type Tenant struct {
	ID         string     `db:"id" json:"id"`
	PropertyID string     `db:"property_id" json:"property_id"`
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email"`
	LeaseStart *time.Time `db:"lease_start" json:"lease_start,omitempty"`
	LeaseEnd   *time.Time `db:"lease_end" json:"lease_end,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// BankConnection is one consent grant with one institution. Deleting it
// cascades to its accounts and their transactions.
type BankConnection struct {
	ID               string           `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"user_id"`
	InstitutionID    string           `db:"institution_id" json:"institution_id"`
	InstitutionName  string           `db:"institution_name" json:"institution_name"`
	RequisitionID    string           `db:"requisition_id" json:"requisition_id"`
	AgreementID      string           `db:"agreement_id" json:"agreement_id"`
	Status           ConnectionStatus `db:"status" json:"status"`
	LastSyncAt       *time.Time       `db:"last_sync_at" json:"last_sync_at,omitempty"`
	ConsentExpiresAt *time.Time       `db:"consent_expires_at" json:"consent_expires_at,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

// BankAccount is owned exclusively by its connection and upserted on every
// sync; identity is the aggregator account id.
type BankAccount struct {
	ID             string     `db:"id" json:"id"`
	ConnectionID   string     `db:"connection_id" json:"connection_id"`
	IBAN           string     `db:"iban" json:"iban"`
	Name           string     `db:"name" json:"name"`
	Currency       string     `db:"currency" json:"currency"`
	AccountType    string     `db:"account_type" json:"account_type"`
	BalanceMinor   int64      `db:"balance" json:"balance"`
	AvailableMinor int64      `db:"available_balance" json:"available_balance"`
	LastSyncAt     *time.Time `db:"last_sync_at" json:"last_sync_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// BankTransaction is one imported ledger line. The id is the aggregator's
// transaction id and is the global de-duplication key: a later sync seeing the
// same id skips it, never merges. Only the category may change after insert.
type BankTransaction struct {
	ID           string    `db:"id" json:"id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	AmountMinor  int64     `db:"amount" json:"amount"`
	Currency     string    `db:"currency" json:"currency"`
	BookingDate  time.Time `db:"booking_date" json:"booking_date"`
	ValueDate    time.Time `db:"value_date" json:"value_date"`
	Description  string    `db:"description" json:"description"`
	Counterparty string    `db:"counterparty" json:"counterparty"`
	Category     string    `db:"category" json:"category"`
	IsCredit     bool      `db:"is_credit" json:"is_credit"`
	ImportedAt   time.Time `db:"imported_at" json:"imported_at"`
}

// FinancialFlow is a manually entered or bank-derived income/expense record.
// Bank-derived flows carry SourceBankImport metadata plus the originating
// aggregator transaction id; the sync pipeline never mutates one it created.
type FinancialFlow struct {
	ID                  string     `db:"id" json:"id"`
	UserID              string     `db:"user_id" json:"user_id"`
	Type                FlowType   `db:"type" json:"type"`
	Category            string     `db:"category" json:"category"`
	AmountMinor         int64      `db:"amount" json:"amount"`
	Currency            string     `db:"currency" json:"currency"`
	Date                time.Time  `db:"date" json:"date"`
	PropertyID          *string    `db:"property_id" json:"property_id,omitempty"`
	TenantID            *string    `db:"tenant_id" json:"tenant_id,omitempty"`
	Recurrence          string     `db:"recurrence" json:"recurrence"`
	Status              FlowStatus `db:"status" json:"status"`
	PaymentMethod       string     `db:"payment_method" json:"payment_method"`
	Notes               string     `db:"notes" json:"notes"`
	Source              string     `db:"source" json:"source"`
	SourceTransactionID *string    `db:"source_transaction_id" json:"source_transaction_id,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// UnifiedTransaction is a request-time projection merging one FinancialFlow or
// one BankTransaction into a common shape. It carries no identity beyond the
// prefixed composite of its source id and is never persisted.
type UnifiedTransaction struct {
	ID           string    `json:"id"`
	Source       Source    `json:"source"`
	Type         FlowType  `json:"type"`
	AmountMinor  int64     `json:"amount"`
	Currency     string    `json:"currency"`
	Date         time.Time `json:"date"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Counterparty string    `json:"counterparty,omitempty"`
	Status       string    `json:"status,omitempty"`
	AccountID    string    `json:"account_id,omitempty"`
	PropertyID   string    `json:"property_id,omitempty"`
}
