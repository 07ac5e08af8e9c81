package store

import (
	"context"
	"time"

	"rentfolio/internal/models"
)

type BankAccountStore struct {
	db DB
}

type bankAccountRow struct {
	ID             string     `db:"id"`
	ConnectionID   string     `db:"connection_id"`
	IBAN           string     `db:"iban"`
	Name           string     `db:"name"`
	Currency       string     `db:"currency"`
	AccountType    string     `db:"account_type"`
	BalanceMinor   int64      `db:"balance"`
	AvailableMinor int64      `db:"available_balance"`
	LastSyncAt     *time.Time `db:"last_sync_at"`
	CreatedAt      time.Time  `db:"created_at"`
}

func NewBankAccountStore(db DB) *BankAccountStore {
	return &BankAccountStore{db: db}
}

// Upsert overwrites balances and sync timestamp on conflict; identity is the
// aggregator account id.
func (s *BankAccountStore) Upsert(ctx context.Context, tx Execer, account models.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (id, connection_id, iban, name, currency, account_type, balance, available_balance, last_sync_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET iban = EXCLUDED.iban,
		    name = EXCLUDED.name,
		    currency = EXCLUDED.currency,
		    account_type = EXCLUDED.account_type,
		    balance = EXCLUDED.balance,
		    available_balance = EXCLUDED.available_balance,
		    last_sync_at = EXCLUDED.last_sync_at
	`
	_, err := tx.ExecContext(ctx, query,
		account.ID, account.ConnectionID, account.IBAN, account.Name, account.Currency,
		account.AccountType, account.BalanceMinor, account.AvailableMinor, account.LastSyncAt,
	)
	return err
}

func (s *BankAccountStore) GetByID(ctx context.Context, accountID string) (models.BankAccount, error) {
	var row bankAccountRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, connection_id, iban, name, currency, account_type, balance, available_balance, last_sync_at, created_at
		FROM bank_accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		return models.BankAccount{}, err
	}
	return rowToBankAccount(row), nil
}

func (s *BankAccountStore) ListByConnection(ctx context.Context, connectionID string) ([]models.BankAccount, error) {
	var rows []bankAccountRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, connection_id, iban, name, currency, account_type, balance, available_balance, last_sync_at, created_at
		FROM bank_accounts
		WHERE connection_id = $1
		ORDER BY name
	`, connectionID)
	if err != nil {
		return nil, err
	}
	accounts := make([]models.BankAccount, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToBankAccount(row))
	}
	return accounts, nil
}

func (s *BankAccountStore) ListByUser(ctx context.Context, userID string) ([]models.BankAccount, error) {
	var rows []bankAccountRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.connection_id, a.iban, a.name, a.currency, a.account_type, a.balance, a.available_balance, a.last_sync_at, a.created_at
		FROM bank_accounts a
		JOIN bank_connections c ON c.id = a.connection_id
		WHERE c.user_id = $1
		ORDER BY a.name
	`, userID)
	if err != nil {
		return nil, err
	}
	accounts := make([]models.BankAccount, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToBankAccount(row))
	}
	return accounts, nil
}

func rowToBankAccount(row bankAccountRow) models.BankAccount {
	return models.BankAccount{
		ID:             row.ID,
		ConnectionID:   row.ConnectionID,
		IBAN:           row.IBAN,
		Name:           row.Name,
		Currency:       row.Currency,
		AccountType:    row.AccountType,
		BalanceMinor:   row.BalanceMinor,
		AvailableMinor: row.AvailableMinor,
		LastSyncAt:     row.LastSyncAt,
		CreatedAt:      row.CreatedAt,
	}
}
