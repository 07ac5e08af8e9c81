package store

import (
	"context"
	"time"

	"rentfolio/internal/models"
)

type BankTransactionStore struct {
	db DB
}

type bankTransactionRow struct {
	ID           string    `db:"id"`
	AccountID    string    `db:"account_id"`
	AmountMinor  int64     `db:"amount"`
	Currency     string    `db:"currency"`
	BookingDate  time.Time `db:"booking_date"`
	ValueDate    time.Time `db:"value_date"`
	Description  string    `db:"description"`
	Counterparty string    `db:"counterparty"`
	Category     string    `db:"category"`
	IsCredit     bool      `db:"is_credit"`
	ImportedAt   time.Time `db:"imported_at"`
}

func NewBankTransactionStore(db DB) *BankTransactionStore {
	return &BankTransactionStore{db: db}
}

// Exists reports whether the aggregator transaction id is already stored.
// The sync pipeline must treat a hit as a no-op, never as an update.
func (s *BankTransactionStore) Exists(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM bank_transactions WHERE id = $1)
	`, transactionID)
	return exists, err
}

func (s *BankTransactionStore) Insert(ctx context.Context, tx Execer, txn models.BankTransaction) error {
	query := `
		INSERT INTO bank_transactions (id, account_id, amount, currency, booking_date, value_date, description, counterparty, category, is_credit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query,
		txn.ID, txn.AccountID, txn.AmountMinor, txn.Currency, txn.BookingDate, txn.ValueDate,
		txn.Description, txn.Counterparty, txn.Category, txn.IsCredit,
	)
	return err
}

func (s *BankTransactionStore) GetByID(ctx context.Context, transactionID string) (models.BankTransaction, error) {
	var row bankTransactionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, account_id, amount, currency, booking_date, value_date, description, counterparty, category, is_credit, imported_at
		FROM bank_transactions
		WHERE id = $1
	`, transactionID)
	if err != nil {
		return models.BankTransaction{}, err
	}
	return rowToBankTransaction(row), nil
}

func (s *BankTransactionStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.BankTransaction, error) {
	var rows []bankTransactionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, amount, currency, booking_date, value_date, description, counterparty, category, is_credit, imported_at
		FROM bank_transactions
		WHERE account_id = $1
		ORDER BY booking_date DESC, id
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rowsToBankTransactions(rows), nil
}

func (s *BankTransactionStore) ListByUser(ctx context.Context, userID string) ([]models.BankTransaction, error) {
	var rows []bankTransactionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.id, t.account_id, t.amount, t.currency, t.booking_date, t.value_date, t.description, t.counterparty, t.category, t.is_credit, t.imported_at
		FROM bank_transactions t
		JOIN bank_accounts a ON a.id = t.account_id
		JOIN bank_connections c ON c.id = a.connection_id
		WHERE c.user_id = $1
		ORDER BY t.booking_date DESC, t.id
	`, userID)
	if err != nil {
		return nil, err
	}
	return rowsToBankTransactions(rows), nil
}

// UpdateCategory is the only mutation allowed after import.
func (s *BankTransactionStore) UpdateCategory(ctx context.Context, tx Execer, transactionID, category string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE bank_transactions SET category = $1 WHERE id = $2
	`, category, transactionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func rowToBankTransaction(row bankTransactionRow) models.BankTransaction {
	return models.BankTransaction{
		ID:           row.ID,
		AccountID:    row.AccountID,
		AmountMinor:  row.AmountMinor,
		Currency:     row.Currency,
		BookingDate:  row.BookingDate,
		ValueDate:    row.ValueDate,
		Description:  row.Description,
		Counterparty: row.Counterparty,
		Category:     row.Category,
		IsCredit:     row.IsCredit,
		ImportedAt:   row.ImportedAt,
	}
}

func rowsToBankTransactions(rows []bankTransactionRow) []models.BankTransaction {
	transactions := make([]models.BankTransaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, rowToBankTransaction(row))
	}
	return transactions
}
