package store

import (
	"context"
	"time"

	"rentfolio/internal/models"
)

type ConnectionStore struct {
	db DB
}

type connectionRow struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	InstitutionID    string     `db:"institution_id"`
	InstitutionName  string     `db:"institution_name"`
	RequisitionID    string     `db:"requisition_id"`
	AgreementID      string     `db:"agreement_id"`
	Status           string     `db:"status"`
	LastSyncAt       *time.Time `db:"last_sync_at"`
	ConsentExpiresAt *time.Time `db:"consent_expires_at"`
	CreatedAt        time.Time  `db:"created_at"`
}

func NewConnectionStore(db DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

func (s *ConnectionStore) Create(ctx context.Context, tx Execer, conn models.BankConnection) error {
	query := `
		INSERT INTO bank_connections (id, user_id, institution_id, institution_name, requisition_id, agreement_id, status, consent_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		conn.ID, conn.UserID, conn.InstitutionID, conn.InstitutionName,
		conn.RequisitionID, conn.AgreementID, string(conn.Status), conn.ConsentExpiresAt,
	)
	return err
}

func (s *ConnectionStore) GetByID(ctx context.Context, connectionID string) (models.BankConnection, error) {
	var row connectionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, institution_id, institution_name, requisition_id, agreement_id, status, last_sync_at, consent_expires_at, created_at
		FROM bank_connections
		WHERE id = $1
	`, connectionID)
	if err != nil {
		return models.BankConnection{}, err
	}
	return rowToConnection(row)
}

func (s *ConnectionStore) ListByUser(ctx context.Context, userID string) ([]models.BankConnection, error) {
	var rows []connectionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, institution_id, institution_name, requisition_id, agreement_id, status, last_sync_at, consent_expires_at, created_at
		FROM bank_connections
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	connections := make([]models.BankConnection, 0, len(rows))
	for _, row := range rows {
		conn, err := rowToConnection(row)
		if err != nil {
			return nil, err
		}
		connections = append(connections, conn)
	}
	return connections, nil
}

// ListSyncable returns connections eligible for the background sync ticker.
func (s *ConnectionStore) ListSyncable(ctx context.Context) ([]models.BankConnection, error) {
	var rows []connectionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, institution_id, institution_name, requisition_id, agreement_id, status, last_sync_at, consent_expires_at, created_at
		FROM bank_connections
		WHERE status IN ('connected', 'pending')
		ORDER BY last_sync_at ASC NULLS FIRST
	`)
	if err != nil {
		return nil, err
	}
	connections := make([]models.BankConnection, 0, len(rows))
	for _, row := range rows {
		conn, err := rowToConnection(row)
		if err != nil {
			return nil, err
		}
		connections = append(connections, conn)
	}
	return connections, nil
}

func (s *ConnectionStore) UpdateStatus(ctx context.Context, tx Execer, connectionID string, status models.ConnectionStatus) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE bank_connections
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, string(status), connectionID)
	return err
}

func (s *ConnectionStore) MarkSynced(ctx context.Context, tx Execer, connectionID string, status models.ConnectionStatus, syncedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE bank_connections
		SET status = $1, last_sync_at = $2, updated_at = NOW()
		WHERE id = $3
	`, string(status), syncedAt, connectionID)
	return err
}

// Delete removes the connection and everything under it: transactions of its
// accounts first, then the accounts, then the connection itself. Runs inside
// one transaction so a partial cascade is never visible.
func (s *ConnectionStore) Delete(ctx context.Context, tx Execer, connectionID string) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM bank_transactions
		WHERE account_id IN (SELECT id FROM bank_accounts WHERE connection_id = $1)
	`, connectionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM bank_accounts WHERE connection_id = $1
	`, connectionID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `
		DELETE FROM bank_connections WHERE id = $1
	`, connectionID)
	return err
}

func rowToConnection(row connectionRow) (models.BankConnection, error) {
	status, err := models.ParseConnectionStatus(row.Status)
	if err != nil {
		return models.BankConnection{}, err
	}
	return models.BankConnection{
		ID:               row.ID,
		UserID:           row.UserID,
		InstitutionID:    row.InstitutionID,
		InstitutionName:  row.InstitutionName,
		RequisitionID:    row.RequisitionID,
		AgreementID:      row.AgreementID,
		Status:           status,
		LastSyncAt:       row.LastSyncAt,
		ConsentExpiresAt: row.ConsentExpiresAt,
		CreatedAt:        row.CreatedAt,
	}, nil
}

func derefStringPtr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
