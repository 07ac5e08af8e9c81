package store

import "context"

// SyncLogStore keeps one audit row per sync run so partial failures remain
// inspectable after the fact.
type SyncLogStore struct {
	db DB
}

type syncLogRow struct {
	ID                   string `db:"id"`
	ConnectionID         string `db:"connection_id"`
	AccountsSynced       int    `db:"accounts_synced"`
	TransactionsImported int    `db:"transactions_imported"`
	Errors               string `db:"errors"`
	StartedAt            any    `db:"started_at"`
	FinishedAt           any    `db:"finished_at"`
}

func NewSyncLogStore(db DB) *SyncLogStore {
	return &SyncLogStore{db: db}
}

func (s *SyncLogStore) Log(ctx context.Context, tx Execer, connectionID string, accountsSynced, transactionsImported int, errorsJSON string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sync_logs (id, connection_id, accounts_synced, transactions_imported, errors, finished_at)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, NOW())
	`, connectionID, accountsSynced, transactionsImported, errorsJSON)
	return err
}

func (s *SyncLogStore) ListByConnection(ctx context.Context, connectionID string, limit, offset int) ([]map[string]any, error) {
	var rows []syncLogRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, connection_id, accounts_synced, transactions_imported, errors, started_at, finished_at
		FROM sync_logs
		WHERE connection_id = $1
		ORDER BY finished_at DESC
		LIMIT $2 OFFSET $3
	`, connectionID, limit, offset)
	if err != nil {
		return nil, err
	}
	logs := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, map[string]any{
			"id":                    row.ID,
			"connection_id":         row.ConnectionID,
			"accounts_synced":       row.AccountsSynced,
			"transactions_imported": row.TransactionsImported,
			"errors":                row.Errors,
			"started_at":            row.StartedAt,
			"finished_at":           row.FinishedAt,
		})
	}
	return logs, nil
}
