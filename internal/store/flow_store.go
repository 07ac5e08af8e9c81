package store

import (
	"context"
	"fmt"
	"time"

	"rentfolio/internal/models"
)

type FlowStore struct {
	db DB
}

type flowRow struct {
	ID                  string    `db:"id"`
	UserID              string    `db:"user_id"`
	Type                string    `db:"type"`
	Category            string    `db:"category"`
	AmountMinor         int64     `db:"amount"`
	Currency            string    `db:"currency"`
	Date                time.Time `db:"date"`
	PropertyID          *string   `db:"property_id"`
	TenantID            *string   `db:"tenant_id"`
	Recurrence          string    `db:"recurrence"`
	Status              string    `db:"status"`
	PaymentMethod       string    `db:"payment_method"`
	Notes               string    `db:"notes"`
	Source              string    `db:"source"`
	SourceTransactionID *string   `db:"source_transaction_id"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// FlowFilter narrows ListByUser. Zero values mean "no constraint".
type FlowFilter struct {
	Type       string
	Category   string
	Status     string
	PropertyID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type CategoryTotal struct {
	Category string `db:"category"`
	Type     string `db:"type"`
	Total    int64  `db:"total"`
	Count    int64  `db:"count"`
}

func NewFlowStore(db DB) *FlowStore {
	return &FlowStore{db: db}
}

func (s *FlowStore) Create(ctx context.Context, tx Execer, flow models.FinancialFlow) error {
	query := `
		INSERT INTO financial_flows (id, user_id, type, category, amount, currency, date, property_id, tenant_id, recurrence, status, payment_method, notes, source, source_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := tx.ExecContext(ctx, query,
		flow.ID, flow.UserID, string(flow.Type), flow.Category, flow.AmountMinor, flow.Currency,
		flow.Date, flow.PropertyID, flow.TenantID, flow.Recurrence, string(flow.Status),
		flow.PaymentMethod, flow.Notes, flow.Source, flow.SourceTransactionID,
	)
	return err
}

func (s *FlowStore) GetByID(ctx context.Context, flowID string) (models.FinancialFlow, error) {
	var row flowRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, type, category, amount, currency, date, property_id, tenant_id, recurrence, status, payment_method, notes, source, source_transaction_id, created_at, updated_at
		FROM financial_flows
		WHERE id = $1
	`, flowID)
	if err != nil {
		return models.FinancialFlow{}, err
	}
	return rowToFlow(row)
}

func (s *FlowStore) ListByUser(ctx context.Context, userID string, filter FlowFilter) ([]models.FinancialFlow, error) {
	query := `
		SELECT id, user_id, type, category, amount, currency, date, property_id, tenant_id, recurrence, status, payment_method, notes, source, source_transaction_id, created_at, updated_at
		FROM financial_flows
		WHERE user_id = $1
	`
	args := []any{userID}
	param := 2
	appendClause := func(clause string, value any) {
		query += fmt.Sprintf(" AND %s = $%d", clause, param)
		args = append(args, value)
		param++
	}
	if filter.Type != "" {
		appendClause("type", filter.Type)
	}
	if filter.Category != "" {
		appendClause("category", filter.Category)
	}
	if filter.Status != "" {
		appendClause("status", filter.Status)
	}
	if filter.PropertyID != "" {
		appendClause("property_id", filter.PropertyID)
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND date >= $%d", param)
		args = append(args, *filter.From)
		param++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND date <= $%d", param)
		args = append(args, *filter.To)
		param++
	}
	query += " ORDER BY date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", param, param+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	var rows []flowRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	flows := make([]models.FinancialFlow, 0, len(rows))
	for _, row := range rows {
		flow, err := rowToFlow(row)
		if err != nil {
			return nil, err
		}
		flows = append(flows, flow)
	}
	return flows, nil
}

func (s *FlowStore) Update(ctx context.Context, tx Execer, flow models.FinancialFlow) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE financial_flows
		SET type = $1, category = $2, amount = $3, currency = $4, date = $5,
		    property_id = $6, tenant_id = $7, recurrence = $8, status = $9,
		    payment_method = $10, notes = $11, updated_at = NOW()
		WHERE id = $12 AND user_id = $13
	`,
		string(flow.Type), flow.Category, flow.AmountMinor, flow.Currency, flow.Date,
		flow.PropertyID, flow.TenantID, flow.Recurrence, string(flow.Status),
		flow.PaymentMethod, flow.Notes, flow.ID, flow.UserID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *FlowStore) Delete(ctx context.Context, tx Execer, flowID, userID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM financial_flows WHERE id = $1 AND user_id = $2
	`, flowID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TotalsByCategory powers the monthly report: signed totals grouped by
// category within the window.
func (s *FlowStore) TotalsByCategory(ctx context.Context, userID string, from, to time.Time) ([]CategoryTotal, error) {
	var rows []CategoryTotal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT category, type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count
		FROM financial_flows
		WHERE user_id = $1 AND date >= $2 AND date <= $3 AND status <> 'cancelled'
		GROUP BY category, type
		ORDER BY type, total DESC
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func rowToFlow(row flowRow) (models.FinancialFlow, error) {
	flowType, err := models.ParseFlowType(row.Type)
	if err != nil {
		return models.FinancialFlow{}, err
	}
	status, err := models.ParseFlowStatus(row.Status)
	if err != nil {
		return models.FinancialFlow{}, err
	}
	return models.FinancialFlow{
		ID:                  row.ID,
		UserID:              row.UserID,
		Type:                flowType,
		Category:            row.Category,
		AmountMinor:         row.AmountMinor,
		Currency:            row.Currency,
		Date:                row.Date,
		PropertyID:          row.PropertyID,
		TenantID:            row.TenantID,
		Recurrence:          row.Recurrence,
		Status:              status,
		PaymentMethod:       row.PaymentMethod,
		Notes:               row.Notes,
		Source:              row.Source,
		SourceTransactionID: row.SourceTransactionID,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}, nil
}
