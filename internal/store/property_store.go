package store

import (
	"context"

	"rentfolio/internal/models"
)

type PropertyStore struct {
	db DB
}

func NewPropertyStore(db DB) *PropertyStore {
	return &PropertyStore{db: db}
}

func (s *PropertyStore) Create(ctx context.Context, tx Execer, property models.Property) error {
	query := `
		INSERT INTO properties (id, user_id, name, address, city, rent_amount, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		property.ID, property.UserID, property.Name, property.Address,
		property.City, property.RentAmountMinor, property.Currency,
	)
	return err
}

func (s *PropertyStore) GetByID(ctx context.Context, propertyID string) (models.Property, error) {
	var property models.Property
	err := s.db.GetContext(ctx, &property, `
		SELECT id, user_id, name, address, city, rent_amount, currency, created_at
		FROM properties
		WHERE id = $1
	`, propertyID)
	if err != nil {
		return models.Property{}, err
	}
	return property, nil
}

// ListByUser returns properties in creation order, which makes "first
// property" a stable fallback for the sync pipeline's best-effort match.
func (s *PropertyStore) ListByUser(ctx context.Context, userID string) ([]models.Property, error) {
	var properties []models.Property
	err := s.db.SelectContext(ctx, &properties, `
		SELECT id, user_id, name, address, city, rent_amount, currency, created_at
		FROM properties
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return properties, nil
}

func (s *PropertyStore) Update(ctx context.Context, tx Execer, property models.Property) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE properties
		SET name = $1, address = $2, city = $3, rent_amount = $4, currency = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
	`, property.Name, property.Address, property.City, property.RentAmountMinor, property.Currency, property.ID, property.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PropertyStore) Delete(ctx context.Context, tx Execer, propertyID, userID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM properties WHERE id = $1 AND user_id = $2
	`, propertyID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
