package store

import (
	"context"

	"rentfolio/internal/models"
)

type TenantStore struct {
	db DB
}

func NewTenantStore(db DB) *TenantStore {
	return &TenantStore{db: db}
}

func (s *TenantStore) Create(ctx context.Context, tx Execer, tenant models.Tenant) error {
	query := `
		INSERT INTO tenants (id, property_id, name, email, lease_start, lease_end)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		tenant.ID, tenant.PropertyID, tenant.Name, tenant.Email, tenant.LeaseStart, tenant.LeaseEnd,
	)
	return err
}

func (s *TenantStore) GetByID(ctx context.Context, tenantID string) (models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.GetContext(ctx, &tenant, `
		SELECT id, property_id, name, email, lease_start, lease_end, created_at
		FROM tenants
		WHERE id = $1
	`, tenantID)
	if err != nil {
		return models.Tenant{}, err
	}
	return tenant, nil
}

func (s *TenantStore) ListByProperty(ctx context.Context, propertyID string) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := s.db.SelectContext(ctx, &tenants, `
		SELECT id, property_id, name, email, lease_start, lease_end, created_at
		FROM tenants
		WHERE property_id = $1
		ORDER BY name
	`, propertyID)
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func (s *TenantStore) ListByUser(ctx context.Context, userID string) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := s.db.SelectContext(ctx, &tenants, `
		SELECT t.id, t.property_id, t.name, t.email, t.lease_start, t.lease_end, t.created_at
		FROM tenants t
		JOIN properties p ON p.id = t.property_id
		WHERE p.user_id = $1
		ORDER BY t.name
	`, userID)
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func (s *TenantStore) Delete(ctx context.Context, tx Execer, tenantID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, tenantID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
