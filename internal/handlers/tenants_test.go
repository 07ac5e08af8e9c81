package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"rentfolio/internal/models"
	"rentfolio/internal/store"
)

func TestCreateTenantParsesLeaseDates(t *testing.T) {
	var created models.Tenant
	handler := newTestHandler(testHandlerDeps{
		properties: stubPropertyStore{
			getByIDFn: func(_ context.Context, propertyID string) (models.Property, error) {
				return models.Property{ID: propertyID, UserID: "user-1"}, nil
			},
		},
		tenants: stubTenantStore{
			createFn: func(_ context.Context, _ store.Execer, tenant models.Tenant) error {
				created = tenant
				return nil
			},
		},
	})
	body := `{"property_id":"prop-1","name":"M. Dupont","email":"dupont@example.com","lease_start":"2024-01-01","lease_end":"2024-12-31"}`
	rr := serveAuthed(t, handler, http.MethodPost, "/tenants/", "user-1", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if created.LeaseStart == nil || created.LeaseStart.Format("2006-01-02") != "2024-01-01" {
		t.Fatalf("unexpected lease start: %v", created.LeaseStart)
	}
	if created.LeaseEnd == nil || created.LeaseEnd.Format("2006-01-02") != "2024-12-31" {
		t.Fatalf("unexpected lease end: %v", created.LeaseEnd)
	}
}

func TestCreateTenantForeignProperty(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		properties: stubPropertyStore{
			getByIDFn: func(_ context.Context, propertyID string) (models.Property, error) {
				return models.Property{ID: propertyID, UserID: "owner"}, nil
			},
		},
		tenants: stubTenantStore{
			createFn: func(context.Context, store.Execer, models.Tenant) error {
				t.Fatal("must not attach a tenant to a foreign property")
				return nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodPost, "/tenants/", "intruder", `{"property_id":"prop-1","name":"M. Dupont"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCreateTenantRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"property_id":"prop-1"}`},
		{"bad email", `{"property_id":"prop-1","name":"M. Dupont","email":"not-an-email"}`},
		{"bad lease start", `{"property_id":"prop-1","name":"M. Dupont","lease_start":"01/01/2024"}`},
	}
	handler := newTestHandler(testHandlerDeps{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serveAuthed(t, handler, http.MethodPost, "/tenants/", "user-1", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestDeleteTenantChecksPropertyOwner(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		tenants: stubTenantStore{
			getByIDFn: func(_ context.Context, tenantID string) (models.Tenant, error) {
				return models.Tenant{ID: tenantID, PropertyID: "prop-1"}, nil
			},
			deleteFn: func(context.Context, store.Execer, string) (int64, error) {
				t.Fatal("must not delete a tenant of a foreign property")
				return 0, nil
			},
		},
		properties: stubPropertyStore{
			getByIDFn: func(_ context.Context, propertyID string) (models.Property, error) {
				return models.Property{ID: propertyID, UserID: "owner"}, nil
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodDelete, "/tenants/ten-1", "intruder", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDeleteTenantUnknown(t *testing.T) {
	handler := newTestHandler(testHandlerDeps{
		tenants: stubTenantStore{
			getByIDFn: func(context.Context, string) (models.Tenant, error) {
				return models.Tenant{}, sql.ErrNoRows
			},
		},
	})
	rr := serveAuthed(t, handler, http.MethodDelete, "/tenants/ten-9", "user-1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
