package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

// tenantFilter returns the WHERE clause that confines a query to the tenant
// of ctx. Queries without a tenant are refused.
func tenantFilter(ctx context.Context) (goqu.Ex, error) {
	tenantID := tenant.TenantID(ctx)
	if tenantID == "" {
		return nil, errTenantRequired
	}
	return goqu.Ex{"tenant_id": tenantID}, nil
}

var errTenantRequired = apperrors.NewValidationError("tenant scope is required")
