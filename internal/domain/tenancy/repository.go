package tenancy

import (
	"context"

	"gorm.io/gorm"
)

// TenantRepository persists tenant registrations. Methods take the routed
// shard connection because the right pool is only known per call.
type TenantRepository interface {
	Create(ctx context.Context, conn *gorm.DB, t *Tenant) error
	FindByID(ctx context.Context, conn *gorm.DB, tenantID string) (*Tenant, error)
}

// LicenseRepository reads license records. A missing record yields
// (nil, nil); Evaluate maps that to the invalid state.
type LicenseRepository interface {
	FindByTenant(ctx context.Context, conn *gorm.DB, tenantID string) (*License, error)
}
