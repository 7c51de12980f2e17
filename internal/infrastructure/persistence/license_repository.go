package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/invtrack/backend/internal/domain/shared"
	"github.com/invtrack/backend/internal/domain/tenancy"
)

// GormLicenseRepository reads license rows from the shared licenses table.
// This service never writes licenses; a separate billing process does.
type GormLicenseRepository struct{}

// NewGormLicenseRepository creates a new GormLicenseRepository
func NewGormLicenseRepository() *GormLicenseRepository {
	return &GormLicenseRepository{}
}

// FindByTenant loads a tenant's license from its shard. A missing row is
// not an error: it returns (nil, nil) and evaluates to the invalid state.
func (r *GormLicenseRepository) FindByTenant(ctx context.Context, conn *gorm.DB, tenantID string) (*tenancy.License, error) {
	var record LicenseRecord
	if err := conn.WithContext(ctx).First(&record, "tenant_id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.WrapDomainError(shared.CodePersistence, "failed to load license", err)
	}
	return record.toDomain(), nil
}
