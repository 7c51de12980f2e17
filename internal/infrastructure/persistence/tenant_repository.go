package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invtrack/backend/internal/domain/shared"
	"github.com/invtrack/backend/internal/domain/tenancy"
)

// GormTenantRepository stores tenant registrations in the shared tenants
// table. It is stateless: the shard pool to use is resolved per call, so
// every method takes the routed connection.
type GormTenantRepository struct{}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository() *GormTenantRepository {
	return &GormTenantRepository{}
}

// Create inserts a tenant row on the tenant's shard
func (r *GormTenantRepository) Create(ctx context.Context, conn *gorm.DB, t *tenancy.Tenant) error {
	record := TenantRecord{
		ID:        t.ID.String(),
		Name:      t.Name,
		Email:     t.Email,
		CreatedAt: t.CreatedAt,
	}
	if err := conn.WithContext(ctx).Create(&record).Error; err != nil {
		return shared.WrapDomainError(shared.CodePersistence, "failed to create tenant", err)
	}
	return nil
}

// FindByID loads a tenant from its shard
func (r *GormTenantRepository) FindByID(ctx context.Context, conn *gorm.DB, tenantID string) (*tenancy.Tenant, error) {
	var record TenantRecord
	if err := conn.WithContext(ctx).First(&record, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapDomainError(shared.CodePersistence, "failed to load tenant", err)
	}
	return record.toDomain()
}

func (r *TenantRecord) toDomain() (*tenancy.Tenant, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodePersistence, "stored tenant id is not a UUID", err)
	}
	return &tenancy.Tenant{
		ID:        id,
		Name:      r.Name,
		Email:     r.Email,
		CreatedAt: r.CreatedAt,
	}, nil
}
