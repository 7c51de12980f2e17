// Package persistence implements storage access for the shared tables and
// the per-tenant namespaces. Shared tables (tenants, licenses) live outside
// any tenant namespace and are reached through GORM models; tenant-namespace
// tables are addressed with schema-qualified raw SQL because the schema name
// is only known at runtime.
package persistence

import (
	"time"

	"github.com/invtrack/backend/internal/domain/tenancy"
)

// TenantRecord is the GORM model for the shared tenants table.
type TenantRecord struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName implements the GORM table name convention
func (TenantRecord) TableName() string { return "tenants" }

// LicenseRecord is the GORM model for the shared licenses table. The core
// only reads license rows; mutation belongs to the billing collaborator.
type LicenseRecord struct {
	TenantID       string    `gorm:"primaryKey"`
	ExpirationDate time.Time `gorm:"type:date;not null"`
	GracePeriod    int       `gorm:"not null;default:0"`
	Status         string    `gorm:"not null;default:active"`
}

// TableName implements the GORM table name convention
func (LicenseRecord) TableName() string { return "licenses" }

func (r *LicenseRecord) toDomain() *tenancy.License {
	return &tenancy.License{
		TenantID:        r.TenantID,
		ExpirationDate:  r.ExpirationDate,
		GracePeriodDays: r.GracePeriod,
		Status:          r.Status,
	}
}
