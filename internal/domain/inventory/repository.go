package inventory

import (
	"context"

	"gorm.io/gorm"
)

// MovementRepository reads and appends tracking rows inside a tenant's
// schema. Callers pass the routed shard connection and the provisioned
// schema name.
type MovementRepository interface {
	Append(ctx context.Context, conn *gorm.DB, schema string, m *Movement) error
	Inventory(ctx context.Context, conn *gorm.DB, schema, tenantID string) ([]Line, error)
	ProductTotal(ctx context.Context, conn *gorm.DB, schema, tenantID string, productID int64) (total int64, seen bool, err error)
}

// AnomalyStore reads and appends anomaly rows inside a tenant's schema.
type AnomalyStore interface {
	Insert(ctx context.Context, conn *gorm.DB, schema string, a *Anomaly) error
	List(ctx context.Context, conn *gorm.DB, schema, tenantID string) ([]Anomaly, error)
}
