package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/invtrack/backend/internal/domain/inventory"
	"github.com/invtrack/backend/internal/domain/shared"
)

// AnomalyRepository reads and writes the anomalies table inside a tenant's
// namespace.
type AnomalyRepository struct{}

// NewAnomalyRepository creates a new AnomalyRepository
func NewAnomalyRepository() *AnomalyRepository {
	return &AnomalyRepository{}
}

// Insert stores one detected anomaly. Re-detecting the same product at the
// same instant produces the same digest id; ON CONFLICT keeps the insert
// idempotent in that case.
func (r *AnomalyRepository) Insert(ctx context.Context, conn *gorm.DB, schema string, a *inventory.Anomaly) error {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (id, tenant_id, product_id, timestamp, description) VALUES (?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING",
		qualify(schema, anomaliesTable))
	if err := conn.WithContext(ctx).Exec(stmt, a.ID, a.TenantID, a.ProductID, a.Timestamp, a.Description).Error; err != nil {
		return shared.WrapDomainError(shared.CodePersistence, "failed to record anomaly", err)
	}
	return nil
}

// List returns a tenant's anomalies, most recent first.
func (r *AnomalyRepository) List(ctx context.Context, conn *gorm.DB, schema, tenantID string) ([]inventory.Anomaly, error) {
	query := fmt.Sprintf(
		"SELECT id, tenant_id, product_id, timestamp, description FROM %s WHERE tenant_id = ? ORDER BY timestamp DESC",
		qualify(schema, anomaliesTable))

	rows := []struct {
		ID          string
		TenantID    string
		ProductID   int64
		Timestamp   time.Time
		Description string
	}{}
	if err := conn.WithContext(ctx).Raw(query, tenantID).Scan(&rows).Error; err != nil {
		return nil, shared.WrapDomainError(shared.CodePersistence, "failed to list anomalies", err)
	}

	out := make([]inventory.Anomaly, len(rows))
	for i, row := range rows {
		out[i] = inventory.Anomaly{
			ID:          row.ID,
			TenantID:    row.TenantID,
			ProductID:   row.ProductID,
			Timestamp:   row.Timestamp,
			Description: row.Description,
		}
	}
	return out, nil
}
