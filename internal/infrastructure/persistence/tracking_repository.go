package persistence

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/invtrack/backend/internal/domain/inventory"
	"github.com/invtrack/backend/internal/domain/shared"
)

// TrackingRepository reads and writes the product_tracking table inside a
// tenant's namespace. The schema is resolved at runtime, so queries are
// schema-qualified raw SQL rather than GORM models.
type TrackingRepository struct{}

// NewTrackingRepository creates a new TrackingRepository
func NewTrackingRepository() *TrackingRepository {
	return &TrackingRepository{}
}

func qualify(schema, table string) string {
	return pq.QuoteIdentifier(schema) + "." + table
}

// Append records one stock movement. The row timestamp is assigned by the
// database so entries on one shard order consistently.
func (r *TrackingRepository) Append(ctx context.Context, conn *gorm.DB, schema string, m *inventory.Movement) error {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (tenant_id, product_id, product_name, quantity) VALUES (?, ?, ?, ?)",
		qualify(schema, trackingTable))
	if err := conn.WithContext(ctx).Exec(stmt, m.TenantID, m.ProductID, m.ProductName, m.Quantity).Error; err != nil {
		return shared.WrapDomainError(shared.CodePersistence, "failed to record movement", err)
	}
	return nil
}

// Inventory sums movements per (product id, product name) pair. Movements
// recorded under two names for one id stay separate lines. Pairs whose
// movements cancel out to zero still appear; only products never moved are
// absent.
func (r *TrackingRepository) Inventory(ctx context.Context, conn *gorm.DB, schema, tenantID string) ([]inventory.Line, error) {
	query := fmt.Sprintf(`
		SELECT product_id, product_name, SUM(quantity) AS total_quantity
		FROM %s
		WHERE tenant_id = ?
		GROUP BY product_id, product_name
		ORDER BY product_id, product_name`,
		qualify(schema, trackingTable))

	lines := []inventory.Line{}
	if err := conn.WithContext(ctx).Raw(query, tenantID).Scan(&lines).Error; err != nil {
		return nil, shared.WrapDomainError(shared.CodePersistence, "failed to compute inventory", err)
	}
	return lines, nil
}

// ProductTotal sums movements for a single product. The bool reports
// whether the product has any movement rows at all, which distinguishes a
// genuine zero balance from an unknown product.
func (r *TrackingRepository) ProductTotal(ctx context.Context, conn *gorm.DB, schema, tenantID string, productID int64) (int64, bool, error) {
	query := fmt.Sprintf(
		"SELECT COALESCE(SUM(quantity), 0) AS total, COUNT(*) AS rows FROM %s WHERE tenant_id = ? AND product_id = ?",
		qualify(schema, trackingTable))

	var result struct {
		Total int64
		Rows  int64
	}
	if err := conn.WithContext(ctx).Raw(query, tenantID, productID).Scan(&result).Error; err != nil {
		return 0, false, shared.WrapDomainError(shared.CodePersistence, "failed to sum product movements", err)
	}
	return result.Total, result.Rows > 0, nil
}
