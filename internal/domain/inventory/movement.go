// Package inventory models the append-only product tracking log and the
// anomalies derived from it. Inventory itself is never stored - it is always
// recomputed as the per-product sum of quantities over the tracking log.
package inventory

import (
	"strings"
	"time"

	"github.com/invtrack/backend/internal/domain/shared"
)

// Movement is one product movement event in a tenant's tracking log.
// Quantity may be negative to represent removals. Rows are append-only;
// the core never updates or deletes them.
type Movement struct {
	ID          int64
	TenantID    string
	ProductID   int64
	ProductName string
	Quantity    int64
	Timestamp   time.Time
}

// NewMovement validates and builds a movement record. The timestamp is left
// zero so the storage layer can default it to the insertion time.
func NewMovement(tenantID string, productID int64, productName string, quantity int64) (*Movement, error) {
	if tenantID == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant ID cannot be empty")
	}
	if productID <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product ID must be positive")
	}
	if strings.TrimSpace(productName) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product name cannot be empty")
	}
	return &Movement{
		TenantID:    tenantID,
		ProductID:   productID,
		ProductName: strings.TrimSpace(productName),
		Quantity:    quantity,
	}, nil
}

// Line is one row of the computed inventory view: the summed quantity for a
// (product id, product name) pair across the tenant's tracking log.
type Line struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	TotalQuantity int64  `json:"total_quantity"`
}
