package inventory

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Anomaly records a detected inventory anomaly. Immutable once written.
// The identifier is a content-derived digest so concurrent detections for
// different products or instants never collide.
type Anomaly struct {
	ID          string
	TenantID    string
	ProductID   int64
	Timestamp   time.Time
	Description string
}

// NewAnomaly builds an anomaly record with a digest identifier derived from
// tenant, product and detection time.
func NewAnomaly(tenantID string, productID int64, detectedAt time.Time, description string) *Anomaly {
	return &Anomaly{
		ID:          anomalyID(tenantID, productID, detectedAt),
		TenantID:    tenantID,
		ProductID:   productID,
		Timestamp:   detectedAt,
		Description: description,
	}
}

func anomalyID(tenantID string, productID int64, detectedAt time.Time) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%s", tenantID, productID, detectedAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}
