// Package inventory implements the tenant-scoped tracking operations.
//
// Every operation follows the same shape: license gate, then one borrowed
// shard connection on which the tenant's namespace is ensured and the
// operation runs. The gate comes first so a suspended tenant is rejected
// before any namespace work or data access happens.
package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "github.com/invtrack/backend/internal/domain/inventory"
	"github.com/invtrack/backend/internal/infrastructure/logger"
)

// ConnSource routes a tenant to its shard and lends a pooled connection
// for the duration of fn.
type ConnSource interface {
	WithTenantConn(ctx context.Context, tenantID string, fn func(shard int, conn *gorm.DB) error) error
}

// Gate authorizes tenant operations against the license state.
type Gate interface {
	Authorize(ctx context.Context, tenantID string) error
}

// Provisioner ensures a tenant's namespace exists on the borrowed
// connection and returns the schema name.
type Provisioner interface {
	EnsureNamespace(ctx context.Context, conn *gorm.DB, tenantID string) (string, error)
}

// TrackingService handles movement tracking, inventory computation and
// anomaly detection for one tenant at a time
type TrackingService struct {
	conns       ConnSource
	gate        Gate
	provisioner Provisioner
	movements   domain.MovementRepository
	anomalies   domain.AnomalyStore
	now         func() time.Time
	log         *zap.Logger
}

// NewTrackingService creates a new TrackingService
func NewTrackingService(
	conns ConnSource,
	gate Gate,
	provisioner Provisioner,
	movements domain.MovementRepository,
	anomalies domain.AnomalyStore,
	log *zap.Logger,
) *TrackingService {
	return &TrackingService{
		conns:       conns,
		gate:        gate,
		provisioner: provisioner,
		movements:   movements,
		anomalies:   anomalies,
		now:         time.Now,
		log:         log,
	}
}

// withNamespace runs fn on the tenant's shard with its namespace ensured.
// The license gate runs first and short-circuits without borrowing a
// connection when the cached evaluation already denies the tenant.
func (s *TrackingService) withNamespace(ctx context.Context, tenantID string, fn func(conn *gorm.DB, schema string) error) error {
	if err := s.gate.Authorize(ctx, tenantID); err != nil {
		return err
	}
	return s.conns.WithTenantConn(ctx, tenantID, func(_ int, conn *gorm.DB) error {
		schema, err := s.provisioner.EnsureNamespace(ctx, conn, tenantID)
		if err != nil {
			return err
		}
		return fn(conn, schema)
	})
}

// TrackMovement appends one movement to the tenant's tracking log.
func (s *TrackingService) TrackMovement(ctx context.Context, tenantID string, req TrackMovementRequest) error {
	movement, err := domain.NewMovement(tenantID, req.ProductID, req.ProductName, req.Quantity)
	if err != nil {
		return err
	}

	err = s.withNamespace(ctx, tenantID, func(conn *gorm.DB, schema string) error {
		return s.movements.Append(ctx, conn, schema, movement)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx, s.log).Info("Movement recorded",
		zap.String("tenant_id", tenantID),
		zap.Int64("product_id", req.ProductID),
		zap.Int64("quantity", req.Quantity))
	return nil
}

// ComputeInventory returns the per-product quantity totals derived from
// the tenant's tracking log. Nothing is stored; the log is the source of
// truth and the view is recomputed on every call.
func (s *TrackingService) ComputeInventory(ctx context.Context, tenantID string) ([]domain.Line, error) {
	var lines []domain.Line
	err := s.withNamespace(ctx, tenantID, func(conn *gorm.DB, schema string) error {
		var ferr error
		lines, ferr = s.movements.Inventory(ctx, conn, schema, tenantID)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// DetectAnomaly recomputes the product's total quantity and records an
// anomaly when it is negative. A non-negative total records nothing.
func (s *TrackingService) DetectAnomaly(ctx context.Context, tenantID string, req DetectAnomalyRequest) (*DetectionResponse, error) {
	var resp DetectionResponse
	err := s.withNamespace(ctx, tenantID, func(conn *gorm.DB, schema string) error {
		total, seen, err := s.movements.ProductTotal(ctx, conn, schema, tenantID, req.ProductID)
		if err != nil {
			return err
		}
		resp.Total = total
		resp.HasMovements = seen
		if total >= 0 {
			return nil
		}

		description := req.Description
		if description == "" {
			description = fmt.Sprintf("negative balance of %d for product %d", total, req.ProductID)
		}
		anomaly := domain.NewAnomaly(tenantID, req.ProductID, s.now().UTC(), description)
		if err := s.anomalies.Insert(ctx, conn, schema, anomaly); err != nil {
			return err
		}

		resp.Recorded = true
		ar := ToAnomalyResponse(anomaly)
		resp.Anomaly = &ar
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp.Recorded {
		logger.FromContext(ctx, s.log).Warn("Anomaly recorded",
			zap.String("tenant_id", tenantID),
			zap.Int64("product_id", req.ProductID),
			zap.Int64("total", resp.Total))
	}
	return &resp, nil
}

// ListAnomalies returns the tenant's anomalies, most recent first.
func (s *TrackingService) ListAnomalies(ctx context.Context, tenantID string) ([]AnomalyResponse, error) {
	var anomalies []domain.Anomaly
	err := s.withNamespace(ctx, tenantID, func(conn *gorm.DB, schema string) error {
		var ferr error
		anomalies, ferr = s.anomalies.List(ctx, conn, schema, tenantID)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	out := make([]AnomalyResponse, len(anomalies))
	for i := range anomalies {
		out[i] = ToAnomalyResponse(&anomalies[i])
	}
	return out, nil
}

// WithClock overrides the detection clock. Test hook.
func (s *TrackingService) WithClock(now func() time.Time) *TrackingService {
	s.now = now
	return s
}
