// Package tenancy implements tenant registration and the license gate.
//
// The gate runs before any tenant data operation. It consults the
// evaluation cache first, so a tenant known to be suspended is rejected
// without ever checking out a shard connection.
package tenancy

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/invtrack/backend/internal/domain/shared"
	domain "github.com/invtrack/backend/internal/domain/tenancy"
	"github.com/invtrack/backend/internal/infrastructure/logger"
	"github.com/invtrack/backend/internal/infrastructure/sharding"
)

// ConnSource routes a tenant to its shard and lends a pooled connection
// for the duration of fn.
type ConnSource interface {
	WithTenantConn(ctx context.Context, tenantID string, fn func(shard int, conn *gorm.DB) error) error
	ShardCount() int
}

// TenantService handles tenant registration, lookup and license checks
type TenantService struct {
	conns       ConnSource
	tenantRepo  domain.TenantRepository
	licenseRepo domain.LicenseRepository
	evalCache   domain.EvaluationCache
	cacheTTL    time.Duration
	now         func() time.Time
	log         *zap.Logger
}

// NewTenantService creates a new TenantService
func NewTenantService(
	conns ConnSource,
	tenantRepo domain.TenantRepository,
	licenseRepo domain.LicenseRepository,
	evalCache domain.EvaluationCache,
	cacheTTL time.Duration,
	log *zap.Logger,
) *TenantService {
	return &TenantService{
		conns:       conns,
		tenantRepo:  tenantRepo,
		licenseRepo: licenseRepo,
		evalCache:   evalCache,
		cacheTTL:    cacheTTL,
		now:         time.Now,
		log:         log,
	}
}

// Register mints a tenant identifier and stores the registration on the
// tenant's shard. The namespace is not provisioned here; it is created
// lazily on the tenant's first data operation.
func (s *TenantService) Register(ctx context.Context, req RegisterTenantRequest) (*TenantResponse, error) {
	tenant, err := domain.NewTenant(req.Name, req.Email)
	if err != nil {
		return nil, err
	}

	var shard int
	err = s.conns.WithTenantConn(ctx, tenant.ID.String(), func(sh int, conn *gorm.DB) error {
		shard = sh
		return s.tenantRepo.Create(ctx, conn, tenant)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).Info("Tenant registered",
		zap.String("tenant_id", tenant.ID.String()),
		zap.Int("shard", shard))

	resp := ToTenantResponse(tenant, shard)
	return &resp, nil
}

// GetByID loads a tenant registration from its shard.
func (s *TenantService) GetByID(ctx context.Context, tenantID string) (*TenantResponse, error) {
	var (
		tenant *domain.Tenant
		shard  int
	)
	err := s.conns.WithTenantConn(ctx, tenantID, func(sh int, conn *gorm.DB) error {
		shard = sh
		var ferr error
		tenant, ferr = s.tenantRepo.FindByID(ctx, conn, tenantID)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	resp := ToTenantResponse(tenant, shard)
	return &resp, nil
}

// CheckLicense evaluates a tenant's license, consulting the cache before
// touching the tenant's shard. The evaluation is recomputed from the stored
// record and the current date on every cache miss; nothing transitions in
// the database.
func (s *TenantService) CheckLicense(ctx context.Context, tenantID string) (domain.Evaluation, error) {
	if cached, err := s.evalCache.Get(ctx, tenantID); err == nil && cached != nil {
		return *cached, nil
	}

	var license *domain.License
	err := s.conns.WithTenantConn(ctx, tenantID, func(_ int, conn *gorm.DB) error {
		var ferr error
		license, ferr = s.licenseRepo.FindByTenant(ctx, conn, tenantID)
		return ferr
	})
	if err != nil {
		return domain.Evaluation{}, err
	}

	eval := domain.Evaluate(license, s.now())
	if err := s.evalCache.Set(ctx, tenantID, &eval, s.cacheTTL); err != nil {
		logger.FromContext(ctx, s.log).Warn("Failed to cache license evaluation",
			zap.String("tenant_id", tenantID), zap.Error(err))
	}
	return eval, nil
}

// Authorize is the license gate: every tenant data operation calls it
// before provisioning a namespace or touching tenant data. Only the active
// and grace states pass.
func (s *TenantService) Authorize(ctx context.Context, tenantID string) error {
	eval, err := s.CheckLicense(ctx, tenantID)
	if err != nil {
		return err
	}
	if !eval.Permitted() {
		logger.FromContext(ctx, s.log).Info("Tenant operation denied",
			zap.String("tenant_id", tenantID),
			zap.String("license_state", string(eval.State)))
		return shared.NewDomainErrorf(shared.CodeAccessDenied,
			"tenant %s is not permitted to operate: %s", tenantID, eval.Reason)
	}
	return nil
}

// ShardFor reports which shard a tenant routes to. Diagnostic only.
func (s *TenantService) ShardFor(tenantID string) int {
	return sharding.ShardOf(tenantID, s.conns.ShardCount())
}

// WithClock overrides the evaluation clock. Test hook.
func (s *TenantService) WithClock(now func() time.Time) *TenantService {
	s.now = now
	return s
}
