package sharding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/invtrack/backend/internal/domain/shared"
	"github.com/invtrack/backend/internal/infrastructure/config"
)

// Registry owns one connection pool per shard. It is built once by the
// composition root, passed down explicitly, and closed at process stop.
// A shard whose pool fails to initialize keeps its slot with the recorded
// error so lookups against it fail fast instead of taking the process down.
type Registry struct {
	slots           []slot
	checkoutTimeout time.Duration
	gormLog         gormlogger.Interface
	log             *zap.Logger

	mu     sync.RWMutex // guards closed against lookups racing Shutdown
	closed bool
}

type slot struct {
	db      *gorm.DB
	sqlDB   *sql.DB
	initErr error
}

// ShardHealth reports the state of one shard's pool.
type ShardHealth struct {
	Shard   int    `json:"shard"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// NewRegistry opens a pool for every configured shard. Shards initialize
// independently: one bad descriptor does not prevent the others from coming
// up. Cancel ctx to abort in-flight initialization during shutdown.
func NewRegistry(ctx context.Context, cfg *config.ShardingConfig, gormLog gormlogger.Interface, log *zap.Logger) *Registry {
	r := &Registry{
		slots:           make([]slot, cfg.Count),
		checkoutTimeout: cfg.CheckoutTimeout,
		gormLog:         gormLog,
		log:             log,
	}

	for i, dsn := range cfg.DSNs {
		if err := ctx.Err(); err != nil {
			r.slots[i].initErr = fmt.Errorf("initialization cancelled: %w", err)
			continue
		}
		db, sqlDB, err := openShard(ctx, dsn, cfg, gormLog)
		if err != nil {
			r.slots[i].initErr = err
			log.Error("Shard pool initialization failed", zap.Int("shard", i), zap.Error(err))
			continue
		}
		r.slots[i].db = db
		r.slots[i].sqlDB = sqlDB
		log.Info("Shard pool initialized", zap.Int("shard", i))
	}

	return r
}

func openShard(ctx context.Context, dsn string, cfg *config.ShardingConfig, gormLog gormlogger.Interface) (*gorm.DB, *sql.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping: %w", err)
	}

	return db, sqlDB, nil
}

// ShardCount returns the configured number of shards.
func (r *Registry) ShardCount() int {
	return len(r.slots)
}

// PoolFor returns the pool for a shard index. Out-of-range indexes, failed
// slots and a shut-down registry all yield a configuration error.
func (r *Registry) PoolFor(shard int) (*gorm.DB, error) {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, shared.NewDomainError(shared.CodeConfiguration, "shard pool registry has been shut down")
	}
	if shard < 0 || shard >= len(r.slots) {
		return nil, shared.NewDomainErrorf(shared.CodeConfiguration,
			"shard index %d out of range [0, %d)", shard, len(r.slots))
	}
	s := r.slots[shard]
	if s.initErr != nil {
		return nil, shared.WrapDomainError(shared.CodeConfiguration,
			fmt.Sprintf("shard %d pool is unavailable", shard), s.initErr)
	}
	return s.db, nil
}

// RouteFor resolves the shard index and pool for a tenant. This is the
// single routing path: every tenant-scoped lookup goes through ShardOf.
func (r *Registry) RouteFor(tenantID string) (int, *gorm.DB, error) {
	shard := ShardOf(tenantID, r.ShardCount())
	db, err := r.PoolFor(shard)
	if err != nil {
		return shard, nil, err
	}
	return shard, db, nil
}

// WithTenantConn checks out one dedicated connection from the tenant's
// shard, hands it to fn wrapped in a GORM session, and returns it to the
// pool on every exit path. The checkout wait is bounded by the configured
// timeout and maps to a pool-exhausted error; the operation itself runs
// under the caller's context.
func (r *Registry) WithTenantConn(ctx context.Context, tenantID string, fn func(shard int, conn *gorm.DB) error) error {
	shard, db, err := r.RouteFor(tenantID)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return shared.WrapDomainError(shared.CodePersistence,
			fmt.Sprintf("shard %d pool handle is unusable", shard), err)
	}

	acquireCtx := ctx
	cancel := context.CancelFunc(func() {})
	if r.checkoutTimeout > 0 {
		acquireCtx, cancel = context.WithTimeout(ctx, r.checkoutTimeout)
	}
	conn, err := sqlDB.Conn(acquireCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return shared.WrapDomainError(shared.CodePoolExhausted,
				fmt.Sprintf("timed out waiting for a shard %d connection", shard), err)
		}
		return shared.WrapDomainError(shared.CodePersistence,
			fmt.Sprintf("failed to check out a shard %d connection", shard), err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			r.log.Warn("Failed to return connection to pool",
				zap.Int("shard", shard), zap.Error(cerr))
		}
	}()

	scoped, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger:                 r.gormLog,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return shared.WrapDomainError(shared.CodePersistence,
			fmt.Sprintf("failed to bind session to shard %d connection", shard), err)
	}

	return fn(shard, scoped.WithContext(ctx))
}

// Health pings each shard and reports per-shard pool status.
func (r *Registry) Health(ctx context.Context) []ShardHealth {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()

	out := make([]ShardHealth, len(r.slots))
	for i, s := range r.slots {
		out[i] = ShardHealth{Shard: i}
		switch {
		case closed:
			out[i].Error = "registry shut down"
		case s.initErr != nil:
			out[i].Error = s.initErr.Error()
		default:
			if err := s.sqlDB.PingContext(ctx); err != nil {
				out[i].Error = err.Error()
			} else {
				out[i].Healthy = true
			}
		}
	}
	return out
}

// Shutdown releases every pool. Best-effort: a failure closing one pool
// does not block closing the rest, and it is safe to call after a partial
// startup failure. Subsequent PoolFor lookups fail.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	var errs []error
	for i, s := range r.slots {
		if s.sqlDB == nil {
			continue
		}
		if err := s.sqlDB.Close(); err != nil {
			r.log.Error("Failed to close shard pool", zap.Int("shard", i), zap.Error(err))
			errs = append(errs, fmt.Errorf("shard %d: %w", i, err))
			continue
		}
		r.log.Info("Shard pool closed", zap.Int("shard", i))
	}
	return errors.Join(errs...)
}
