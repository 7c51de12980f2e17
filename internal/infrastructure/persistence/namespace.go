package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/invtrack/backend/internal/domain/shared"
	"github.com/invtrack/backend/internal/infrastructure/logger"
)

// Postgres truncates identifiers beyond 63 bytes, which would silently
// collapse two long tenant ids into one namespace.
const maxIdentifierLen = 63

const (
	trackingTable  = "product_tracking"
	anomaliesTable = "anomalies"
)

// SchemaName derives the per-tenant schema name from a tenant identifier.
// The name is "tenant_" plus the lowercased identifier with hyphens mapped
// to underscores. Identifiers containing anything outside [a-z0-9_-] after
// lowercasing are rejected rather than sanitized, so two distinct tenant
// ids can never normalize to the same schema.
func SchemaName(tenantID string) (string, error) {
	if tenantID == "" {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "tenant id must not be empty")
	}
	normalized := strings.ToLower(tenantID)
	var b strings.Builder
	b.WriteString("tenant_")
	for _, c := range normalized {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		case c == '-':
			b.WriteByte('_')
		default:
			return "", shared.NewDomainErrorf(shared.CodeInvalidInput,
				"tenant id %q contains character %q not allowed in a schema name", tenantID, c)
		}
	}
	name := b.String()
	if len(name) > maxIdentifierLen {
		return "", shared.NewDomainErrorf(shared.CodeInvalidInput,
			"tenant id %q yields a schema name longer than %d bytes", tenantID, maxIdentifierLen)
	}
	return name, nil
}

// NamespaceProvisioner creates a tenant's schema and tables on first use.
// Provisioning is idempotent: every statement is IF NOT EXISTS, and the
// duplicate-object errors that concurrent first requests can still produce
// are treated as success.
type NamespaceProvisioner struct {
	log *zap.Logger
}

func NewNamespaceProvisioner(log *zap.Logger) *NamespaceProvisioner {
	return &NamespaceProvisioner{log: log}
}

// EnsureNamespace makes sure the tenant's schema and both tracking tables
// exist on the shard behind conn, and returns the schema name. All three
// statements run in one transaction; a duplicate-object race aborts the
// transaction, so the whole block is retried once before giving up.
func (p *NamespaceProvisioner) EnsureNamespace(ctx context.Context, conn *gorm.DB, tenantID string) (string, error) {
	schema, err := SchemaName(tenantID)
	if err != nil {
		return "", err
	}

	log := logger.FromContext(ctx, p.log)
	for attempt := 0; ; attempt++ {
		err = conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return createNamespace(tx, schema)
		})
		if err == nil {
			return schema, nil
		}
		if isDuplicateObject(err) && attempt == 0 {
			// Another request won the race inside this transaction; the
			// objects now exist, so rerunning the IF NOT EXISTS block
			// succeeds as a no-op.
			log.Info("Namespace provisioning lost a creation race, retrying",
				zap.String("schema", schema))
			continue
		}
		return "", shared.WrapDomainError(shared.CodeProvisioning,
			fmt.Sprintf("failed to provision namespace %s", schema), err)
	}
}

func createNamespace(tx *gorm.DB, schema string) error {
	quoted := pq.QuoteIdentifier(schema)
	statements := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quoted),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			id BIGSERIAL PRIMARY KEY,
			tenant_id VARCHAR(255) NOT NULL,
			product_id BIGINT NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			quantity BIGINT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, quoted, trackingTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			id VARCHAR(64) PRIMARY KEY,
			tenant_id VARCHAR(255) NOT NULL,
			product_id BIGINT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`, quoted, anomaliesTable),
	}
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// isDuplicateObject reports whether err is Postgres telling us the schema
// or a table was created by a concurrent transaction. IF NOT EXISTS does
// not fully close that race: two transactions can both pass the existence
// check and one then fails on the catalog insert.
func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P06", // duplicate_schema
			"42P07", // duplicate_table
			"23505": // unique_violation on the catalog
			return true
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case "42P06", "42P07", "23505":
			return true
		}
	}
	return false
}
