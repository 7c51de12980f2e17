// Package migration runs shared-table migrations with golang-migrate.
// Migrations cover only the tables that exist on every shard (tenants,
// licenses); per-tenant namespaces are provisioned lazily at request time
// and are not migration-managed.
package migration

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies one migration set to one shard.
type Migrator struct {
	migrate *migrate.Migrate
	shard   int
	logger  *zap.Logger
}

// New creates a Migrator for a single shard's database URL.
func New(databaseURL, migrationsPath string, shard int, logger *zap.Logger) (*Migrator, error) {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance for shard %d: %w", shard, err)
	}
	return &Migrator{migrate: m, shard: shard, logger: logger}, nil
}

// Up runs all pending migrations on the shard.
func (m *Migrator) Up() error {
	m.logger.Info("Running migrations up", zap.Int("shard", m.shard))

	err := m.migrate.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("shard %d migration up failed: %w", m.shard, err)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("No migrations to apply", zap.Int("shard", m.shard))
		return nil
	}

	version, dirty, err := m.migrate.Version()
	if err != nil {
		return fmt.Errorf("failed to get shard %d migration version: %w", m.shard, err)
	}
	m.logger.Info("Migrations completed",
		zap.Int("shard", m.shard),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back all migrations on the shard.
func (m *Migrator) Down() error {
	m.logger.Info("Running migrations down", zap.Int("shard", m.shard))

	err := m.migrate.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("shard %d migration down failed: %w", m.shard, err)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("No migrations to roll back", zap.Int("shard", m.shard))
	}
	return nil
}

// Version returns the shard's current migration version.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get shard %d migration version: %w", m.shard, err)
	}
	return version, dirty, nil
}

// Force sets the migration version without running migrations. For fixing
// a dirty shard only.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version",
		zap.Int("shard", m.shard), zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force shard %d to version %d: %w", m.shard, version, err)
	}
	return nil
}

// Close releases the migrator's source and database handles.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}

// UpAll applies the migration set to every shard in order. The first
// failure stops the run so shards never diverge silently.
func UpAll(databaseURLs []string, migrationsPath string, logger *zap.Logger) error {
	for shard, url := range databaseURLs {
		m, err := New(url, migrationsPath, shard, logger)
		if err != nil {
			return err
		}
		err = m.Up()
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
