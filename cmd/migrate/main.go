package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/invtrack/backend/internal/infrastructure/config"
	"github.com/invtrack/backend/internal/infrastructure/logger"
	"github.com/invtrack/backend/internal/infrastructure/migration"
)

const defaultMigrationsPath = "migrations"

// The migration CLI manages the shared tables (tenants, licenses) that
// must exist on every shard. Per-tenant namespaces are provisioned lazily
// by the running service and are never touched here.
func main() {
	var (
		migrationsPath string
		logLevel       string
		shard          int
	)

	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.IntVar(&shard, "shard", -1, "Target a single shard index (default: all shards)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if migrationsPath == "" {
		migrationsPath = defaultMigrationsPath
	}
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("Failed to get absolute path", zap.Error(err))
	}
	migrationsPath = absPath

	urls := cfg.Sharding.DSNs
	if shard >= 0 {
		if shard >= len(urls) {
			log.Fatal("Shard index out of range",
				zap.Int("shard", shard), zap.Int("shards", len(urls)))
		}
		urls = urls[shard : shard+1]
	}

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_path", migrationsPath),
		zap.Int("shards", len(urls)),
	)

	switch command {
	case "up":
		if shard >= 0 {
			forEachShard(urls, migrationsPath, shard, log, func(m *migration.Migrator) error {
				return m.Up()
			})
			break
		}
		if err := migration.UpAll(urls, migrationsPath, log); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		forEachShard(urls, migrationsPath, shard, log, func(m *migration.Migrator) error {
			return m.Down()
		})

	case "version":
		forEachShard(urls, migrationsPath, shard, log, func(m *migration.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				log.Info("No migrations applied")
			} else {
				log.Info("Current migration version",
					zap.Uint("version", version), zap.Bool("dirty", dirty))
			}
			return nil
		})

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate -shard <n> force <version>")
		}
		if shard < 0 {
			log.Fatal("Force targets a single shard. Pass -shard <n>.")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		log.Warn("Forcing migration version - use with caution!")
		forEachShard(urls, migrationsPath, shard, log, func(m *migration.Migrator) error {
			return m.Force(version)
		})

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

// forEachShard runs fn against each targeted shard. base is the index of
// the first targeted shard so log lines name real shard numbers even when
// only one shard was selected.
func forEachShard(urls []string, migrationsPath string, base int, log *zap.Logger, fn func(*migration.Migrator) error) {
	if base < 0 {
		base = 0
	}
	for i, url := range urls {
		m, err := migration.New(url, migrationsPath, base+i, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Int("shard", base+i), zap.Error(err))
		}
		err = fn(m)
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			log.Fatal("Migration command failed", zap.Int("shard", base+i), zap.Error(err))
		}
	}
}

func printUsage() {
	fmt.Println(`Inventory Tracking Migration Tool

Applies shared-table migrations to every shard listed in the sharding
configuration, in shard order.

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                Apply all pending migrations to every shard
  down              Roll back all migrations
  version           Show current migration version per shard
  force <version>   Force set migration version on one shard (-shard required)

Flags:
  -path string        Path to migrations directory (default: ./migrations)
  -shard int          Target a single shard index (default: all shards)
  -log-level string   Log level: debug, info, warn, error (default: info)

Examples:
  # Apply pending migrations everywhere
  migrate up

  # Check version on shard 2 only
  migrate -shard 2 version`)
}
