// Package db opens the invoice database and keeps its schema current.
package db

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/diewo77/invoice-relay/internal/config"
	"github.com/diewo77/invoice-relay/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MigrationsSource is where SQL migrations are read from when MIGRATIONS is enabled.
var MigrationsSource = "file://migrations"

var passwordRe = regexp.MustCompile(`(password=|://[^:/@]+:)([^\s@]+)`)

// Open connects to the configured database and migrates it.
// SQLite always uses AutoMigrate; postgres uses SQL migrations when migrations is true.
func Open(cfg config.DatabaseConfig, migrations bool, lg *zap.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: gormLogger(cfg.Debug, lg)}

	var conn *gorm.DB
	var err error
	switch cfg.Driver {
	case "sqlite", "":
		lg.Info("opening database", zap.String("driver", "sqlite"), zap.String("path", cfg.Path))
		conn, err = gorm.Open(sqlite.Open(cfg.Path), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	case "postgres":
		lg.Info("opening database", zap.String("driver", "postgres"), zap.String("dsn", MaskDSN(cfg.DSN())))
		// Retry to give postgres time to start
		for i := 0; i < 5; i++ {
			conn, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
			if err == nil {
				break
			}
			lg.Warn("database connection failed, retrying", zap.Int("attempt", i+1), zap.Error(err))
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	if err := conn.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}

	if migrations && cfg.Driver == "postgres" {
		if err := runSQLMigrations(cfg.URL()); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := AutoMigrate(conn); err != nil {
		return nil, err
	}

	for _, table := range []string{"drafts", "invoices", "clients", "settings"} {
		if !conn.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	return conn, nil
}

// AutoMigrate creates or updates every table from the gorm models.
func AutoMigrate(conn *gorm.DB) error {
	for _, m := range models.All() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(url string) error {
	m, err := migrate.New(MigrationsSource, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// MaskDSN hides the password of a key=value or URL DSN.
func MaskDSN(dsn string) string {
	return passwordRe.ReplaceAllString(dsn, `${1}***`)
}

// gormLogger routes gorm output through zap; DB_DEBUG=1 turns on SQL tracing.
func gormLogger(debug bool, lg *zap.Logger) logger.Interface {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	return logger.New(zap.NewStdLog(lg.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
