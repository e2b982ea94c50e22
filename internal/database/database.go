// Package database opens the GORM connection for the configured driver and
// keeps the produto schema migrated.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"produtos/internal/config"
	"produtos/internal/models"
)

// Open connects with the dialect named by cfg.Driver, applies pool settings and
// migrates the schema. The memory driver has no database and is rejected.
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configure(db, cfg); err != nil {
		return nil, err
	}

	log.Info().Str("driver", cfg.Driver).Msg("database connection established")
	return db, nil
}

// configure applies pool settings and migrates. The pool is closed when the
// migration fails.
func configure(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := Migrate(db); err != nil {
		sqlDB.Close()
		return err
	}
	return nil
}

// Migrate creates or updates the produto table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Pinger reports whether the database answers.
type Pinger struct {
	db *gorm.DB
}

// NewPinger wraps db for health checks.
func NewPinger(db *gorm.DB) *Pinger {
	return &Pinger{db: db}
}

// Ping verifies the datasource is reachable within two seconds.
func (p *Pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
