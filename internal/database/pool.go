package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"project-tracker/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type PoolConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogLevel        logger.LogLevel
}

type DatabasePool struct {
	DB     *gorm.DB
	config *PoolConfig
}

func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Driver:          DriverPostgres,
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		LogLevel:        logger.Info,
	}
}

func (c *PoolConfig) validate() error {
	if c.DSN == "" {
		return errors.New("database DSN is required")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be positive, got %d", c.MaxOpenConns)
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max idle connections must be between 0 and %d, got %d", c.MaxOpenConns, c.MaxIdleConns)
	}
	if c.ConnMaxLifetime < 0 || c.ConnMaxIdleTime < 0 {
		return errors.New("connection lifetimes must not be negative")
	}
	return nil
}

func (c *PoolConfig) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case DriverPostgres, "":
		return postgres.Open(c.DSN), nil
	case DriverSQLite:
		return sqlite.Open(c.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

func NewDatabasePool(config *PoolConfig) (*DatabasePool, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	dialector, err := config.dialector()
	if err != nil {
		return nil, err
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  config.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	log.Printf("Database pool ready (driver=%s, max_open=%d, max_idle=%d)",
		config.Driver, config.MaxOpenConns, config.MaxIdleConns)

	return &DatabasePool{DB: db, config: config}, nil
}

// Migrate creates or updates the users, projects, project_memberships and
// tasks tables.
func (p *DatabasePool) Migrate() error {
	if p.DB == nil {
		return errors.New("database connection is not initialized")
	}
	return AutoMigrate(p.DB)
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Task{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (p *DatabasePool) Health() error {
	if p.DB == nil {
		return errors.New("database connection is not initialized")
	}

	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

func (p *DatabasePool) Stats() map[string]interface{} {
	if p.DB == nil {
		return map[string]interface{}{"error": "database connection is not initialized"}
	}

	sqlDB, err := p.DB.DB()
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	stats := sqlDB.Stats()
	result := map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration.String(),
	}
	if p.config != nil {
		result["max_open_connections"] = p.config.MaxOpenConns
	}
	return result
}

func (p *DatabasePool) Close() error {
	if p.DB == nil {
		return nil
	}

	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenInMemory returns a migrated SQLite database that lives as long as the
// pool. The pool is capped at one connection so every query sees the same
// in-memory database.
func OpenInMemory() (*DatabasePool, error) {
	pool, err := NewDatabasePool(&PoolConfig{
		Driver:       DriverSQLite,
		DSN:          "file::memory:?_foreign_keys=on",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     logger.Silent,
	})
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
