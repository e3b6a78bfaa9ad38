package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"cwbridge/platform/config"
	"cwbridge/platform/logger"
)

// Database wraps sqlx.DB with connection-pool settings from config.
type Database struct {
	*sqlx.DB
	config config.DatabaseConfig
	logger *logger.Logger
}

func New(cfg config.DatabaseConfig, log *logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		DB:     db,
		config: cfg,
		logger: log,
	}, nil
}

func NewFromAppConfig(appConfig *config.Config, log *logger.Logger) (*Database, error) {
	return New(appConfig.Database, log)
}

func (d *Database) Close() error {
	d.logger.Info("Closing database connection")
	return d.DB.Close()
}

func (d *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return d.PingContext(ctx)
}
