package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kyle-ycp/sentiment-analysis-dashboard/internal/adapters/config"
	"github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/logger"
)

// DB wraps the snapshot history connection
type DB struct {
	conn *sqlx.DB
}

// New creates new database connection
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// a single refresh writer and a handful of API readers
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	return &DB{conn: conn}, nil
}

// NewFromConn wraps an existing connection
func NewFromConn(conn *sqlx.DB) *DB {
	return &DB{conn: conn}
}

// Close closes database connection
func (db *DB) Close() error {
	if db.conn != nil {
		logger.Info("closing database connection")
		return db.conn.Close()
	}
	return nil
}

// Conn returns underlying *sql.DB connection (for migrations)
func (db *DB) Conn() *sql.DB {
	return db.conn.DB
}

// DB returns sqlx.DB
func (db *DB) DB() *sqlx.DB {
	return db.conn
}

// WithTx runs fn in a transaction, rolling back when fn fails
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// Health checks database health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
