package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrNotConnected = errors.New("database is not connected")

type Database struct {
	dsn            string
	ConnectionPool *pgxpool.Pool
}

func NewDatabase(dsn string) *Database {
	return &Database{dsn: dsn}
}

// Connect opens the connection pool and checks the server is reachable.
func (db *Database) Connect(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, db.dsn)
	if err != nil {
		return fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("unable to reach database: %w", err)
	}
	db.ConnectionPool = pool
	return nil
}

func (db *Database) Close() {
	if db.ConnectionPool != nil {
		db.ConnectionPool.Close()
	}
}

// EnsureSchema creates the provisioned resources table if it is missing.
func (db *Database) EnsureSchema(ctx context.Context) error {
	if db.ConnectionPool == nil {
		return ErrNotConnected
	}
	if _, err := db.ConnectionPool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// ResetSchema drops and recreates the provisioned resources table. Every
// cached identity is provisioned again on the next run.
func (db *Database) ResetSchema(ctx context.Context) error {
	if db.ConnectionPool == nil {
		return ErrNotConnected
	}
	if _, err := db.ConnectionPool.Exec(ctx, DropSchema); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	log.Warn().Str("table", tableName).Msg("dropped provisioning cache table")
	return db.EnsureSchema(ctx)
}
