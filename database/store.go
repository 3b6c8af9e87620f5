package database

import (
	"context"
	"fmt"

	"f0oster/scimsync/cache"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// CacheStore keeps the provisioning cache in Postgres.
type CacheStore struct {
	db *Database
}

func NewCacheStore(db *Database) *CacheStore {
	return &CacheStore{db: db}
}

func (s *CacheStore) Load(ctx context.Context) (*cache.Cache, error) {
	if s.db.ConnectionPool == nil {
		return nil, ErrNotConnected
	}

	rows, err := s.db.ConnectionPool.Query(ctx, SelectResources)
	if err != nil {
		return nil, fmt.Errorf("select provisioned resources: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[ResourceRecord])
	if err != nil {
		return nil, fmt.Errorf("read provisioned resources: %w", err)
	}

	entries := make([]cache.Entry, 0, len(records))
	for _, r := range records {
		if r.SourceID == "" || r.RemoteID == "" {
			return nil, fmt.Errorf("provisioned resource %q has an empty id", r.SourceID)
		}
		entries = append(entries, r.entry())
	}
	return cache.FromEntries(entries...), nil
}

// Save replaces the stored cache with c in a single transaction, so a
// failed save leaves the previous contents in place.
func (s *CacheStore) Save(ctx context.Context, c *cache.Cache) (err error) {
	if s.db.ConnectionPool == nil {
		return ErrNotConnected
	}

	tx, err := s.db.ConnectionPool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollbackOrCommit(ctx, tx, &err)

	if _, err = tx.Exec(ctx, DeleteResources); err != nil {
		return fmt.Errorf("clear provisioned resources: %w", err)
	}

	entries := c.Entries()
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.SourceID, e.RemoteID, e.Fingerprint})
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{tableName}, resourceColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy provisioned resources: %w", err)
	}

	log.Debug().Int64("rows", copied).Msg("saved provisioning cache")
	return nil
}
