package database

import (
	"context"
	"testing"

	"f0oster/scimsync/cache"

	"github.com/stretchr/testify/assert"
)

func TestUnconnectedDatabase(t *testing.T) {
	ctx := context.Background()
	db := NewDatabase("postgres://localhost/scimsync")
	store := NewCacheStore(db)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, store.Save(ctx, cache.New()), ErrNotConnected)
	assert.ErrorIs(t, db.EnsureSchema(ctx), ErrNotConnected)
	assert.ErrorIs(t, db.ResetSchema(ctx), ErrNotConnected)

	db.Close()
}

func TestSchemaDefinesResourceColumns(t *testing.T) {
	assert.Contains(t, schemaSQL, tableName)
	for _, column := range resourceColumns {
		assert.Contains(t, schemaSQL, column)
	}
}
