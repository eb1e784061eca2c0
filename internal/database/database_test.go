package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"socialnet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAutoMigrate_CreatesSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "posts", "likes", "comments"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Like{}, "idx_likes_user_post"))
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, configurePool(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "record-not-found is not an error worth logging")

	l.Trace(ctx, time.Now(), query, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")
	buf.Reset()

	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	assert.Contains(t, buf.String(), "GORM slow query")
	buf.Reset()

	l.Trace(ctx, time.Now(), query, nil)
	assert.Empty(t, buf.String(), "fast queries are below warn level")

	l.LogMode(logger.Info).Trace(ctx, time.Now(), query, nil)
	assert.Contains(t, buf.String(), "GORM query")
}

func TestEmbeddedMigrations(t *testing.T) {
	versions, err := EmbeddedMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, int64(1), versions[0])
}
