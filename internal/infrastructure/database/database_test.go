package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	dsn := SQLiteDSN("crm.db", 2*time.Second)
	assert.True(t, strings.HasPrefix(dsn, "file:crm.db?"))
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_busy_timeout=2000")
	assert.Contains(t, dsn, "_txlock=immediate")

	dsn = SQLiteDSN("file:crm.db?cache=shared", 0)
	assert.True(t, strings.HasPrefix(dsn, "file:crm.db?cache=shared&"))
	assert.Contains(t, dsn, "_busy_timeout=5000")
}

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open(Config{DSN: filepath.Join(t.TempDir(), "crm.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrate(db))
	for _, table := range []string{"companies", "contacts", "calls", "followups", "accounts", "sessions", "casbin_rule"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	_, err = Open(Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := NewRedis(context.Background(), RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	mr.Close()
	_, err = NewRedis(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}
