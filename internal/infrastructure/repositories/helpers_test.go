package repositories

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a file backed SQLite database with foreign keys enabled
// and the full schema migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate",
		filepath.Join(t.TempDir(), "crm.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "failed to connect database")
	require.NoError(t, db.AutoMigrate(Models()...), "failed to migrate database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func admin(id uint) domain.Identity { return domain.Identity{AccountID: id, Role: domain.RoleAdmin} }
func agent(id uint) domain.Identity { return domain.Identity{AccountID: id, Role: domain.RoleAgent} }

func uintPtr(v uint) *uint           { return &v }
func strPtr(v string) *string        { return &v }
func boolPtr(v bool) *bool           { return &v }
func timePtr(v time.Time) *time.Time { return &v }

// seedAccount inserts an account and returns its id
func seedAccount(t *testing.T, db *gorm.DB, username string, role domain.Role) uint {
	t.Helper()
	a := &domain.Account{Username: username, PasswordHash: "hash", Role: role}
	require.NoError(t, NewAccountRepository(db).Create(context.Background(), a))
	return a.ID
}

// seedContact inserts a contact and returns its id
func seedContact(t *testing.T, db *gorm.DB, c domain.Contact) uint {
	t.Helper()
	require.NoError(t, NewContactRepository(db).Create(context.Background(), &c))
	return c.ID
}

// seedCompany inserts a company and returns its id
func seedCompany(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	c := &domain.Company{Name: name}
	require.NoError(t, NewCompanyRepository(db).Create(context.Background(), c))
	return c.ID
}
