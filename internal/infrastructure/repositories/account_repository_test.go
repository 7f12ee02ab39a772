package repositories

import (
	"context"
	"testing"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepositoryImpl(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	a := &domain.Account{Username: "sara", PasswordHash: "hash", Role: domain.RoleAgent}
	require.NoError(t, repo.Create(ctx, a))
	assert.NotZero(t, a.ID)

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, &domain.Account{Username: "sara", PasswordHash: "other", Role: domain.RoleAdmin})
		assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
	})

	t.Run("duplicate username without the index", func(t *testing.T) {
		require.NoError(t, db.Migrator().DropIndex(&DBAccount{}, "idx_accounts_username"))
		t.Cleanup(func() { _ = db.Migrator().CreateIndex(&DBAccount{}, "idx_accounts_username") })

		err := repo.Create(ctx, &domain.Account{Username: " sara ", PasswordHash: "other", Role: domain.RoleAgent})
		assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

		var count int64
		require.NoError(t, db.Model(&DBAccount{}).Where("username = ?", "sara").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("invalid role", func(t *testing.T) {
		err := repo.Create(ctx, &domain.Account{Username: "root", PasswordHash: "x", Role: "owner"})
		assert.ErrorIs(t, err, domain.ErrInvalidEnum)
	})

	t.Run("lookups", func(t *testing.T) {
		byName, err := repo.FindByUsername(ctx, "sara")
		require.NoError(t, err)
		assert.Equal(t, a.ID, byName.ID)

		byID, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAgent, byID.Role)

		_, err = repo.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &domain.Account{Username: "admin", PasswordHash: "x", Role: domain.RoleAdmin}))
		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "sara", all[0].Username)
		assert.Equal(t, "admin", all[1].Username)
	})

	t.Run("linked contact is cleared when the contact goes", func(t *testing.T) {
		contactID := seedContact(t, db, domain.Contact{FirstName: "Linked"})
		linked := &domain.Account{Username: "linked", PasswordHash: "x", Role: domain.RoleAgent, LinkedContactID: &contactID}
		require.NoError(t, repo.Create(ctx, linked))
		require.NoError(t, NewContactRepository(db).Delete(ctx, contactID))

		got, err := repo.FindByID(ctx, linked.ID)
		require.NoError(t, err)
		assert.Nil(t, got.LinkedContactID)
	})
}
