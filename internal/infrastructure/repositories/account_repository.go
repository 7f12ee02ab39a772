package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/fardapack/fardapack-crm/domain"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements domain.AccountRepository using GORM
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

// Create implements domain.AccountRepository. Usernames are checked inside
// the insert transaction and again by the unique index.
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	username := strings.TrimSpace(account.Username)
	if username == "" || account.PasswordHash == "" {
		return fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	if !account.Role.Valid() {
		return fmt.Errorf("%w: role %q", domain.ErrInvalidEnum, account.Role)
	}

	m := &DBAccount{
		Username:        username,
		PasswordHash:    account.PasswordHash,
		Role:            string(account.Role),
		LinkedContactID: account.LinkedContactID,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&DBAccount{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateUsername
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return translateError(err, domain.ErrDuplicateUsername)
	}
	account.ID = m.ID
	account.Username = m.Username
	account.CreatedAt = m.CreatedAt
	return nil
}

// FindByUsername implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var m DBAccount
	err := r.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&m).Error
	if err != nil {
		return nil, translateError(err, nil)
	}
	return accountToDomain(&m), nil
}

// FindByID implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	var m DBAccount
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err, nil)
	}
	return accountToDomain(&m), nil
}

// List implements domain.AccountRepository. Agents come first for owner pickers.
func (r *AccountRepositoryImpl) List(ctx context.Context) ([]domain.Account, error) {
	var rows []DBAccount
	if err := r.db.WithContext(ctx).Order("role DESC, username ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err, nil)
	}
	out := make([]domain.Account, 0, len(rows))
	for i := range rows {
		out = append(out, *accountToDomain(&rows[i]))
	}
	return out, nil
}

// Count implements domain.AccountRepository
func (r *AccountRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&DBAccount{}).Count(&n).Error; err != nil {
		return 0, translateError(err, nil)
	}
	return n, nil
}
