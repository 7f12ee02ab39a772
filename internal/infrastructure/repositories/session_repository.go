package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/fardapack/fardapack-crm/domain"
	"gorm.io/gorm"
)

// SessionRepositoryImpl implements domain.SessionRepository using GORM
type SessionRepositoryImpl struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository backed by the store
func NewSessionRepository(db *gorm.DB) domain.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// Create implements domain.SessionRepository
func (r *SessionRepositoryImpl) Create(ctx context.Context, session *domain.Session) error {
	m := &DBSession{
		Token:     session.Token,
		AccountID: session.AccountID,
		CreatedAt: session.CreatedAt.UTC(),
		ExpiresAt: session.ExpiresAt.UTC(),
	}
	return translateError(r.db.WithContext(ctx).Create(m).Error, nil)
}

// FindByToken implements domain.SessionRepository. Expired rows are returned
// as stored; the caller decides validity.
func (r *SessionRepositoryImpl) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	var m DBSession
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, translateError(err, nil)
	}
	return &domain.Session{
		Token:     m.Token,
		AccountID: m.AccountID,
		CreatedAt: m.CreatedAt.UTC(),
		ExpiresAt: m.ExpiresAt.UTC(),
	}, nil
}

// Delete implements domain.SessionRepository. Deleting an unknown token is
// not an error.
func (r *SessionRepositoryImpl) Delete(ctx context.Context, token string) error {
	return translateError(r.db.WithContext(ctx).Where("token = ?", token).Delete(&DBSession{}).Error, nil)
}

// DeleteExpired implements domain.SessionRepository
func (r *SessionRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&DBSession{})
	if res.Error != nil {
		return 0, translateError(res.Error, nil)
	}
	return res.RowsAffected, nil
}
