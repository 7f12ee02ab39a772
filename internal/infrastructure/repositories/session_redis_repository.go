package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/redis/go-redis/v9"
)

// RedisSessionRepository implements domain.SessionRepository using Redis.
// Keys expire on their own at the session expiry.
type RedisSessionRepository struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

// NewRedisSessionRepository creates a new Redis backed session repository
func NewRedisSessionRepository(client redis.Cmdable) domain.SessionRepository {
	return &RedisSessionRepository{
		client: client,
		prefix: "crm:session:",
		now:    time.Now,
	}
}

type redisSession struct {
	AccountID uint      `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create implements domain.SessionRepository
func (r *RedisSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", domain.ErrValidation)
	}

	data, err := json.Marshal(redisSession{
		AccountID: session.AccountID,
		CreatedAt: session.CreatedAt.UTC(),
		ExpiresAt: session.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return r.client.Set(ctx, r.prefix+session.Token, data, ttl).Err()
}

// FindByToken implements domain.SessionRepository
func (r *RedisSessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.prefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var s redisSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &domain.Session{
		Token:     token,
		AccountID: s.AccountID,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}, nil
}

// Delete implements domain.SessionRepository
func (r *RedisSessionRepository) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.prefix+token).Err()
}

// DeleteExpired implements domain.SessionRepository. Redis evicts expired
// keys itself so there is never anything to purge.
func (r *RedisSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
