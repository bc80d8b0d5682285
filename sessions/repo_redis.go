package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "m8bizz:session:"

var _ Repo = (*RedisRepo)(nil)

// RedisRepo stores sessions as JSON values so every server instance shares
// the same ambient session state.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepo(client *redis.Client, ttl time.Duration) *RedisRepo {
	return &RedisRepo{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("[sessions NewRedisClient] invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[sessions NewRedisClient] ping failed: %w", err)
	}
	return client, nil
}

func (r *RedisRepo) Upsert(ctx context.Context, session Session) error {
	if session.ID == "" {
		return fmt.Errorf("[sessions Upsert] sessionID is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("[sessions Upsert] marshal: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+session.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("[sessions Upsert] redis set: %w", err)
	}
	return nil
}

// Replace uses SET XX so a session deleted by sign-out is never recreated.
func (r *RedisRepo) Replace(ctx context.Context, session Session) error {
	if session.ID == "" {
		return apperrors.ErrSessionNotFound
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("[sessions Replace] marshal: %w", err)
	}
	ok, err := r.client.SetXX(ctx, redisKeyPrefix+session.ID, data, r.ttl).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("[sessions Replace] redis set xx: %w", err)
	}
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, apperrors.ErrSessionNotFound
	}
	data, err := r.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("[sessions Get] redis get: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("[sessions Get] corrupt session %s: %w", sessionID, err)
	}
	return session, nil
}

func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("[sessions Delete] redis del: %w", err)
	}
	return nil
}
