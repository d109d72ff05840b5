package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "andbang:session:"

var _ Repo = (*RedisRepo)(nil)

// RedisRepo shares sessions between processes. Each session is one JSON
// value whose Redis TTL is the session lifetime.
type RedisRepo struct {
	client    redis.UniversalClient
	keyPrefix string
}

type RedisOption func(*RedisRepo)

// WithKeyPrefix namespaces keys, e.g. per application.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisRepo) {
		r.keyPrefix = prefix
	}
}

func NewRedisRepo(client redis.UniversalClient, opts ...RedisOption) *RedisRepo {
	r := &RedisRepo{client: client, keyPrefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisRepoFromAddr connects to a single Redis node.
func NewRedisRepoFromAddr(addr string, opts ...RedisOption) *RedisRepo {
	return NewRedisRepo(redis.NewClient(&redis.Options{Addr: addr}), opts...)
}

func (r *RedisRepo) key(sessionID string) string {
	return r.keyPrefix + sessionID
}

func (r *RedisRepo) Upsert(ctx context.Context, session *Session, ttl time.Duration) error {
	if session == nil || session.ID == "" {
		return ErrSessionIDRequired
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisRepo) Close() error {
	return r.client.Close()
}
