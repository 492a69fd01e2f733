package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces all keys written by RedisStorage.
const DefaultRedisPrefix = "posdash:"

// RedisStorage implements Storage on top of a Redis client.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures RedisStorage.
type RedisOption func(*RedisStorage)

// WithRedisPrefix overrides the key prefix. Use a per-terminal prefix when
// several dashboards share one Redis database.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStorage) {
		s.prefix = prefix
	}
}

// NewRedisStorage wraps an existing Redis client.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisOption) (*RedisStorage, error) {
	if client == nil {
		return nil, ErrInvalidConfig
	}

	s := &RedisStorage{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ConnectRedis parses a redis:// URL, pings the server and returns a ready
// client.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, ErrInvalidConfig
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set stores the value without expiry; session lifetime is owned by the
// backend that issued the token.
func (s *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}

	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *RedisStorage) key(key string) string {
	return s.prefix + key
}
