package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores each namespace as one Redis hash, so a namespace
// can be written or dropped with a single command.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository uses keys of the form <prefix>:<namespace>.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "matchmate"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(namespace string) string {
	return r.prefix + ":" + namespace
}

func (r *RedisRepository) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	v, err := r.client.HGet(ctx, r.key(namespace), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", namespace, key, err)
	}
	return v, nil
}

func (r *RedisRepository) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err := r.client.HSet(ctx, r.key(namespace), key, value).Err(); err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", namespace, key, err)
	}
	return nil
}

func (r *RedisRepository) SetMany(ctx context.Context, namespace string, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]any, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	if err := r.client.HSet(ctx, r.key(namespace), args...).Err(); err != nil {
		return fmt.Errorf("failed to set %s batch: %w", namespace, err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, r.key(namespace), keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", namespace, err)
	}
	return nil
}

func (r *RedisRepository) List(ctx context.Context, namespace string) (map[string][]byte, error) {
	m, err := r.client.HGetAll(ctx, r.key(namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", namespace, err)
	}
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[k] = []byte(v)
	}
	return out, nil
}

func (r *RedisRepository) Clear(ctx context.Context, namespace string) error {
	if err := r.client.Del(ctx, r.key(namespace)).Err(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", namespace, err)
	}
	return nil
}
