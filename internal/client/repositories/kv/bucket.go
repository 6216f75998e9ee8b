package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// Bucket is a Repository bound to a single namespace. Containers receive a
// Bucket so they cannot touch state they do not own.
type Bucket struct {
	repo      Repository
	namespace string
}

func NewBucket(repo Repository, namespace string) *Bucket {
	return &Bucket{repo: repo, namespace: namespace}
}

func (b *Bucket) Namespace() string { return b.namespace }

func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	return b.repo.Get(ctx, b.namespace, key)
}

func (b *Bucket) Set(ctx context.Context, key string, value []byte) error {
	return b.repo.Set(ctx, b.namespace, key, value)
}

func (b *Bucket) SetMany(ctx context.Context, values map[string][]byte) error {
	return b.repo.SetMany(ctx, b.namespace, values)
}

func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	return b.repo.Delete(ctx, b.namespace, keys...)
}

func (b *Bucket) List(ctx context.Context) (map[string][]byte, error) {
	return b.repo.List(ctx, b.namespace)
}

func (b *Bucket) Clear(ctx context.Context) error {
	return b.repo.Clear(ctx, b.namespace)
}

// GetJSON decodes the value at key into v. It reports false when the key
// is absent.
func (b *Bucket) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := b.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s[%s]: %w", b.namespace, key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func (b *Bucket) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s[%s]: %w", b.namespace, key, err)
	}
	return b.Set(ctx, key, raw)
}
