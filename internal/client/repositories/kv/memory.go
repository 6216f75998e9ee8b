package kv

import (
	"context"
	"sync"
)

// MemoryRepository keeps everything in process memory. It is used by tests
// and by the CLI when no durable store is configured.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string]map[string][]byte)}
}

func (r *MemoryRepository) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[namespace][key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (r *MemoryRepository) Set(ctx context.Context, namespace, key string, value []byte) error {
	return r.SetMany(ctx, namespace, map[string][]byte{key: value})
}

func (r *MemoryRepository) SetMany(ctx context.Context, namespace string, values map[string][]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns, ok := r.data[namespace]
	if !ok {
		ns = make(map[string][]byte, len(values))
		r.data[namespace] = ns
	}
	for k, v := range values {
		ns[k] = append([]byte(nil), v...)
	}
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, namespace string, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.data[namespace], k)
	}
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, namespace string) (map[string][]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]byte, len(r.data[namespace]))
	for k, v := range r.data[namespace] {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

func (r *MemoryRepository) Clear(ctx context.Context, namespace string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, namespace)
	return nil
}
