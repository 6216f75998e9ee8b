// Package kv is the persisted key-value store behind the client's state
// containers. Every container owns one namespace and never reads another's.
package kv

import "context"

// Repository stores opaque values grouped by namespace.
//
// Get returns (nil, nil) when the key does not exist. SetMany and Clear are
// atomic within a namespace; there is no transaction spanning namespaces.
type Repository interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	SetMany(ctx context.Context, namespace string, values map[string][]byte) error
	Delete(ctx context.Context, namespace string, keys ...string) error
	List(ctx context.Context, namespace string) (map[string][]byte, error)
	Clear(ctx context.Context, namespace string) error
}

// Namespaces used by the client containers.
const (
	NamespaceSession   = "session"
	NamespaceProfile   = "profile"
	NamespaceSearch    = "search"
	NamespaceFavorites = "favorites"

	// NamespaceKeyring holds device-local key material; logout leaves it alone.
	NamespaceKeyring = "keyring"
)
