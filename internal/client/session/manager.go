// Package session owns the authenticated session: the bearer token and the
// identity it belongs to. Every other container reads the session through
// the Accessor interface and never writes it.
//
// Invariant: an identity is present if and only if a token is present.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/matchmate/internal/client/broadcast"
	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/client/observe"
	"github.com/dmitrijs2005/matchmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/matchmate/internal/cryptox"
	"github.com/dmitrijs2005/matchmate/internal/logging"
	"github.com/google/uuid"
)

const (
	keyToken    = "token"
	keyIdentity = "identity"
)

var sealedPrefix = []byte("enc1:")

// Status is the hydration state of a Manager.
type Status int32

const (
	StatusPending Status = iota
	StatusReady
)

func (s Status) String() string {
	if s == StatusReady {
		return "ready"
	}
	return "pending"
}

// Snapshot is an immutable copy of the session.
type Snapshot struct {
	Token    string
	Identity *models.Identity
	Status   Status
}

// Authenticated reports whether a token is present.
func (s Snapshot) Authenticated() bool { return s.Token != "" }

// UserID returns the identity id, or "" without a session.
func (s Snapshot) UserID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}

// Accessor is the read-only view of the session handed to other containers.
type Accessor interface {
	Current() Snapshot
}

// Manager is the session state container.
type Manager struct {
	observe.Hub

	mu       sync.RWMutex
	token    string
	identity *models.Identity
	status   Status

	// writeMu orders in-memory mutation with its persistence.
	writeMu   sync.Mutex
	readyOnce sync.Once
	ready     chan struct{}

	bucket *kv.Bucket
	bus    broadcast.Bus
	sealer *cryptox.Sealer
	origin string
	log    logging.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithSealer encrypts the persisted token at rest.
func WithSealer(s *cryptox.Sealer) Option {
	return func(m *Manager) { m.sealer = s }
}

// NewManager builds a Manager persisting into bucket. bus may be nil when
// no other context needs to observe changes.
func NewManager(bucket *kv.Bucket, bus broadcast.Bus, log logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		bucket: bucket,
		bus:    bus,
		origin: uuid.NewString(),
		log:    log.With("container", "session"),
		ready:  make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Origin identifies this Manager on the broadcast bus.
func (m *Manager) Origin() string { return m.origin }

func (m *Manager) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{Token: m.token, Status: m.status}
	if m.identity != nil {
		id := *m.identity
		s.Identity = &id
	}
	return s
}

// Status reports whether hydration has completed.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Ready is closed once the session has been hydrated or installed.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

func (m *Manager) markReady() {
	m.readyOnce.Do(func() {
		m.mu.Lock()
		m.status = StatusReady
		m.mu.Unlock()
		close(m.ready)
	})
}

// Hydrate loads the persisted session. The status becomes ready exactly
// once, even when reading the store fails (the session is then empty).
func (m *Manager) Hydrate(ctx context.Context) error {
	defer m.markReady()
	err := m.Reload(ctx)
	if err != nil {
		m.log.Error(ctx, "session hydration failed", "err", err)
	}
	return err
}

// Reload re-reads the persisted session, replacing the in-memory one. It is
// how a context reacts to a change made by another context.
func (m *Manager) Reload(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	token, identity, err := m.readPersisted(ctx)
	if err != nil {
		m.install("", nil)
		m.Notify()
		return err
	}
	if token == "" {
		identity = nil
	} else if identity == nil {
		identity = deriveIdentity(token)
	}
	m.install(token, identity)
	m.Notify()
	return nil
}

// SetAuth installs a new session unconditionally and marks the manager
// ready. A nil identity is derived from the token's display claims. The
// in-memory session is replaced even when persisting fails.
func (m *Manager) SetAuth(ctx context.Context, token string, identity *models.Identity) error {
	defer m.markReady()
	if token == "" {
		return m.Logout(ctx)
	}
	if identity == nil {
		identity = deriveIdentity(token)
	} else {
		cp := *identity
		identity = &cp
	}

	m.writeMu.Lock()
	m.install(token, identity)
	err := m.persist(ctx, token, identity)
	m.writeMu.Unlock()

	return m.changed(ctx, err)
}

// SetToken replaces the token. An empty token clears the identity too.
// A non-empty token leaves an existing identity untouched so a refreshed
// token does not require refetching the user; without one, an identity is
// derived from the token's display claims.
func (m *Manager) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return m.Logout(ctx)
	}

	m.writeMu.Lock()
	m.mu.RLock()
	identity := m.identity
	m.mu.RUnlock()
	if identity == nil {
		identity = deriveIdentity(token)
	}
	m.install(token, identity)
	err := m.persist(ctx, token, identity)
	m.writeMu.Unlock()

	return m.changed(ctx, err)
}

// Logout clears token, identity and the profile reference atomically.
// Calling it without a session is a no-op apart from re-clearing storage.
func (m *Manager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	m.install("", nil)
	err := m.bucket.Clear(ctx)
	m.writeMu.Unlock()

	return m.changed(ctx, err)
}

// Watch applies session changes published by other contexts until ctx is
// done or the bus closes the subscription.
func (m *Manager) Watch(ctx context.Context) error {
	if m.bus == nil {
		return nil
	}
	events, err := m.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	for ev := range events {
		if ev.Origin == m.origin || ev.Topic != broadcast.TopicSession {
			continue
		}
		m.log.Debug(ctx, "session changed elsewhere, reloading", "origin", ev.Origin)
		if err := m.Reload(ctx); err != nil {
			m.log.Warn(ctx, "reload after broadcast failed", "err", err)
		}
	}
	return nil
}

func (m *Manager) install(token string, identity *models.Identity) {
	m.mu.Lock()
	m.token = token
	m.identity = identity
	m.mu.Unlock()
}

// changed notifies local subscribers and other contexts after a mutation.
func (m *Manager) changed(ctx context.Context, persistErr error) error {
	m.Notify()
	if persistErr != nil {
		m.log.Error(ctx, "persisting session failed", "err", persistErr)
		return fmt.Errorf("persist session: %w", persistErr)
	}
	if m.bus != nil {
		ev := broadcast.Event{Origin: m.origin, Topic: broadcast.TopicSession, At: time.Now().UTC()}
		if err := m.bus.Publish(ctx, ev); err != nil {
			m.log.Warn(ctx, "session broadcast failed", "err", err)
		}
	}
	return nil
}

func (m *Manager) persist(ctx context.Context, token string, identity *models.Identity) error {
	rawIdentity, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	rawToken := []byte(token)
	if m.sealer != nil {
		sealed, err := m.sealer.Seal(rawToken)
		if err != nil {
			return fmt.Errorf("seal token: %w", err)
		}
		rawToken = append(append([]byte{}, sealedPrefix...), sealed...)
	}
	return m.bucket.SetMany(ctx, map[string][]byte{keyToken: rawToken, keyIdentity: rawIdentity})
}

var errSealedWithoutKey = errors.New("persisted token is sealed but no session secret is configured")

func (m *Manager) readPersisted(ctx context.Context) (string, *models.Identity, error) {
	stored, err := m.bucket.List(ctx)
	if err != nil {
		return "", nil, err
	}

	rawToken := stored[keyToken]
	if bytes.HasPrefix(rawToken, sealedPrefix) {
		if m.sealer == nil {
			return "", nil, errSealedWithoutKey
		}
		plain, err := m.sealer.Open(rawToken[len(sealedPrefix):])
		if err != nil {
			return "", nil, fmt.Errorf("open sealed token: %w", err)
		}
		rawToken = plain
	}

	var identity *models.Identity
	if raw := stored[keyIdentity]; len(raw) > 0 {
		if err := json.Unmarshal(raw, &identity); err != nil {
			m.log.Warn(ctx, "ignoring undecodable persisted identity", "err", err)
			identity = nil
		}
	}
	return string(rawToken), identity, nil
}
