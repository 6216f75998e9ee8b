// Package favorites keeps the signed-in user's favourites list.
//
// Adding is confirmed by reloading the list. Removing is optimistic: the
// entry leaves the local list at once and stays removed even when the
// backend call fails. Failed removals are queued and retried by Reconcile,
// which finishes with an authoritative reload.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/matchmate/internal/client/client"
	"github.com/dmitrijs2005/matchmate/internal/client/metrics"
	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/client/observe"
	"github.com/dmitrijs2005/matchmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/matchmate/internal/client/session"
	"github.com/dmitrijs2005/matchmate/internal/common"
	"github.com/dmitrijs2005/matchmate/internal/logging"
)

const listKey = "list"

type persistedList struct {
	Owner   string            `json:"owner"`
	Items   []models.Favorite `json:"items"`
	Pending []string          `json:"pending,omitempty"`
}

type Manager struct {
	observe.Hub

	mu      sync.RWMutex
	items   []models.Favorite
	pending []string
	errMsg  string

	session session.Accessor
	api     client.Client
	bucket  *kv.Bucket
	log     logging.Logger
}

func NewManager(sess session.Accessor, api client.Client, bucket *kv.Bucket, log logging.Logger) *Manager {
	return &Manager{
		session: sess,
		api:     api,
		bucket:  bucket,
		log:     log.With("container", "favorites"),
	}
}

// Load installs the backend's list. Without a session the local list is
// cleared silently.
func (m *Manager) Load(ctx context.Context) error {
	s := m.session.Current()
	if !s.Authenticated() {
		return m.Clear(ctx)
	}

	raw, err := m.api.ListFavorites(ctx, s.Token)
	if err != nil {
		return m.fail(ctx, "load favourites", err)
	}
	items, err := DecodeList(raw)
	if err != nil {
		return m.fail(ctx, "load favourites", err)
	}

	m.mu.Lock()
	m.items = items
	// Queued removals the backend already forgot about are done.
	m.pending = slices.DeleteFunc(m.pending, func(id string) bool { return !contains(items, id) })
	m.errMsg = ""
	m.mu.Unlock()

	m.persist(ctx, s.UserID())
	m.Notify()
	return nil
}

// Add asks the backend to add targetID and then reloads the list, whether
// or not the add succeeded.
func (m *Manager) Add(ctx context.Context, targetID string) error {
	s := m.session.Current()
	if !s.Authenticated() {
		return common.ErrUnauthenticated
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return common.NewValidationError("target id is required", "targetId")
	}

	m.mu.Lock()
	m.pending = slices.DeleteFunc(m.pending, func(id string) bool { return id == targetID })
	m.mu.Unlock()

	addErr := m.api.AddFavorite(ctx, s.Token, targetID)
	loadErr := m.Load(ctx)
	if addErr != nil {
		return m.fail(ctx, "add favourite", addErr)
	}
	return loadErr
}

// Remove drops targetID from the local list immediately and then asks the
// backend to remove it. A failed request is recorded and queued for
// Reconcile; the local removal stays.
func (m *Manager) Remove(ctx context.Context, targetID string) error {
	s := m.session.Current()
	if !s.Authenticated() {
		return common.ErrUnauthenticated
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return common.NewValidationError("target id is required", "targetId")
	}

	m.mu.Lock()
	m.items = slices.DeleteFunc(m.items, func(f models.Favorite) bool { return f.TargetID == targetID })
	m.mu.Unlock()
	m.persist(ctx, s.UserID())
	m.Notify()

	if err := m.api.RemoveFavorite(ctx, s.Token, targetID); err != nil {
		metrics.FavoriteRemovalFailuresTotal.Inc()
		m.mu.Lock()
		if !slices.Contains(m.pending, targetID) {
			m.pending = append(m.pending, targetID)
		}
		m.mu.Unlock()
		m.persist(ctx, s.UserID())
		return m.fail(ctx, "remove favourite", err)
	}

	m.mu.Lock()
	m.pending = slices.DeleteFunc(m.pending, func(id string) bool { return id == targetID })
	m.mu.Unlock()
	m.persist(ctx, s.UserID())
	return nil
}

// Toggle removes targetID when it is in the list and adds it otherwise.
func (m *Manager) Toggle(ctx context.Context, targetID string) error {
	if m.Has(targetID) {
		return m.Remove(ctx, targetID)
	}
	return m.Add(ctx, targetID)
}

// Reconcile retries every queued removal and then reloads the list from
// the backend. Removals that fail again stay queued.
func (m *Manager) Reconcile(ctx context.Context) error {
	s := m.session.Current()
	if !s.Authenticated() {
		return common.ErrUnauthenticated
	}

	var errs []error
	for _, id := range m.Pending() {
		if err := m.api.RemoveFavorite(ctx, s.Token, id); err != nil {
			errs = append(errs, fmt.Errorf("retry removal of %s: %w", id, err))
			continue
		}
		m.mu.Lock()
		m.pending = slices.DeleteFunc(m.pending, func(p string) bool { return p == id })
		m.mu.Unlock()
	}

	if err := m.Load(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		m.mu.Lock()
		m.errMsg = common.UserMessage(errs[0])
		m.mu.Unlock()
		m.Notify()
		return err
	}
	return nil
}

// Restore reloads the persisted list. It is cleared instead when there is
// no session or it belongs to another user.
func (m *Manager) Restore(ctx context.Context) error {
	var p persistedList
	found, err := m.bucket.GetJSON(ctx, listKey, &p)
	if err != nil {
		m.log.Warn(ctx, "ignoring unreadable favourites", "err", err)
		found = false
	}

	owner := m.session.Current().UserID()
	if !found || owner == "" || p.Owner != owner {
		return m.Clear(ctx)
	}

	m.mu.Lock()
	m.items = p.Items
	m.pending = p.Pending
	m.mu.Unlock()
	m.Notify()
	return nil
}

// Clear empties the list, the removal queue and the stored copy.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.items = nil
	m.pending = nil
	m.errMsg = ""
	m.mu.Unlock()
	m.Notify()
	return m.bucket.Clear(ctx)
}

func (m *Manager) Items() []models.Favorite {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.items)
}

func (m *Manager) Has(targetID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return contains(m.items, strings.TrimSpace(targetID))
}

// Pending lists removals the backend has not confirmed yet.
func (m *Manager) Pending() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.pending)
}

func (m *Manager) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

func contains(items []models.Favorite, targetID string) bool {
	return slices.ContainsFunc(items, func(f models.Favorite) bool { return f.TargetID == targetID })
}

func (m *Manager) fail(ctx context.Context, op string, err error) error {
	m.mu.Lock()
	m.errMsg = common.UserMessage(err)
	m.mu.Unlock()
	m.log.Warn(ctx, op+" failed", "err", err)
	m.Notify()
	return fmt.Errorf("%s: %w", op, err)
}

func (m *Manager) persist(ctx context.Context, owner string) {
	if owner == "" {
		return
	}
	m.mu.RLock()
	p := persistedList{Owner: owner, Items: slices.Clone(m.items), Pending: slices.Clone(m.pending)}
	m.mu.RUnlock()
	if err := m.bucket.SetJSON(ctx, listKey, p); err != nil {
		m.log.Warn(ctx, "persisting favourites failed", "err", err)
	}
}
