package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/matchmate/internal/client/broadcast"
	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/matchmate/internal/cryptox"
	"github.com/dmitrijs2005/matchmate/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return tok
}

func newManager(repo kv.Repository, bus broadcast.Bus, opts ...Option) *Manager {
	return NewManager(kv.NewBucket(repo, kv.NamespaceSession), bus, logging.Nop(), opts...)
}

func TestManager_HydrateEmpty(t *testing.T) {
	m := newManager(kv.NewMemoryRepository(), nil)
	assert.Equal(t, StatusPending, m.Status())

	require.NoError(t, m.Hydrate(context.Background()))

	select {
	case <-m.Ready():
	default:
		t.Fatal("ready channel not closed")
	}
	s := m.Current()
	assert.Equal(t, StatusReady, s.Status)
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.Identity)
}

func TestManager_SetAuthPersists(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemoryRepository()
	m := newManager(repo, nil)

	id := &models.Identity{ID: "u1", Email: "a@b.c", Role: "user", ProfileID: "p1"}
	require.NoError(t, m.SetAuth(ctx, "tok", id))
	assert.Equal(t, StatusReady, m.Status())

	id.Email = "mutated@b.c"
	assert.Equal(t, "a@b.c", m.Current().Identity.Email)

	other := newManager(repo, nil)
	require.NoError(t, other.Hydrate(ctx))
	s := other.Current()
	assert.Equal(t, "tok", s.Token)
	require.NotNil(t, s.Identity)
	assert.Equal(t, "u1", s.UserID())
	assert.Equal(t, "p1", s.Identity.ProfileID)
	assert.False(t, s.Identity.Derived)
}

func TestManager_SetToken(t *testing.T) {
	ctx := context.Background()

	t.Run("empty clears identity", func(t *testing.T) {
		m := newManager(kv.NewMemoryRepository(), nil)
		require.NoError(t, m.SetAuth(ctx, "tok", &models.Identity{ID: "u1"}))

		require.NoError(t, m.SetToken(ctx, ""))
		s := m.Current()
		assert.Empty(t, s.Token)
		assert.Nil(t, s.Identity)
	})

	t.Run("keeps existing identity", func(t *testing.T) {
		m := newManager(kv.NewMemoryRepository(), nil)
		require.NoError(t, m.SetAuth(ctx, "tok", &models.Identity{ID: "u1", Email: "a@b.c"}))

		require.NoError(t, m.SetToken(ctx, "abc"))
		s := m.Current()
		assert.Equal(t, "abc", s.Token)
		require.NotNil(t, s.Identity)
		assert.Equal(t, "u1", s.Identity.ID)
		assert.Equal(t, "a@b.c", s.Identity.Email)
	})

	t.Run("derives identity when none", func(t *testing.T) {
		m := newManager(kv.NewMemoryRepository(), nil)
		tok := signedToken(t, jwt.MapClaims{"sub": "u9", "email": "x@y.z", "role": "admin"})

		require.NoError(t, m.SetToken(ctx, tok))
		s := m.Current()
		require.NotNil(t, s.Identity)
		assert.Equal(t, "u9", s.Identity.ID)
		assert.Equal(t, "admin", s.Identity.Role)
		assert.True(t, s.Identity.Derived)
	})
}

func TestManager_LogoutThenReread(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemoryRepository()
	m := newManager(repo, nil)
	require.NoError(t, m.SetAuth(ctx, "tok", &models.Identity{ID: "u1"}))

	require.NoError(t, m.Logout(ctx))
	require.NoError(t, m.Logout(ctx))
	assert.False(t, m.Current().Authenticated())

	stored, err := repo.List(ctx, kv.NamespaceSession)
	require.NoError(t, err)
	assert.Empty(t, stored)

	other := newManager(repo, nil)
	require.NoError(t, other.Hydrate(ctx))
	assert.False(t, other.Current().Authenticated())
	assert.Nil(t, other.Current().Identity)
}

func TestManager_HydrateDerivesIdentityFromToken(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemoryRepository()
	tok := signedToken(t, jwt.MapClaims{"userId": "u7", "email": "e@f.g"})
	require.NoError(t, repo.Set(ctx, kv.NamespaceSession, keyToken, []byte(tok)))

	m := newManager(repo, nil)
	require.NoError(t, m.Hydrate(ctx))

	s := m.Current()
	assert.Equal(t, tok, s.Token)
	require.NotNil(t, s.Identity)
	assert.Equal(t, "u7", s.Identity.ID)
	assert.Equal(t, "e@f.g", s.Identity.Email)
	assert.True(t, s.Identity.Derived)
}

func TestManager_HydrateUndecodableTokenKeepsInvariant(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemoryRepository()
	require.NoError(t, repo.Set(ctx, kv.NamespaceSession, keyToken, []byte("not-a-jwt")))

	m := newManager(repo, nil)
	require.NoError(t, m.Hydrate(ctx))

	s := m.Current()
	assert.Equal(t, "not-a-jwt", s.Token)
	require.NotNil(t, s.Identity)
	assert.Empty(t, s.Identity.ID)
}

func TestManager_HydrateIdentityWithoutToken(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemoryRepository()
	require.NoError(t, repo.Set(ctx, kv.NamespaceSession, keyIdentity, []byte(`{"id":"u1"}`)))

	m := newManager(repo, nil)
	require.NoError(t, m.Hydrate(ctx))
	assert.Nil(t, m.Current().Identity)
}

func TestManager_Sealed(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemoryRepository()
	sealer, err := cryptox.NewSealer([]byte("pw"), []byte("salt"))
	require.NoError(t, err)

	m := newManager(repo, nil, WithSealer(sealer))
	require.NoError(t, m.SetAuth(ctx, "secret-token", &models.Identity{ID: "u1"}))

	raw, err := repo.Get(ctx, kv.NamespaceSession, keyToken)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token")

	same := newManager(repo, nil, WithSealer(sealer))
	require.NoError(t, same.Hydrate(ctx))
	assert.Equal(t, "secret-token", same.Current().Token)

	noKey := newManager(repo, nil)
	err = noKey.Hydrate(ctx)
	require.Error(t, err)
	assert.Equal(t, StatusReady, noKey.Status())
	assert.False(t, noKey.Current().Authenticated())
}

func TestManager_NotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	m := newManager(kv.NewMemoryRepository(), nil)

	var calls atomic.Int32
	unsubscribe := m.Subscribe(func() { calls.Add(1) })

	require.NoError(t, m.SetAuth(ctx, "tok", &models.Identity{ID: "u1"}))
	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, int32(2), calls.Load())

	unsubscribe()
	require.NoError(t, m.SetToken(ctx, "x"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestManager_WatchAppliesForeignChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := kv.NewMemoryRepository()
	bus := broadcast.NewLocalBus()
	defer bus.Close()

	writer := newManager(repo, bus)
	reader := newManager(repo, bus)
	require.NoError(t, reader.Hydrate(ctx))
	require.NotEqual(t, writer.Origin(), reader.Origin())

	done := make(chan error, 1)
	go func() { done <- reader.Watch(ctx) }()

	require.Eventually(t, func() bool {
		_ = writer.SetAuth(ctx, "tok", &models.Identity{ID: "u1"})
		return reader.Current().Token == "tok"
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_ = writer.Logout(ctx)
		return !reader.Current().Authenticated()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestDecodeDisplayClaims(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "u1", "email": "a@b.c", "role": "user"})
	c, err := DecodeDisplayClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, DisplayClaims{Subject: "u1", Email: "a@b.c", Role: "user"}, c)

	_, err = DecodeDisplayClaims("garbage")
	require.Error(t, err)
}
