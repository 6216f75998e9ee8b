package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/matchmate/internal/client/client"
	"github.com/dmitrijs2005/matchmate/internal/client/client/clienttest"
	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/matchmate/internal/client/session"
	"github.com/dmitrijs2005/matchmate/internal/common"
	"github.com/dmitrijs2005/matchmate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is a tiny in-memory favourites server behind clienttest.Fake.
type backend struct {
	mu         sync.Mutex
	ids        []string
	failAdd    error
	failRemove error
}

func (b *backend) fake() *clienttest.Fake {
	return &clienttest.Fake{
		ListFavoritesFn: func(context.Context, string) (json.RawMessage, error) {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := make([]map[string]any, 0, len(b.ids))
			for _, id := range b.ids {
				list = append(list, map[string]any{"targetId": id, "profile": map[string]any{"firstName": "N-" + id}})
			}
			return json.Marshal(map[string]any{"data": list})
		},
		AddFavoriteFn: func(_ context.Context, _ string, id string) error {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.failAdd != nil {
				return b.failAdd
			}
			b.ids = append(b.ids, id)
			return nil
		},
		RemoveFavoriteFn: func(_ context.Context, _ string, id string) error {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.failRemove != nil {
				return b.failRemove
			}
			out := b.ids[:0]
			for _, x := range b.ids {
				if x != id {
					out = append(out, x)
				}
			}
			b.ids = out
			return nil
		},
	}
}

func (b *backend) setRemoveError(err error) {
	b.mu.Lock()
	b.failRemove = err
	b.mu.Unlock()
}

type fixture struct {
	repo *kv.MemoryRepository
	sess *session.Manager
	be   *backend
	api  *clienttest.Fake
	mgr  *Manager
}

func newFixture(t *testing.T, signedIn bool, ids ...string) *fixture {
	t.Helper()
	repo := kv.NewMemoryRepository()
	sess := session.NewManager(kv.NewBucket(repo, kv.NamespaceSession), nil, logging.Nop())
	if signedIn {
		require.NoError(t, sess.SetAuth(context.Background(), "tok", &models.Identity{ID: "u1"}))
	}
	be := &backend{ids: ids}
	api := be.fake()
	mgr := NewManager(sess, api, kv.NewBucket(repo, kv.NamespaceFavorites), logging.Nop())
	return &fixture{repo: repo, sess: sess, be: be, api: api, mgr: mgr}
}

func ids(items []models.Favorite) []string {
	out := make([]string, 0, len(items))
	for _, f := range items {
		out = append(out, f.TargetID)
	}
	return out
}

func TestManager_LoadWithoutSessionClears(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "a")
	require.NoError(t, f.mgr.Load(ctx))
	require.Len(t, f.mgr.Items(), 1)

	require.NoError(t, f.sess.Logout(ctx))
	require.NoError(t, f.mgr.Load(ctx))
	assert.Empty(t, f.mgr.Items())
	assert.Len(t, f.api.CallsTo("ListFavorites"), 1)
}

func TestManager_Load(t *testing.T) {
	f := newFixture(t, true, "a", "b")
	require.NoError(t, f.mgr.Load(context.Background()))

	assert.Equal(t, []string{"a", "b"}, ids(f.mgr.Items()))
	assert.Equal(t, "N-a", f.mgr.Items()[0].Profile.FirstName)
	assert.True(t, f.mgr.Has("b"))
	assert.False(t, f.mgr.Has("c"))
}

func TestManager_AddReloads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "a")

	require.NoError(t, f.mgr.Add(ctx, " b "))

	assert.Equal(t, []string{"a", "b"}, ids(f.mgr.Items()))
	assert.Equal(t, "b", f.api.CallsTo("AddFavorite")[0].Target)
	assert.Len(t, f.api.CallsTo("ListFavorites"), 1)
}

func TestManager_AddFailureStillReloads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "a")
	f.be.failAdd = &client.RemoteError{StatusCode: 402, Message: "membership required"}

	err := f.mgr.Add(ctx, "b")
	require.ErrorIs(t, err, client.ErrPaymentRequired)
	assert.Equal(t, []string{"a"}, ids(f.mgr.Items()))
	assert.Len(t, f.api.CallsTo("ListFavorites"), 1)
	assert.Equal(t, "membership required", f.mgr.Err())
}

func TestManager_RequiresSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.ErrorIs(t, f.mgr.Add(ctx, "a"), common.ErrUnauthenticated)
	require.ErrorIs(t, f.mgr.Remove(ctx, "a"), common.ErrUnauthenticated)
	require.ErrorIs(t, f.mgr.Toggle(ctx, "a"), common.ErrUnauthenticated)
	require.ErrorIs(t, f.mgr.Reconcile(ctx), common.ErrUnauthenticated)
	assert.Empty(t, f.api.Calls())
}

func TestManager_RemoveIsOptimistic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "a", "b")
	require.NoError(t, f.mgr.Load(ctx))
	f.be.setRemoveError(client.ErrUnavailable)

	err := f.mgr.Remove(ctx, "a")

	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, []string{"b"}, ids(f.mgr.Items()))
	assert.Equal(t, []string{"a"}, f.mgr.Pending())
	assert.NotEmpty(t, f.mgr.Err())

	// Only a reload brings the authoritative state back.
	require.NoError(t, f.mgr.Load(ctx))
	assert.Equal(t, []string{"a", "b"}, ids(f.mgr.Items()))
}

func TestManager_RemoveUnknownTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "a")
	require.NoError(t, f.mgr.Load(ctx))

	require.NoError(t, f.mgr.Remove(ctx, "zzz"))
	assert.Equal(t, []string{"a"}, ids(f.mgr.Items()))
	assert.Len(t, f.api.CallsTo("RemoveFavorite"), 1)
}

func TestManager_Reconcile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "a", "b")
	require.NoError(t, f.mgr.Load(ctx))

	f.be.setRemoveError(errors.New("flaky"))
	require.Error(t, f.mgr.Remove(ctx, "a"))
	require.Error(t, f.mgr.Reconcile(ctx))
	assert.Equal(t, []string{"a"}, f.mgr.Pending())

	f.be.setRemoveError(nil)
	require.NoError(t, f.mgr.Reconcile(ctx))
	assert.Empty(t, f.mgr.Pending())
	assert.Equal(t, []string{"b"}, ids(f.mgr.Items()))
	assert.Empty(t, f.mgr.Err())
}

func TestManager_Toggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "a")
	require.NoError(t, f.mgr.Load(ctx))

	require.NoError(t, f.mgr.Toggle(ctx, "a"))
	assert.False(t, f.mgr.Has("a"))
	assert.Len(t, f.api.CallsTo("RemoveFavorite"), 1)

	require.NoError(t, f.mgr.Toggle(ctx, "a"))
	assert.True(t, f.mgr.Has("a"))
	assert.Len(t, f.api.CallsTo("AddFavorite"), 1)
}

func TestManager_Restore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true, "a", "b")
	require.NoError(t, f.mgr.Load(ctx))
	f.be.setRemoveError(errors.New("down"))
	_ = f.mgr.Remove(ctx, "b")

	again := NewManager(f.sess, f.api, kv.NewBucket(f.repo, kv.NamespaceFavorites), logging.Nop())
	require.NoError(t, again.Restore(ctx))
	assert.Equal(t, []string{"a"}, ids(again.Items()))
	assert.Equal(t, []string{"b"}, again.Pending())

	require.NoError(t, f.sess.SetAuth(ctx, "tok2", &models.Identity{ID: "u2"}))
	other := NewManager(f.sess, f.api, kv.NewBucket(f.repo, kv.NamespaceFavorites), logging.Nop())
	require.NoError(t, other.Restore(ctx))
	assert.Empty(t, other.Items())
	assert.Empty(t, other.Pending())
}

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: ``, want: []string{}},
		{name: "bare array", raw: `[{"targetId":"a"},{"target_id":"b"}]`, want: []string{"a", "b"}},
		{name: "nested favorites", raw: `{"data":{"favorites":[{"target":{"id":"c","firstName":"C"}}]}}`, want: []string{"c"}},
		{name: "items with duplicates", raw: `{"items":[{"targetId":"a"},{"targetId":"a"},{"nope":1}]}`, want: []string{"a"}},
		{name: "no list", raw: `{"status":"success"}`, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeList(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	got, err := DecodeList(json.RawMessage(`[{"targetId":"a","createdAt":"2025-03-01T10:00:00Z","profile":{"age":"29","city":"Riga"}}]`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), got[0].CreatedAt)
	assert.Equal(t, 29, got[0].Profile.Age)
	assert.Equal(t, "Riga", got[0].Profile.City)

	_, err = DecodeList(json.RawMessage(`{oops`))
	require.ErrorIs(t, err, common.ErrMalformedResponse)
}
