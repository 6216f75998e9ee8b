// Package clienttest provides a scriptable client.Client for container tests.
package clienttest

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
)

// Call records one invocation of the fake.
type Call struct {
	Method  string
	Token   string
	Payload map[string]string
	Query   url.Values
	Target  string
}

// Fake answers with the configured funcs; a nil func answers with a zero
// value and no error. Every call is recorded.
type Fake struct {
	PingFn           func(ctx context.Context) error
	LoginFn          func(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	RegisterFn       func(ctx context.Context, creds models.Credentials) error
	GetMyProfileFn   func(ctx context.Context, token string) (json.RawMessage, error)
	CreateProfileFn  func(ctx context.Context, token string, payload map[string]string) (json.RawMessage, error)
	UpdateProfileFn  func(ctx context.Context, token string, payload map[string]string) (json.RawMessage, error)
	SearchFn         func(ctx context.Context, token string, query url.Values) (json.RawMessage, error)
	ListFavoritesFn  func(ctx context.Context, token string) (json.RawMessage, error)
	AddFavoriteFn    func(ctx context.Context, token, targetID string) error
	RemoveFavoriteFn func(ctx context.Context, token, targetID string) error

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls of one method.
func (f *Fake) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) Ping(ctx context.Context) error {
	f.record(Call{Method: "Ping"})
	if f.PingFn == nil {
		return nil
	}
	return f.PingFn(ctx)
}

func (f *Fake) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	f.record(Call{Method: "Login"})
	if f.LoginFn == nil {
		return &models.AuthResult{}, nil
	}
	return f.LoginFn(ctx, creds)
}

func (f *Fake) Register(ctx context.Context, creds models.Credentials) error {
	f.record(Call{Method: "Register"})
	if f.RegisterFn == nil {
		return nil
	}
	return f.RegisterFn(ctx, creds)
}

func (f *Fake) GetMyProfile(ctx context.Context, token string) (json.RawMessage, error) {
	f.record(Call{Method: "GetMyProfile", Token: token})
	if f.GetMyProfileFn == nil {
		return nil, nil
	}
	return f.GetMyProfileFn(ctx, token)
}

func (f *Fake) CreateProfile(ctx context.Context, token string, payload map[string]string) (json.RawMessage, error) {
	f.record(Call{Method: "CreateProfile", Token: token, Payload: payload})
	if f.CreateProfileFn == nil {
		return nil, nil
	}
	return f.CreateProfileFn(ctx, token, payload)
}

func (f *Fake) UpdateProfile(ctx context.Context, token string, payload map[string]string) (json.RawMessage, error) {
	f.record(Call{Method: "UpdateProfile", Token: token, Payload: payload})
	if f.UpdateProfileFn == nil {
		return nil, nil
	}
	return f.UpdateProfileFn(ctx, token, payload)
}

func (f *Fake) Search(ctx context.Context, token string, query url.Values) (json.RawMessage, error) {
	f.record(Call{Method: "Search", Token: token, Query: query})
	if f.SearchFn == nil {
		return json.RawMessage(`{"status":"success","data":{"results":[]}}`), nil
	}
	return f.SearchFn(ctx, token, query)
}

func (f *Fake) ListFavorites(ctx context.Context, token string) (json.RawMessage, error) {
	f.record(Call{Method: "ListFavorites", Token: token})
	if f.ListFavoritesFn == nil {
		return json.RawMessage(`[]`), nil
	}
	return f.ListFavoritesFn(ctx, token)
}

func (f *Fake) AddFavorite(ctx context.Context, token, targetID string) error {
	f.record(Call{Method: "AddFavorite", Token: token, Target: targetID})
	if f.AddFavoriteFn == nil {
		return nil
	}
	return f.AddFavoriteFn(ctx, token, targetID)
}

func (f *Fake) RemoveFavorite(ctx context.Context, token, targetID string) error {
	f.record(Call{Method: "RemoveFavorite", Token: token, Target: targetID})
	if f.RemoveFavoriteFn == nil {
		return nil
	}
	return f.RemoveFavoriteFn(ctx, token, targetID)
}
