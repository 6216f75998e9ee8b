package client

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
)

// Client is the backend contract used by the state containers. Calls that
// need a session take the bearer token explicitly; callers resolve a missing
// token before calling.
//
// Methods returning json.RawMessage hand the success body to the caller
// undecoded, because the containers own the normalization of its shape.
type Client interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Register(ctx context.Context, creds models.Credentials) error

	// GetMyProfile fetches the caller's own profile. It returns (nil, nil)
	// when the profile has not been created yet.
	GetMyProfile(ctx context.Context, token string) (json.RawMessage, error)
	CreateProfile(ctx context.Context, token string, payload map[string]string) (json.RawMessage, error)
	UpdateProfile(ctx context.Context, token string, payload map[string]string) (json.RawMessage, error)

	Search(ctx context.Context, token string, query url.Values) (json.RawMessage, error)

	ListFavorites(ctx context.Context, token string) (json.RawMessage, error)
	AddFavorite(ctx context.Context, token string, targetID string) error
	RemoveFavorite(ctx context.Context, token string, targetID string) error
}
