// Package services contains application services for the matchmate client.
// This file defines the authentication service: login, registration,
// logout with teardown of per-user state, and a liveness check.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/matchmate/internal/client/client"
	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/common"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: exchange credentials for a token and install the session.
//   - Register: create a new account on the server.
//   - Logout: end the session and clear every per-user container.
//   - Ping: check server liveness.
//
// Validation errors are returned before any network call.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) error
	Register(ctx context.Context, email string, password []byte) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

// SessionWriter is the part of the session manager the service drives.
type SessionWriter interface {
	SetAuth(ctx context.Context, token string, identity *models.Identity) error
	Logout(ctx context.Context) error
}

// Clearer is a container holding per-user state that must not survive a
// logout.
type Clearer interface {
	Clear(ctx context.Context) error
}

type authService struct {
	client   client.Client
	session  SessionWriter
	clearers []Clearer
}

// NewAuthService constructs an AuthService bound to the API client and the
// session. clearers are emptied on logout.
func NewAuthService(client client.Client, session SessionWriter, clearers ...Clearer) AuthService {
	return &authService{client: client, session: session, clearers: clearers}
}

func credentials(email string, password []byte) (models.Credentials, error) {
	email = strings.TrimSpace(email)
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if len(password) == 0 {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return models.Credentials{}, common.NewValidationError("credentials required", missing...)
	}
	return models.Credentials{Email: email, Password: string(password)}, nil
}

// Login authenticates against the server and installs the session. The
// identity falls back to the token's display claims when the server sends
// none.
func (a *authService) Login(ctx context.Context, email string, password []byte) error {
	creds, err := credentials(email, password)
	if err != nil {
		return err
	}
	res, err := a.client.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	if err := a.session.SetAuth(ctx, res.Token, res.Identity); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	return nil
}

// Register creates a new account on the server.
func (a *authService) Register(ctx context.Context, email string, password []byte) error {
	creds, err := credentials(email, password)
	if err != nil {
		return err
	}
	if err := a.client.Register(ctx, creds); err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	return nil
}

// Logout clears the session first, then every container. All containers
// are cleared even if one of them fails.
func (a *authService) Logout(ctx context.Context) error {
	errs := []error{a.session.Logout(ctx)}
	for _, c := range a.clearers {
		errs = append(errs, c.Clear(ctx))
	}
	return errors.Join(errs...)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
