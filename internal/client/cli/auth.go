package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/matchmate/internal/common"
)

// getSimpleText, getPassword and getConfirmation are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getPassword     = GetPassword
	getConfirmation = GetConfirmation
)

// Register prompts the user for an email and password and attempts to create
// a new account via the AuthService.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is securely wiped before returning. Any I/O or service error is returned
// unchanged.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, email, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Success! You can log in now.")
	return nil
}

// Login prompts for credentials, exchanges them for a session and refreshes
// the per-user containers. The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, email, password); err != nil {
		return err
	}
	a.log.Info(ctx, "logged in", "user", a.session.Current().UserID())

	if err := a.profile.Load(ctx); err != nil {
		a.log.Warn(ctx, "profile load after login failed", "error", err)
	}
	if err := a.favorites.Load(ctx); err != nil {
		a.log.Warn(ctx, "favorites load after login failed", "error", err)
	}

	fmt.Fprintln(a.out, "Welcome,", a.displayName()+"!")
	return nil
}

// Logout ends the session and clears every per-user container. Removals that
// never reached the server are lost, so the user is asked first.
func (a *App) Logout(ctx context.Context) error {
	if n := len(a.favorites.Pending()); n > 0 {
		ok, err := getConfirmation(a.reader,
			fmt.Sprintf("%d favourite removals have not reached the server. Log out anyway?", n), a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Logout cancelled. Try 'reconcile' first.")
			return nil
		}
	}

	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// WhoAmI prints the current session.
func (a *App) WhoAmI(ctx context.Context) error {
	snap := a.session.Current()
	if !snap.Authenticated() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	id := snap.Identity
	if id == nil {
		fmt.Fprintln(a.out, "Logged in (no identity details).")
		return nil
	}
	fmt.Fprintf(a.out, "id:    %s\n", orDash(id.ID))
	fmt.Fprintf(a.out, "email: %s\n", orDash(id.Email))
	fmt.Fprintf(a.out, "role:  %s\n", orDash(id.Role))
	if id.Derived {
		fmt.Fprintln(a.out, "(details read from the access token, not verified)")
	}
	return nil
}

// Ping checks that the server answers its health endpoint.
func (a *App) Ping(ctx context.Context) error {
	if err := a.authService.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Server reachable.")
	return nil
}

func (a *App) displayName() string {
	if name := a.profile.Working().Trimmed("firstName"); name != "" {
		return name
	}
	snap := a.session.Current()
	if snap.Identity != nil && snap.Identity.Email != "" {
		return snap.Identity.Email
	}
	return "there"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
