package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
)

// ListFavorites refreshes and prints the favourites.
func (a *App) ListFavorites(ctx context.Context) error {
	if err := a.favorites.Load(ctx); err != nil {
		a.log.Warn(ctx, "favorites refresh failed, showing cached list", "error", err)
		fmt.Fprintln(a.out, "Could not refresh:", userError(err))
	}

	items := a.favorites.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No favourites yet.")
	}
	for _, f := range items {
		fmt.Fprintf(a.out, "  %s  %s%s\n", f.TargetID, describeFavorite(f.Profile), added(f))
	}
	if pending := a.favorites.Pending(); len(pending) > 0 {
		fmt.Fprintf(a.out, "%s not yet confirmed by the server: %s\n",
			humanize.Comma(int64(len(pending))), strings.Join(pending, ", "))
	}
	return nil
}

// AddFavorite adds the given profile to favourites.
func (a *App) AddFavorite(ctx context.Context, args []string) error {
	id, err := targetArg(args, "fav <id>")
	if err != nil {
		return err
	}
	if err := a.favorites.Add(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Added", id, "to favourites.")
	return nil
}

// RemoveFavorite removes the given profile from favourites. The entry
// disappears at once; a failed request is kept for 'reconcile'.
func (a *App) RemoveFavorite(ctx context.Context, args []string) error {
	id, err := targetArg(args, "unfav <id>")
	if err != nil {
		return err
	}
	if err := a.favorites.Remove(ctx, id); err != nil {
		if slices.Contains(a.favorites.Pending(), id) {
			fmt.Fprintln(a.out, "Removal queued, run 'reconcile' to retry.")
		}
		return err
	}
	fmt.Fprintln(a.out, "Removed", id, "from favourites.")
	return nil
}

// ToggleFavorite flips membership of the given profile.
func (a *App) ToggleFavorite(ctx context.Context, args []string) error {
	id, err := targetArg(args, "toggle <id>")
	if err != nil {
		return err
	}
	if err := a.favorites.Toggle(ctx, id); err != nil {
		return err
	}
	if a.favorites.Has(id) {
		fmt.Fprintln(a.out, "Added", id, "to favourites.")
	} else {
		fmt.Fprintln(a.out, "Removed", id, "from favourites.")
	}
	return nil
}

// Reconcile retries queued removals and refreshes the list.
func (a *App) Reconcile(ctx context.Context) error {
	before := len(a.favorites.Pending())
	err := a.favorites.Reconcile(ctx)
	after := len(a.favorites.Pending())
	fmt.Fprintf(a.out, "%d of %d queued removals confirmed.\n", before-after, before)
	return err
}

func targetArg(args []string, usage string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", usageError(usage)
	}
	return strings.TrimSpace(args[0]), nil
}

func describeFavorite(p models.FavoriteProfile) string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		name = "Unknown"
	}
	parts := []string{name}
	if p.Age > 0 {
		parts = append(parts, strconv.Itoa(p.Age))
	}
	if p.City != "" {
		parts = append(parts, p.City)
	}
	return strings.Join(parts, ", ")
}

func added(f models.Favorite) string {
	if f.CreatedAt.IsZero() {
		return ""
	}
	return ", added " + humanize.Time(f.CreatedAt)
}
