package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/client/search"
	"github.com/dmitrijs2005/matchmate/internal/common"
)

// shownError replaces the text of a wrapped error with the message a
// container chose to display, keeping the chain for errors.Is.
type shownError struct {
	msg string
	err error
}

func (e *shownError) Error() string       { return e.msg }
func (e *shownError) Unwrap() error       { return e.err }
func (e *shownError) UserMessage() string { return e.msg }

// SetFilter sets a search filter; without a value the filter is cleared.
func (a *App) SetFilter(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("filter <name> [value]")
	}
	name := args[0]
	if !search.IsKnownFilter(name) {
		return fmt.Errorf("unknown filter %q, one of: %s", name, strings.Join(search.FilterNames, ", "))
	}
	a.search.SetFilter(ctx, name, strings.Join(args[1:], " "))
	return nil
}

// ShowFilters prints the filters that are set.
func (a *App) ShowFilters(ctx context.Context) error {
	f := a.search.Filters()
	shown := 0
	for _, name := range search.FilterNames {
		if v := strings.TrimSpace(f[name]); v != "" {
			fmt.Fprintf(a.out, "  %-17s %s\n", name, v)
			shown++
		}
	}
	if shown == 0 {
		fmt.Fprintln(a.out, "No filters set. Age bounds are required, e.g. 'filter minAge 25'.")
	}
	return nil
}

// Search runs the search, on the given page when one is passed.
func (a *App) Search(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return usageError("search [page]")
		}
		page = n
	}
	return a.runSearch(func() error { return a.search.Search(ctx, page) })
}

// NextPage loads the following results page.
func (a *App) NextPage(ctx context.Context) error {
	return a.runSearch(func() error { return a.search.Next(ctx) })
}

// PrevPage loads the preceding results page.
func (a *App) PrevPage(ctx context.Context) error {
	return a.runSearch(func() error { return a.search.Prev(ctx) })
}

// ResetSearch clears filters and results.
func (a *App) ResetSearch(ctx context.Context) error {
	if err := a.search.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Search reset.")
	return nil
}

func (a *App) runSearch(fn func() error) error {
	err := a.searchGuard.Run(fn)
	switch {
	case errors.Is(err, search.ErrNoMorePages):
		fmt.Fprintln(a.out, "No more pages.")
		return nil
	case err != nil:
		if msg := a.search.Err(); msg != "" && isRemoteFailure(err) {
			return &shownError{msg: msg, err: err}
		}
		return err
	}

	a.printResults(a.search.Results(), a.search.Meta())
	return nil
}

// isRemoteFailure reports errors the search engine recorded as its
// displayed error message.
func isRemoteFailure(err error) bool {
	return errors.Is(err, common.ErrRemoteRejected) ||
		errors.Is(err, common.ErrUnrecognizedStatus) ||
		errors.Is(err, common.ErrMalformedResponse)
}

func (a *App) printResults(results []models.Result, meta models.Meta) {
	if len(results) == 0 {
		fmt.Fprintln(a.out, "No matches.")
		return
	}

	offset := (meta.CurrentPage - 1) * meta.PerPage
	for i, r := range results {
		fav := " "
		if a.favorites.Has(r.User.ID) {
			fav = "♥"
		}
		fmt.Fprintf(a.out, "%s %3d. %s (%s)\n", fav, offset+i+1, describeResult(r.Profile), r.User.ID)
	}
	fmt.Fprintf(a.out, "Page %d of %d, %d total\n", meta.CurrentPage, meta.LastPage, meta.Total)
}

func describeResult(p models.ResultProfile) string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		name = "Anonymous"
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
