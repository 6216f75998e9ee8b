package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/matchmate/internal/client/client"
	"github.com/dmitrijs2005/matchmate/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Ping(ctx context.Context) error

	ShowProfile(ctx context.Context) error
	SetField(ctx context.Context, args []string) error
	SaveProfile(ctx context.Context) error
	DiscardProfile(ctx context.Context) error
	DiffProfile(ctx context.Context) error

	SetFilter(ctx context.Context, args []string) error
	ShowFilters(ctx context.Context) error
	Search(ctx context.Context, args []string) error
	NextPage(ctx context.Context) error
	PrevPage(ctx context.Context) error
	ResetSearch(ctx context.Context) error

	ListFavorites(ctx context.Context) error
	AddFavorite(ctx context.Context, args []string) error
	RemoveFavorite(ctx context.Context, args []string) error
	ToggleFavorite(ctx context.Context, args []string) error
	Reconcile(ctx context.Context) error
}

type command struct {
	name  string
	usage string
	auth  bool
	run   func(ctx context.Context, a execIface, args []string) error
}

// commands is the REPL dispatch table, in help order.
var commands = []command{
	{"register", "register             create an account", false,
		func(ctx context.Context, a execIface, _ []string) error { return a.Register(ctx) }},
	{"login", "login                sign in", false,
		func(ctx context.Context, a execIface, _ []string) error { return a.Login(ctx) }},
	{"logout", "logout               sign out and forget local state", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.Logout(ctx) }},
	{"whoami", "whoami               show the signed-in user", false,
		func(ctx context.Context, a execIface, _ []string) error { return a.WhoAmI(ctx) }},
	{"ping", "ping                 check the server is reachable", false,
		func(ctx context.Context, a execIface, _ []string) error { return a.Ping(ctx) }},
	{"profile", "profile              show your profile draft", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.ShowProfile(ctx) }},
	{"set", "set <field> [value]  edit a profile field", true,
		func(ctx context.Context, a execIface, args []string) error { return a.SetField(ctx, args) }},
	{"save", "save                 send profile changes", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.SaveProfile(ctx) }},
	{"discard", "discard              drop unsaved profile edits", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.DiscardProfile(ctx) }},
	{"diff", "diff                 show unsaved profile edits", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.DiffProfile(ctx) }},
	{"filter", "filter <name> [value] set or clear a search filter", true,
		func(ctx context.Context, a execIface, args []string) error { return a.SetFilter(ctx, args) }},
	{"filters", "filters              show search filters", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.ShowFilters(ctx) }},
	{"search", "search [page]        run the search", true,
		func(ctx context.Context, a execIface, args []string) error { return a.Search(ctx, args) }},
	{"next", "next                 next results page", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.NextPage(ctx) }},
	{"prev", "prev                 previous results page", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.PrevPage(ctx) }},
	{"reset", "reset                clear filters and results", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.ResetSearch(ctx) }},
	{"favs", "favs                 list favourites", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.ListFavorites(ctx) }},
	{"fav", "fav <id>             add a favourite", true,
		func(ctx context.Context, a execIface, args []string) error { return a.AddFavorite(ctx, args) }},
	{"unfav", "unfav <id>           remove a favourite", true,
		func(ctx context.Context, a execIface, args []string) error { return a.RemoveFavorite(ctx, args) }},
	{"toggle", "toggle <id>          add or remove a favourite", true,
		func(ctx context.Context, a execIface, args []string) error { return a.ToggleFavorite(ctx, args) }},
	{"reconcile", "reconcile            retry failed removals and refresh", true,
		func(ctx context.Context, a execIface, _ []string) error { return a.Reconcile(ctx) }},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printHelp(loggedIn bool) {
	printlnFn("Commands:")
	for _, c := range commands {
		if c.auth && !loggedIn {
			continue
		}
		printlnFn("  " + c.usage)
	}
	printlnFn("  help                 show this list")
	printlnFn("  exit | quit          leave the program")
}

// runREPL starts a simple read-eval-print loop for the matchmate CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Commands that need a session are
// refused until the user logs in. Errors returned by a command are printed
// and the loop continues. The loop exits on scanner EOF, when ctx is done or
// when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	printlnFn("Type 'help' for commands.")

	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Printf("mm %s> ", statusFn())
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		name, args := strings.ToLower(fields[0]), fields[1:]

		switch name {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "help":
			printHelp(a.isLoggedIn())
			continue
		}

		cmd, ok := lookup(name)
		if !ok {
			printlnFn("Unknown command:", name)
			continue
		}
		if cmd.auth && !a.isLoggedIn() {
			printlnFn("Please log in first.")
			continue
		}
		if err := cmd.run(ctx, a, args); err != nil {
			printlnFn("Error:", userError(err))
		}
	}
}

// Root runs the REPL on stdin with the session status as the prompt.
func (a *App) Root(ctx context.Context) {
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) status() string {
	snap := a.session.Current()
	if !snap.Authenticated() {
		return "(guest)"
	}
	label := snap.UserID()
	if snap.Identity != nil && snap.Identity.Email != "" {
		label = snap.Identity.Email
	}
	if n := len(a.favorites.Pending()); n > 0 {
		return fmt.Sprintf("(%s, %d pending)", label, n)
	}
	return "(" + label + ")"
}

// usageError reports a command invoked with the wrong arguments.
type usageError string

func (e usageError) Error() string { return "usage: " + string(e) }

// userError renders err for the terminal.
func userError(err error) string {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		return usage.Error()
	case errors.Is(err, common.ErrUnauthenticated):
		return "please log in first"
	case errors.Is(err, common.ErrBusy):
		return "the previous request is still running"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, client.ErrPaymentRequired):
		return "this feature needs an active membership"
	}
	return common.UserMessage(err)
}
