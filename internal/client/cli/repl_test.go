package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/matchmate/internal/client/client"
	"github.com/dmitrijs2005/matchmate/internal/common"
)

type fakeExec struct {
	loggedIn bool
	failWith error

	calls []string
	args  [][]string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.failWith
}

func (f *fakeExec) Register(ctx context.Context) error { return f.record("register", nil) }
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) WhoAmI(ctx context.Context) error         { return f.record("whoami", nil) }
func (f *fakeExec) Ping(ctx context.Context) error           { return f.record("ping", nil) }
func (f *fakeExec) ShowProfile(ctx context.Context) error    { return f.record("profile", nil) }
func (f *fakeExec) SaveProfile(ctx context.Context) error    { return f.record("save", nil) }
func (f *fakeExec) DiscardProfile(ctx context.Context) error { return f.record("discard", nil) }
func (f *fakeExec) DiffProfile(ctx context.Context) error    { return f.record("diff", nil) }
func (f *fakeExec) ShowFilters(ctx context.Context) error    { return f.record("filters", nil) }
func (f *fakeExec) NextPage(ctx context.Context) error       { return f.record("next", nil) }
func (f *fakeExec) PrevPage(ctx context.Context) error       { return f.record("prev", nil) }
func (f *fakeExec) ResetSearch(ctx context.Context) error    { return f.record("reset", nil) }
func (f *fakeExec) ListFavorites(ctx context.Context) error  { return f.record("favs", nil) }
func (f *fakeExec) Reconcile(ctx context.Context) error      { return f.record("reconcile", nil) }
func (f *fakeExec) SetField(ctx context.Context, args []string) error {
	return f.record("set", args)
}
func (f *fakeExec) SetFilter(ctx context.Context, args []string) error {
	return f.record("filter", args)
}
func (f *fakeExec) Search(ctx context.Context, args []string) error {
	return f.record("search", args)
}
func (f *fakeExec) AddFavorite(ctx context.Context, args []string) error {
	return f.record("fav", args)
}
func (f *fakeExec) RemoveFavorite(ctx context.Context, args []string) error {
	return f.record("unfav", args)
}
func (f *fakeExec) ToggleFavorite(ctx context.Context, args []string) error {
	return f.record("toggle", args)
}

// capturePrints swaps printlnFn for a recorder for the duration of the test.
func capturePrints(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func run(t *testing.T, exec *fakeExec, lines ...string) {
	t.Helper()
	sc := bufio.NewScanner(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), exec, func() string { return "status" }, sc)
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	capturePrints(t)

	exec := &fakeExec{}
	run(t, exec,
		"help",
		"login",
		"set city Riga",
		"filter minAge 25",
		"search 2",
		"fav p1",
		"toggle p2",
		"",
		"reconcile",
		"logout",
		"exit",
	)

	assert.Equal(t, []string{"login", "set", "filter", "search", "fav", "toggle", "reconcile", "logout"}, exec.calls)
	assert.Equal(t, []string{"city", "Riga"}, exec.args[1])
	assert.Equal(t, []string{"minAge", "25"}, exec.args[2])
	assert.Equal(t, []string{"2"}, exec.args[3])
}

func TestRunREPL_AuthOnlyCommandsNeedLogin(t *testing.T) {
	lines := capturePrints(t)

	exec := &fakeExec{}
	run(t, exec, "search", "favs", "whoami", "ping", "quit")

	assert.Equal(t, []string{"whoami", "ping"}, exec.calls)
	assert.Contains(t, *lines, "Please log in first.")
}

func TestRunREPL_UnknownCommandAndQuit(t *testing.T) {
	lines := capturePrints(t)

	exec := &fakeExec{loggedIn: true}
	run(t, exec, "foobar", "quit", "favs")

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "Unknown command: foobar")
	assert.Contains(t, *lines, "Bye!")
}

func TestRunREPL_PrintsCommandErrors(t *testing.T) {
	lines := capturePrints(t)

	exec := &fakeExec{loggedIn: true, failWith: common.ErrBusy}
	run(t, exec, "save")

	require.Equal(t, []string{"save"}, exec.calls)
	assert.Contains(t, *lines, "Error: the previous request is still running")
}

func TestRunREPL_StopsWhenContextDone(t *testing.T) {
	capturePrints(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{loggedIn: true}
	sc := bufio.NewScanner(strings.NewReader("favs\n"))
	runREPL(ctx, exec, func() string { return "" }, sc)

	assert.Empty(t, exec.calls)
}

func TestPrintHelp_HidesAuthCommandsForGuests(t *testing.T) {
	lines := capturePrints(t)
	printHelp(false)
	joined := strings.Join(*lines, "\n")
	assert.Contains(t, joined, "login")
	assert.NotContains(t, joined, "reconcile")

	*lines = nil
	printHelp(true)
	assert.Contains(t, strings.Join(*lines, "\n"), "reconcile")
}

func TestUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"usage", fmt.Errorf("wrapped: %w", usageError("fav <id>")), "usage: fav <id>"},
		{"unauthenticated", common.ErrUnauthenticated, "please log in first"},
		{"unavailable", fmt.Errorf("load: %w", client.ErrUnavailable), "server unavailable, try again later"},
		{"payment", &client.RemoteError{StatusCode: 402, Message: "upgrade"}, "this feature needs an active membership"},
		{"remote", fmt.Errorf("save: %w", &client.RemoteError{StatusCode: 422, Message: "city is invalid"}), "city is invalid"},
		{"shown", &shownError{msg: "Please complete your profile before searching.", err: common.ErrRemoteRejected},
			"Please complete your profile before searching."},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userError(tt.err))
		})
	}
}
