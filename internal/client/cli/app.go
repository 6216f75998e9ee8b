package cli

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/matchmate/internal/client/broadcast"
	"github.com/dmitrijs2005/matchmate/internal/client/client"
	"github.com/dmitrijs2005/matchmate/internal/client/config"
	"github.com/dmitrijs2005/matchmate/internal/client/favorites"
	"github.com/dmitrijs2005/matchmate/internal/client/guard"
	"github.com/dmitrijs2005/matchmate/internal/client/profile"
	"github.com/dmitrijs2005/matchmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/matchmate/internal/client/search"
	"github.com/dmitrijs2005/matchmate/internal/client/services"
	"github.com/dmitrijs2005/matchmate/internal/client/session"
	"github.com/dmitrijs2005/matchmate/internal/cryptox"
	"github.com/dmitrijs2005/matchmate/internal/logging"
)

const (
	saltKey    = "salt"
	saltLength = 16

	sessionPollInterval = time.Second
)

// App is the interactive client: the four state containers, the auth
// service that drives the session, and the REPL commands on top.
type App struct {
	config      *config.Config
	log         logging.Logger
	authService services.AuthService
	session     *session.Manager
	profile     *profile.Engine
	search      *search.Engine
	favorites   *favorites.Manager
	reader      *bufio.Reader
	out         io.Writer

	saveGuard   guard.Flag
	searchGuard guard.Flag

	closers []func() error
}

// deps is everything NewApp builds from configuration. Tests assemble it
// directly with in-memory stores and a fake client.
type deps struct {
	repo   kv.Repository
	bus    broadcast.Bus
	api    client.Client
	sealer *cryptox.Sealer
}

// NewApp opens the configured store and event bus, builds the HTTP client
// and wires the containers. Resources are released by Close.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	d, closers, err := openStore(ctx, c, log)
	if err != nil {
		return nil, err
	}

	fail := func(err error) (*App, error) {
		for _, fn := range closers {
			_ = fn()
		}
		return nil, err
	}

	api, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, client.WithLogger(log))
	if err != nil {
		return fail(err)
	}
	d.api = api

	if c.SessionSecret != "" {
		salt, err := loadOrCreateSalt(ctx, kv.NewBucket(d.repo, kv.NamespaceKeyring))
		if err != nil {
			return fail(fmt.Errorf("session key salt: %w", err))
		}
		sealer, err := cryptox.NewSealer([]byte(c.SessionSecret), salt)
		if err != nil {
			return fail(fmt.Errorf("session sealer: %w", err))
		}
		d.sealer = sealer
	}

	a := newApp(c, log, d)
	a.closers = append(a.closers, closers...)
	return a, nil
}

func newApp(c *config.Config, log logging.Logger, d deps) *App {
	var opts []session.Option
	if d.sealer != nil {
		opts = append(opts, session.WithSealer(d.sealer))
	}
	sess := session.NewManager(kv.NewBucket(d.repo, kv.NamespaceSession), d.bus, log, opts...)

	pe := profile.NewEngine(sess, d.api, kv.NewBucket(d.repo, kv.NamespaceProfile), log)
	se := search.NewEngine(sess, d.api, kv.NewBucket(d.repo, kv.NamespaceSearch), log,
		search.WithDefaultPageSize(c.PageSize))
	fm := favorites.NewManager(sess, d.api, kv.NewBucket(d.repo, kv.NamespaceFavorites), log)

	return &App{
		config:      c,
		log:         log.With("component", "cli"),
		authService: services.NewAuthService(d.api, sess, pe, se, fm),
		session:     sess,
		profile:     pe,
		search:      se,
		favorites:   fm,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
}

// openStore picks the key-value backend and the cross-process event bus.
// Redis, when configured, carries session events even for a SQLite store;
// otherwise a SQLite store is polled for session changes.
func openStore(ctx context.Context, c *config.Config, log logging.Logger) (deps, []func() error, error) {
	var (
		d       deps
		closers []func() error
		rdb     *redis.Client
		db      *sql.DB
	)

	if c.Store == config.StoreRedis || c.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return deps{}, nil, fmt.Errorf("redis %s: %w", c.RedisAddr, err)
		}
		closers = append(closers, rdb.Close)
	}

	switch c.Store {
	case config.StoreSQLite:
		var err error
		db, err = client.InitDatabase(ctx, c.DatabaseDSN)
		if err != nil {
			for _, fn := range closers {
				_ = fn()
			}
			return deps{}, nil, err
		}
		closers = append(closers, db.Close)
		d.repo = kv.NewSQLiteRepository(db)
	case config.StoreRedis:
		d.repo = kv.NewRedisRepository(rdb, c.RedisPrefix)
	default:
		d.repo = kv.NewMemoryRepository()
	}

	switch {
	case rdb != nil:
		d.bus = broadcast.NewRedisBus(rdb, c.RedisPrefix+":events", log)
	case db != nil:
		poll := broadcast.NewSQLiteBus(db, kv.NamespaceSession, sessionPollInterval, log)
		closers = append(closers, poll.Close)
		d.bus = poll
	default:
		local := broadcast.NewLocalBus()
		closers = append(closers, local.Close)
		d.bus = local
	}

	return d, closers, nil
}

// loadOrCreateSalt returns the key-derivation salt stored on this device,
// generating it on first use. It lives outside the session namespace so that
// logout does not rotate it.
func loadOrCreateSalt(ctx context.Context, b *kv.Bucket) ([]byte, error) {
	salt, err := b.Get(ctx, saltKey)
	if err != nil {
		return nil, err
	}
	if len(salt) == saltLength {
		return salt, nil
	}

	salt = make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	if err := b.Set(ctx, saltKey, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Bootstrap hydrates the session, restores every container from local
// storage and, when signed in and the server answers, refreshes profile and
// favourites. Refresh failures are reported but do not stop the client.
func (a *App) Bootstrap(ctx context.Context) {
	if err := a.session.Hydrate(ctx); err != nil {
		a.log.Warn(ctx, "session hydrate failed", "error", err)
	}
	a.restoreAll(ctx)

	if !a.session.Current().Authenticated() {
		return
	}
	if err := a.authService.Ping(ctx); err != nil {
		a.log.Warn(ctx, "server unreachable, keeping cached state", "error", err)
		fmt.Fprintln(a.out, "Server unreachable, showing cached data.")
		return
	}
	if err := a.profile.Load(ctx); err != nil {
		a.log.Warn(ctx, "profile refresh failed", "error", err)
	}
	if err := a.favorites.Load(ctx); err != nil {
		a.log.Warn(ctx, "favorites refresh failed", "error", err)
	}
}

// restoreAll re-reads every container from storage. Each container drops
// state owned by someone other than the current user.
func (a *App) restoreAll(ctx context.Context) {
	if err := a.profile.Restore(ctx); err != nil {
		a.log.Warn(ctx, "profile restore failed", "error", err)
	}
	if err := a.search.Restore(ctx); err != nil {
		a.log.Warn(ctx, "search restore failed", "error", err)
	}
	if err := a.favorites.Restore(ctx); err != nil {
		a.log.Warn(ctx, "favorites restore failed", "error", err)
	}
}

// Run bootstraps the client, follows session changes made by other
// processes and blocks in the REPL until the user exits or ctx ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.Bootstrap(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := a.followSession(ctx)
	defer unsubscribe()

	go func() {
		if err := a.session.Watch(ctx); err != nil {
			a.log.Warn(ctx, "session watch stopped", "error", err)
		}
	}()

	a.Root(ctx)
}

// followSession re-scopes the containers whenever the signed-in user
// changes, including sign-outs performed in another process.
func (a *App) followSession(ctx context.Context) func() {
	var mu sync.Mutex
	owner := a.session.Current().UserID()
	return a.session.Subscribe(func() {
		mu.Lock()
		defer mu.Unlock()
		next := a.session.Current().UserID()
		if next == owner {
			return
		}
		owner = next
		a.restoreAll(ctx)
	})
}

// Close releases the store and bus.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.session.Current().Authenticated()
}
