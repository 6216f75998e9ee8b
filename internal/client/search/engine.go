// Package search builds validated queries from sparse filters and
// normalizes search responses whose envelope shape varies between backend
// versions.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/matchmate/internal/client/client"
	"github.com/dmitrijs2005/matchmate/internal/client/metrics"
	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/client/observe"
	"github.com/dmitrijs2005/matchmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/matchmate/internal/client/session"
	"github.com/dmitrijs2005/matchmate/internal/common"
	"github.com/dmitrijs2005/matchmate/internal/logging"
)

var ErrNoMorePages = errors.New("no more pages")

const filtersKey = "filters"

var profileIncompleteHints = []string{"gender", "profile", "complete", "missing"}

type persistedFilters struct {
	Owner   string         `json:"owner"`
	Filters models.Filters `json:"filters"`
}

type Engine struct {
	observe.Hub

	mu      sync.RWMutex
	filters models.Filters
	results []models.Result
	meta    models.Meta
	errMsg  string
	loading bool

	pageSize int
	session  session.Accessor
	api      client.Client
	bucket   *kv.Bucket
	log      logging.Logger
}

type Option func(*Engine)

// WithDefaultPageSize sets the page size used when no pageSize filter is set.
func WithDefaultPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

func NewEngine(sess session.Accessor, api client.Client, bucket *kv.Bucket, log logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		filters:  models.Filters{},
		pageSize: DefaultPageSize,
		session:  sess,
		api:      api,
		bucket:   bucket,
		log:      log.With("container", "search"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetFilter changes one filter locally and persists the filter set. It
// never fails; storage errors are logged.
func (e *Engine) SetFilter(ctx context.Context, name, value string) {
	e.mu.Lock()
	e.filters[name] = value
	e.mu.Unlock()

	e.persist(ctx)
	e.Notify()
}

// Search runs the query for page with the current filters.
func (e *Engine) Search(ctx context.Context, page int) error {
	s := e.session.Current()
	if !s.Authenticated() {
		return common.ErrUnauthenticated
	}

	filters := e.Filters()
	query, err := BuildQuery(filters, page, e.pageSize)
	if err != nil {
		return err
	}
	if page < 1 {
		page = 1
	}
	pageSize := PageSize(filters, e.pageSize)

	e.setLoading(true)
	raw, err := e.api.Search(ctx, s.Token, query)
	e.setLoading(false)
	if err != nil {
		return e.fail(ctx, err, nil)
	}

	env, err := ParseEnvelope(raw)
	if env == nil {
		return e.fail(ctx, err, []models.Result{})
	}
	metrics.SearchEnvelopeShapeTotal.WithLabelValues(string(env.Shape)).Inc()
	switch env.Shape {
	case ShapeBestEffort:
		e.log.Warn(ctx, "search results found by best-effort scan", "count", len(env.Records))
	case ShapePromoted:
		e.log.Info(ctx, "single search result promoted from bare object")
	}

	if !env.StatusOK() {
		statusErr := fmt.Errorf("%w %q", common.ErrUnrecognizedStatus, env.Status)
		if env.Message != "" {
			statusErr = fmt.Errorf("%w: %s", statusErr, env.Message)
		}
		return e.fail(ctx, statusErr, []models.Result{})
	}
	if err != nil {
		return e.fail(ctx, err, []models.Result{})
	}

	results := Project(env.Records)
	meta := completeMeta(env.Meta, env.HasMeta, page, pageSize, len(results))

	e.mu.Lock()
	e.results = results
	e.meta = meta
	e.errMsg = ""
	e.mu.Unlock()

	e.log.Debug(ctx, "search done", "page", meta.CurrentPage, "results", len(results), "shape", string(env.Shape))
	e.Notify()
	return nil
}

// Next loads the following page of the current result set.
func (e *Engine) Next(ctx context.Context) error {
	m := e.Meta()
	if m.CurrentPage == 0 || m.CurrentPage >= m.LastPage {
		return ErrNoMorePages
	}
	return e.Search(ctx, m.CurrentPage+1)
}

// Prev loads the preceding page of the current result set.
func (e *Engine) Prev(ctx context.Context) error {
	m := e.Meta()
	if m.CurrentPage <= 1 {
		return ErrNoMorePages
	}
	return e.Search(ctx, m.CurrentPage-1)
}

// Reset clears filters, results, error and metadata in one step.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	e.filters = models.Filters{}
	e.results = nil
	e.meta = models.Meta{}
	e.errMsg = ""
	e.mu.Unlock()

	e.Notify()
	return e.bucket.Clear(ctx)
}

// Clear is Reset under the name shared by the per-user containers.
func (e *Engine) Clear(ctx context.Context) error { return e.Reset(ctx) }

// Restore reloads persisted filters. They are cleared instead when there
// is no session or they belong to another user.
func (e *Engine) Restore(ctx context.Context) error {
	var p persistedFilters
	found, err := e.bucket.GetJSON(ctx, filtersKey, &p)
	if err != nil {
		e.log.Warn(ctx, "ignoring unreadable search filters", "err", err)
		found = false
	}

	owner := e.session.Current().UserID()
	if !found || owner == "" || p.Owner != owner {
		return e.Reset(ctx)
	}

	e.mu.Lock()
	e.filters = p.Filters.Clone()
	e.mu.Unlock()
	e.Notify()
	return nil
}

func (e *Engine) Filters() models.Filters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.filters.Clone()
}

func (e *Engine) Results() []models.Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.Result(nil), e.results...)
}

func (e *Engine) Meta() models.Meta {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.meta
}

func (e *Engine) Err() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.errMsg
}

func (e *Engine) Loading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

// UserFacingMessage replaces messages hinting at an incomplete profile with
// a single prompt to complete it.
func UserFacingMessage(msg string) string {
	lower := strings.ToLower(msg)
	for _, hint := range profileIncompleteHints {
		if strings.Contains(lower, hint) {
			return common.ProfileIncompleteMessage
		}
	}
	return msg
}

func completeMeta(m models.Meta, ok bool, page, pageSize, count int) models.Meta {
	if !ok {
		return models.Meta{CurrentPage: page, LastPage: 1, PerPage: pageSize, Total: count}
	}
	if m.CurrentPage == 0 {
		m.CurrentPage = page
	}
	if m.PerPage == 0 {
		m.PerPage = pageSize
	}
	if m.LastPage == 0 {
		m.LastPage = max(1, (m.Total+m.PerPage-1)/m.PerPage)
	}
	return m
}

func (e *Engine) setLoading(v bool) {
	e.mu.Lock()
	e.loading = v
	e.mu.Unlock()
	e.Notify()
}

// fail records err as the user-facing error. A non-nil results replaces
// the current list.
func (e *Engine) fail(ctx context.Context, err error, results []models.Result) error {
	msg := UserFacingMessage(common.UserMessage(err))
	e.mu.Lock()
	e.errMsg = msg
	if results != nil {
		e.results = results
		e.meta = models.Meta{}
	}
	e.mu.Unlock()
	e.log.Warn(ctx, "search failed", "err", err)
	e.Notify()
	return fmt.Errorf("search: %w", err)
}

func (e *Engine) persist(ctx context.Context) {
	owner := e.session.Current().UserID()
	if owner == "" {
		return
	}
	p := persistedFilters{Owner: owner, Filters: e.Filters()}
	if err := e.bucket.SetJSON(ctx, filtersKey, p); err != nil {
		e.log.Warn(ctx, "persisting search filters failed", "err", err)
	}
}
