// Package profile reconciles a locally edited profile against the backend.
//
// The engine keeps two snapshots: working (local edits) and baseline (last
// state confirmed by the server). Saving sends either a full create payload
// or a sparse diff, and on success rebinds both snapshots to the merged
// server state. Failures never roll back working.
package profile

import (
	"context"
	"fmt"
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

// Mode tells whether the next save creates or updates the profile.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

const snapshotKey = "snapshot"

type snapshot struct {
	Owner    string        `json:"owner"`
	Working  models.Record `json:"working"`
	Baseline models.Record `json:"baseline"`
}

type Engine struct {
	observe.Hub

	mu       sync.RWMutex
	working  models.Record
	baseline models.Record
	loaded   bool
	saving   bool
	errMsg   string

	session session.Accessor
	api     client.Client
	bucket  *kv.Bucket
	log     logging.Logger
}

func NewEngine(sess session.Accessor, api client.Client, bucket *kv.Bucket, log logging.Logger) *Engine {
	return &Engine{
		working:  models.Record{},
		baseline: models.Record{},
		session:  sess,
		api:      api,
		bucket:   bucket,
		log:      log.With("container", "profile"),
	}
}

// Load fetches the caller's own profile and installs it as both working
// and baseline. A profile that does not exist yet loads as empty.
func (e *Engine) Load(ctx context.Context) error {
	s := e.session.Current()
	if !s.Authenticated() {
		return common.ErrUnauthenticated
	}

	raw, err := e.api.GetMyProfile(ctx, s.Token)
	if err != nil {
		return e.fail(ctx, "load profile", err)
	}
	rec, err := DecodeRecord(raw)
	if err != nil {
		return e.fail(ctx, "load profile", err)
	}

	e.mu.Lock()
	e.working = rec.Clone()
	e.baseline = rec
	e.loaded = true
	e.errMsg = ""
	e.mu.Unlock()

	e.persist(ctx, s.UserID())
	e.Notify()
	return nil
}

// SetField edits working only. It never fails and never calls the backend.
func (e *Engine) SetField(ctx context.Context, name, value string) {
	e.mu.Lock()
	e.working[name] = value
	e.mu.Unlock()

	e.persist(ctx, e.session.Current().UserID())
	e.Notify()
}

// Save validates working and sends a create or sparse update request. An
// update with nothing changed is a no-op without any request.
func (e *Engine) Save(ctx context.Context) error {
	s := e.session.Current()
	if !s.Authenticated() {
		return common.ErrUnauthenticated
	}

	e.mu.RLock()
	working := e.working.Clone()
	baseline := e.baseline.Clone()
	e.mu.RUnlock()

	if missing := MissingMandatory(working); len(missing) > 0 {
		return common.NewValidationError("missing mandatory fields", missing...)
	}

	mode := modeOf(baseline)
	var (
		raw []byte
		err error
	)
	switch mode {
	case ModeUpdate:
		payload := UpdatePayload(baseline, working)
		if len(payload) == 0 {
			metrics.ProfileSavesTotal.WithLabelValues(string(mode), "noop").Inc()
			e.log.Debug(ctx, "nothing to save")
			return nil
		}
		e.setSaving(true)
		raw, err = e.api.UpdateProfile(ctx, s.Token, payload)
	default:
		e.setSaving(true)
		raw, err = e.api.CreateProfile(ctx, s.Token, CreatePayload(working))
	}
	e.setSaving(false)

	var server models.Record
	if err == nil {
		server, err = DecodeRecord(raw)
	}
	if err != nil {
		metrics.ProfileSavesTotal.WithLabelValues(string(mode), "error").Inc()
		return e.fail(ctx, "save profile", err)
	}

	merged := baseline.Clone()
	for k, v := range working {
		merged[k] = v
	}
	for k, v := range server {
		merged[k] = v
	}
	merged = normalize(merged)

	e.mu.Lock()
	e.working = merged.Clone()
	e.baseline = merged
	e.errMsg = ""
	e.mu.Unlock()

	metrics.ProfileSavesTotal.WithLabelValues(string(mode), "ok").Inc()
	e.log.Info(ctx, "profile saved", "mode", string(mode))
	e.persist(ctx, s.UserID())
	e.Notify()
	return nil
}

// Discard drops local edits by resetting working to baseline.
func (e *Engine) Discard(ctx context.Context) {
	e.mu.Lock()
	e.working = e.baseline.Clone()
	e.mu.Unlock()

	e.persist(ctx, e.session.Current().UserID())
	e.Notify()
}

// Restore reloads persisted snapshots. They are cleared instead when there
// is no session or they belong to another user.
func (e *Engine) Restore(ctx context.Context) error {
	var snap snapshot
	found, err := e.bucket.GetJSON(ctx, snapshotKey, &snap)
	if err != nil {
		e.log.Warn(ctx, "ignoring unreadable profile snapshot", "err", err)
		found = false
	}

	owner := e.session.Current().UserID()
	if !found || owner == "" || snap.Owner != owner {
		e.reset()
		if err := e.bucket.Clear(ctx); err != nil {
			return fmt.Errorf("clear profile snapshot: %w", err)
		}
		e.Notify()
		return nil
	}

	e.mu.Lock()
	e.working = snap.Working.Clone()
	e.baseline = snap.Baseline.Clone()
	e.loaded = true
	e.mu.Unlock()
	e.Notify()
	return nil
}

// Clear forgets both snapshots locally and in storage.
func (e *Engine) Clear(ctx context.Context) error {
	e.reset()
	e.Notify()
	return e.bucket.Clear(ctx)
}

func (e *Engine) Working() models.Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.working.Clone()
}

func (e *Engine) Baseline() models.Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.baseline.Clone()
}

// Loaded reports whether snapshots came from the backend or storage.
func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

func (e *Engine) Saving() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.saving
}

func (e *Engine) Mode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return modeOf(e.baseline)
}

// Err is the last recorded remote or response error, or "".
func (e *Engine) Err() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.errMsg
}

// Diff is what an update save would send, field by field.
func (e *Engine) Diff() []Change {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Changes(e.baseline, e.working)
}

func modeOf(baseline models.Record) Mode {
	if baseline.ID() != "" {
		return ModeUpdate
	}
	return ModeCreate
}

func (e *Engine) setSaving(v bool) {
	e.mu.Lock()
	e.saving = v
	e.mu.Unlock()
	e.Notify()
}

func (e *Engine) reset() {
	e.mu.Lock()
	e.working = models.Record{}
	e.baseline = models.Record{}
	e.loaded = false
	e.errMsg = ""
	e.mu.Unlock()
}

func (e *Engine) fail(ctx context.Context, op string, err error) error {
	msg := common.UserMessage(err)
	e.mu.Lock()
	e.errMsg = msg
	e.mu.Unlock()
	e.log.Warn(ctx, op+" failed", "err", err)
	e.Notify()
	return fmt.Errorf("%s: %w", op, err)
}

// persist stores snapshots tagged with their owner. Storage errors are
// logged; the in-memory state stays authoritative for this process.
func (e *Engine) persist(ctx context.Context, owner string) {
	if owner == "" {
		return
	}
	e.mu.RLock()
	snap := snapshot{Owner: owner, Working: e.working.Clone(), Baseline: e.baseline.Clone()}
	e.mu.RUnlock()
	if err := e.bucket.SetJSON(ctx, snapshotKey, snap); err != nil {
		e.log.Warn(ctx, "persisting profile snapshot failed", "err", err)
	}
}
