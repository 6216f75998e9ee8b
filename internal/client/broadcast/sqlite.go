package broadcast

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dmitrijs2005/matchmate/internal/logging"
)

// OriginSQLitePoll marks events raised because the session rows changed on
// disk. It never equals a session manager's origin, so every manager
// re-reads on it, including the one that made the change.
const OriginSQLitePoll = "sqlite-poll"

// SQLiteBus lets client processes sharing one SQLite file observe each
// other's session changes. The database is the channel: every subscription
// polls the session rows and raises an event when their fingerprint moves.
// Published events are delivered in-process only.
type SQLiteBus struct {
	db        *sql.DB
	namespace string
	interval  time.Duration
	log       logging.Logger
	local     *LocalBus
}

func NewSQLiteBus(db *sql.DB, namespace string, interval time.Duration, log logging.Logger) *SQLiteBus {
	return &SQLiteBus{
		db:        db,
		namespace: namespace,
		interval:  interval,
		log:       log,
		local:     NewLocalBus(),
	}
}

func (b *SQLiteBus) Publish(ctx context.Context, ev Event) error {
	return b.local.Publish(ctx, ev)
}

// Subscribe starts a poller bound to ctx. The fingerprint taken here is the
// baseline; only later changes produce events.
func (b *SQLiteBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	last, err := b.fingerprint(ctx)
	if err != nil {
		return nil, err
	}
	in, err := b.local.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				send(out, ev)
			case <-ticker.C:
				fp, err := b.fingerprint(ctx)
				if err != nil {
					if ctx.Err() == nil {
						b.log.Warn(ctx, "session poll failed", "namespace", b.namespace, "err", err)
					}
					continue
				}
				if fp == last {
					continue
				}
				last = fp
				send(out, Event{Origin: OriginSQLitePoll, Topic: TopicSession, At: time.Now()})
			}
		}
	}()
	return out, nil
}

// Close ends every subscription. The database is owned by the caller.
func (b *SQLiteBus) Close() error {
	return b.local.Close()
}

// fingerprint summarises the namespace rows. The row count catches a
// logout, MAX(updated_at) and the value digest catch rewrites.
func (b *SQLiteBus) fingerprint(ctx context.Context) (string, error) {
	var (
		count   int
		updated sql.NullString
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(updated_at) FROM kv WHERE namespace = ?`, b.namespace,
	).Scan(&count, &updated)
	if err != nil {
		return "", fmt.Errorf("poll %s: %w", b.namespace, err)
	}

	rows, err := b.db.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE namespace = ? ORDER BY key`, b.namespace)
	if err != nil {
		return "", fmt.Errorf("poll %s: %w", b.namespace, err)
	}
	defer rows.Close()

	h := sha256.New()
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return "", fmt.Errorf("poll %s: %w", b.namespace, err)
		}
		fmt.Fprintf(h, "%s=%x;", key, value)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("poll %s: %w", b.namespace, err)
	}

	return fmt.Sprintf("%d|%s|%s", count, updated.String, hex.EncodeToString(h.Sum(nil))), nil
}

func send(out chan<- Event, ev Event) {
	select {
	case out <- ev:
	default:
	}
}
