package broadcast

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/matchmate/internal/logging"

	_ "modernc.org/sqlite"
)

const pollInterval = 20 * time.Millisecond

// openShared opens two independent handles on one database file, the way
// two client processes would.
func openShared(t *testing.T) (*sql.DB, *sql.DB) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "shared.db") + "?_pragma=busy_timeout(5000)"

	open := func() *sql.DB {
		db, err := sql.Open("sqlite", dsn)
		require.NoError(t, err)
		db.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = db.Close() })
		return db
	}
	a, b := open(), open()

	_, err := a.Exec(`
CREATE TABLE kv (
  namespace  TEXT NOT NULL,
  key        TEXT NOT NULL,
  value      BLOB NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (namespace, key)
);`)
	require.NoError(t, err)
	return a, b
}

func noEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(5 * pollInterval):
	}
}

func TestSQLiteBus_RaisesEventOnForeignWrite(t *testing.T) {
	writer, reader := openShared(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewSQLiteBus(reader, "session", pollInterval, logging.Nop())
	defer bus.Close()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	noEvent(t, ch)

	_, err = writer.Exec(`INSERT INTO kv(namespace, key, value) VALUES ('session', 'token', 'abc')`)
	require.NoError(t, err)
	ev := receive(t, ch)
	require.Equal(t, OriginSQLitePoll, ev.Origin)
	require.Equal(t, TopicSession, ev.Topic)

	// same length, same second: only the value digest differs
	_, err = writer.Exec(`UPDATE kv SET value = 'xyz' WHERE namespace = 'session' AND key = 'token'`)
	require.NoError(t, err)
	require.Equal(t, OriginSQLitePoll, receive(t, ch).Origin)

	_, err = writer.Exec(`DELETE FROM kv WHERE namespace = 'session'`)
	require.NoError(t, err)
	require.Equal(t, OriginSQLitePoll, receive(t, ch).Origin)
}

func TestSQLiteBus_IgnoresOtherNamespaces(t *testing.T) {
	writer, reader := openShared(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewSQLiteBus(reader, "session", pollInterval, logging.Nop())
	defer bus.Close()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	_, err = writer.Exec(`INSERT INTO kv(namespace, key, value) VALUES ('favorites', 'items', '[]')`)
	require.NoError(t, err)
	noEvent(t, ch)
}

func TestSQLiteBus_PublishIsDeliveredLocally(t *testing.T) {
	_, db := openShared(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewSQLiteBus(db, "session", time.Hour, logging.Nop())
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, Event{Origin: "tab-1", Topic: TopicSession}))
	require.Equal(t, "tab-1", receive(t, ch).Origin)

	require.NoError(t, bus.Close())
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
