// Package broadcast carries "something changed, re-read persisted state"
// signals between independent contexts: several views in one process
// (LocalBus), several processes sharing a Redis instance (RedisBus) or
// several processes sharing one SQLite file (SQLiteBus).
//
// Events are hints only. Receivers never trust event payloads and always
// re-read their persisted namespace.
package broadcast

import (
	"context"
	"time"
)

// TopicSession is published after every persisted session change.
const TopicSession = "session"

// Event identifies who changed what.
type Event struct {
	Origin string    `json:"origin"`
	Topic  string    `json:"topic"`
	At     time.Time `json:"at"`
}

// Bus publishes events to every subscriber, including the publisher's own
// subscriptions; receivers filter by Origin.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel that is closed when ctx is done.
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}
