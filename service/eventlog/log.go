package eventlog

import (
	"context"
	"errors"

	"github.com/complianceworxs/govledger/model/event"
)

// ErrClosed is returned by Append once the log has been closed.
var ErrClosed = errors.New("event log is closed")

// Log is the append-only ledger contract. Append must be atomic per record
// (one line, one write, flushed); replay must skip records it cannot decode
// so that a torn trailing write never makes the history unreadable.
type Log interface {
	// Append durably writes one event. Any storage error is a hard failure
	// for the caller; an event is never silently dropped.
	Append(ctx context.Context, ev *event.Event) error

	// Replay streams every decodable event in append order. Returning false
	// from visit stops the replay early.
	Replay(ctx context.Context, visit func(ev *event.Event) bool) error

	// ReadAll returns every decodable event in append order.
	ReadAll(ctx context.Context) ([]*event.Event, error)

	// ReadTail returns the last n decodable events, oldest first.
	ReadTail(ctx context.Context, n int) ([]*event.Event, error)

	// SkippedRecords reports how many undecodable records replays have
	// encountered so far, for operational alerting.
	SkippedRecords() int64
}

// ReadAll implements Log.ReadAll on top of Replay; shared by the built-in
// implementations.
func ReadAll(ctx context.Context, l Log) ([]*event.Event, error) {
	var events []*event.Event
	err := l.Replay(ctx, func(ev *event.Event) bool {
		events = append(events, ev)
		return true
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Tail returns the last n elements of events, oldest first.
func Tail(events []*event.Event, n int) []*event.Event {
	if n <= 0 {
		return nil
	}
	if len(events) > n {
		events = events[len(events)-n:]
	}
	return events
}
