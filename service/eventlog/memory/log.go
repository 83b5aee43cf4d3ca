package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/complianceworxs/govledger/model/event"
	"github.com/complianceworxs/govledger/service/eventlog"
)

// Log keeps the ledger in process. Records are stored as encoded lines so
// the decode path (and its malformed-record tolerance) behaves exactly like
// the file-backed log; tests can also inject raw lines to simulate
// corruption.
type Log struct {
	mu      sync.RWMutex
	lines   [][]byte
	skipped atomic.Int64
}

var _ eventlog.Log = (*Log)(nil)

// New creates an empty in-memory ledger.
func New() *Log {
	return &Log{}
}

// Append encodes and stores one event.
func (l *Log) Append(ctx context.Context, ev *event.Event) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("refusing to append malformed event: %w", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	l.mu.Lock()
	l.lines = append(l.lines, data)
	l.mu.Unlock()
	return nil
}

// AppendRaw stores an arbitrary line verbatim. Intended for tests that need
// malformed history.
func (l *Log) AppendRaw(line []byte) {
	l.mu.Lock()
	l.lines = append(l.lines, append([]byte(nil), line...))
	l.mu.Unlock()
}

// Replay decodes stored lines in append order, skipping the undecodable.
func (l *Log) Replay(ctx context.Context, visit func(ev *event.Event) bool) error {
	l.mu.RLock()
	lines := l.lines
	l.mu.RUnlock()

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		var ev event.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			l.skipped.Add(1)
			continue
		}
		if ev.Validate() != nil {
			l.skipped.Add(1)
			continue
		}
		if !visit(&ev) {
			return nil
		}
	}
	return nil
}

// ReadAll returns every decodable event in append order.
func (l *Log) ReadAll(ctx context.Context) ([]*event.Event, error) {
	return eventlog.ReadAll(ctx, l)
}

// ReadTail returns the last n decodable events, oldest first.
func (l *Log) ReadTail(ctx context.Context, n int) ([]*event.Event, error) {
	events, err := l.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return eventlog.Tail(events, n), nil
}

// SkippedRecords reports how many undecodable records replays have seen.
func (l *Log) SkippedRecords() int64 { return l.skipped.Load() }
