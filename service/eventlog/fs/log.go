package fs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/complianceworxs/govledger/model/event"
	"github.com/complianceworxs/govledger/service/eventlog"
)

const maxLineBytes = 1024 * 1024

// Log is the file-backed ledger: newline-delimited JSON, UTF-8, one event
// per line. A single append-mode handle guarded by a mutex serialises
// physical writes, so concurrent Append calls never interleave partial
// lines. Readers open their own handles and may run concurrently with
// appends.
type Log struct {
	path    string
	mu      sync.Mutex
	file    *os.File
	closed  bool
	skipped atomic.Int64
}

var _ eventlog.Log = (*Log)(nil)

// New opens (creating if needed) the ledger file at path.
func New(path string) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("event log path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create event log directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log %s: %w", path, err)
	}
	return &Log{path: path, file: file}, nil
}

// Append writes one event as a single newline-terminated record. The record
// is marshalled up front and written with one Write call so that a crash
// mid-append can only ever produce a torn trailing line, which replay
// tolerates.
func (l *Log) Append(ctx context.Context, ev *event.Event) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("refusing to append malformed event: %w", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	line := make([]byte, 0, len(data)+1)
	line = append(line, data...)
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return eventlog.ErrClosed
	}
	if _, err = l.file.Write(line); err != nil {
		return fmt.Errorf("failed to append event to %s: %w", l.path, err)
	}
	if err = l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync event log %s: %w", l.path, err)
	}
	return nil
}

// Replay scans the file with a fresh read-only handle. Lines that do not
// decode to a well-formed event are skipped and counted, never fatal: the
// only expected corruption is a torn write at the very end of the file.
func (l *Log) Replay(ctx context.Context, visit func(ev *event.Event) bool) error {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open event log %s: %w", l.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
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
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read event log %s: %w", l.path, err)
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

// Close releases the append handle. Subsequent Append calls fail with
// eventlog.ErrClosed; reads keep working.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}
