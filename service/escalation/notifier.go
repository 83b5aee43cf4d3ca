package escalation

import (
	"context"
	"sync"
	"time"

	"github.com/complianceworxs/govledger/service/messaging"
)

// Record is a directed escalation: a human or higher-authority process must
// review the named action. Records are produced only after the triggering
// event has been durably appended to the ledger.
type Record struct {
	ID        string    `json:"id"`
	ActionID  string    `json:"action_id"`
	Target    string    `json:"target"`
	Source    string    `json:"source"`
	Reasons   []string  `json:"reasons,omitempty"`
	Agent     string    `json:"agent,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers escalation records to a sink. Delivery is best-effort:
// the ledger is the source of truth, a failed notification is logged by the
// caller and never rolls back recorded state.
type Notifier interface {
	Notify(ctx context.Context, r *Record) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, r *Record) error

func (f NotifierFunc) Notify(ctx context.Context, r *Record) error { return f(ctx, r) }

// Recorder is an in-memory Notifier that retains every record it receives.
// Used in tests and as the default sink when no delivery channel is wired.
type Recorder struct {
	mu      sync.RWMutex
	records []*Record
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Notify retains the record.
func (r *Recorder) Notify(ctx context.Context, record *Record) error {
	r.mu.Lock()
	r.records = append(r.records, record)
	r.mu.Unlock()
	return nil
}

// Records returns the retained records in arrival order.
func (r *Recorder) Records() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Record, len(r.records))
	copy(out, r.records)
	return out
}

// NewQueueNotifier publishes every record to the given queue, letting an
// out-of-process consumer (mailer, dashboard poller) drain it.
func NewQueueNotifier(queue messaging.Queue[Record]) Notifier {
	return NotifierFunc(func(ctx context.Context, r *Record) error {
		return queue.Publish(ctx, r)
	})
}

// Multi fans a record out to every notifier, returning the first error after
// all have been attempted.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, r *Record) error {
		var firstErr error
		for _, n := range notifiers {
			if err := n.Notify(ctx, r); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}
