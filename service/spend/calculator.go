package spend

import (
	"context"
	"fmt"
	"time"

	"github.com/complianceworxs/govledger/model/event"
	"github.com/complianceworxs/govledger/service/eventlog"
)

// Calculator derives the month-to-date committed spend from the event log.
// The value is recomputed by full replay on every call: the log is the only
// source of truth for budget enforcement, there is no mutable counter that
// could drift from it. Evaluation frequency is low, so correctness wins over
// caching.
type Calculator struct {
	log eventlog.Log
}

// New creates a calculator over the given log.
func New(log eventlog.Log) *Calculator {
	return &Calculator{log: log}
}

// MonthToDate sums the spend of every action_completed event whose timestamp
// falls within the calendar month containing ref, in UTC. Events with a
// missing spend amount contribute zero. The result is independent of event
// order in the log.
func (c *Calculator) MonthToDate(ctx context.Context, ref time.Time) (int64, error) {
	start := MonthStart(ref)
	end := start.AddDate(0, 1, 0)
	var total int64
	err := c.log.Replay(ctx, func(ev *event.Event) bool {
		if ev.Type != event.TypeActionCompleted || ev.Completed == nil {
			return true
		}
		ts := ev.Timestamp.UTC()
		if ts.Before(start) || !ts.Before(end) {
			return true
		}
		total += int64(ev.Completed.SpendCents)
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compute month-to-date spend: %w", err)
	}
	return total, nil
}

// MonthStart returns the first instant of the calendar month containing ref,
// in UTC.
func MonthStart(ref time.Time) time.Time {
	ref = ref.UTC()
	return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
}
