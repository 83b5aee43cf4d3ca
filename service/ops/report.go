package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/complianceworxs/govledger/model/event"
	"github.com/complianceworxs/govledger/policy"
	"github.com/complianceworxs/govledger/service/eventlog"
)

// Report is the operational-autonomy snapshot derived from the ledger:
// how much of the workload resolves without a human, how fast outcomes
// arrive, and how often humans are being paged.
type Report struct {
	GeneratedAt      time.Time `json:"generated_at"`
	CompletedTotal   int       `json:"completed_total"`
	AutoResolved     int       `json:"auto_resolved"`
	AutoResolveRate  float64   `json:"auto_resolve_rate"` // percent of completed actions
	MTTRMinutes      float64   `json:"mttr_minutes"`      // mean started to completed
	EscalationsToday int       `json:"escalations_today"` // since midnight UTC
	OpenActions      int       `json:"open_actions"`
}

// Breach codes reported against thresholds.
const (
	BreachAutoResolve = "auto_resolve_rate<min"
	BreachMTTR        = "mttr>max"
	BreachEscalations = "escalations>max_per_day"
)

// Build derives a report from the log at the reference time.
func Build(ctx context.Context, log eventlog.Log, ref time.Time) (*Report, error) {
	ref = ref.UTC()
	midnight := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	type state struct {
		startedAt time.Time
		auto      bool
		started   bool
		completed bool
		resolved  time.Duration
	}
	states := map[string]*state{}
	report := &Report{GeneratedAt: ref}

	err := log.Replay(ctx, func(ev *event.Event) bool {
		st, ok := states[ev.ActionID]
		if !ok {
			st = &state{}
			states[ev.ActionID] = st
		}
		switch ev.Type {
		case event.TypeActionStarted:
			st.started = true
			st.startedAt = ev.Timestamp.UTC()
			if ev.Started != nil && ev.Started.Decision != nil {
				st.auto = ev.Started.Decision.AutoExecute
			}
		case event.TypeActionCompleted:
			if !st.completed {
				st.completed = true
				if st.started {
					st.resolved = ev.Timestamp.UTC().Sub(st.startedAt)
				}
			}
		case event.TypeEscalation:
			if !ev.Timestamp.UTC().Before(midnight) {
				report.EscalationsToday++
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build autonomy report: %w", err)
	}

	var totalResolution time.Duration
	resolved := 0
	for _, st := range states {
		switch {
		case st.started && st.completed:
			report.CompletedTotal++
			if st.auto {
				report.AutoResolved++
			}
			if st.resolved > 0 {
				totalResolution += st.resolved
				resolved++
			}
		case st.started:
			report.OpenActions++
		}
	}
	if report.CompletedTotal > 0 {
		report.AutoResolveRate = 100 * float64(report.AutoResolved) / float64(report.CompletedTotal)
	}
	if resolved > 0 {
		report.MTTRMinutes = totalResolution.Minutes() / float64(resolved)
	}
	return report, nil
}

// Breaches compares the report against the configured thresholds and returns
// the codes of every breached one, in a fixed order. A report with no
// completed actions does not breach the auto-resolve or MTTR thresholds.
func (r *Report) Breaches(thresholds *policy.Thresholds) []string {
	var breaches []string
	if r.CompletedTotal > 0 && r.AutoResolveRate < thresholds.MinAutoResolveRate {
		breaches = append(breaches, BreachAutoResolve)
	}
	if r.CompletedTotal > 0 && thresholds.MaxMTTRMinutes > 0 && r.MTTRMinutes > thresholds.MaxMTTRMinutes {
		breaches = append(breaches, BreachMTTR)
	}
	if thresholds.MaxEscalationsPerDay > 0 && r.EscalationsToday > thresholds.MaxEscalationsPerDay {
		breaches = append(breaches, BreachEscalations)
	}
	return breaches
}
