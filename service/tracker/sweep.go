package tracker

import (
	"context"
	"time"

	"github.com/complianceworxs/govledger/internal/clock"
	"github.com/complianceworxs/govledger/model/event"
	"github.com/complianceworxs/govledger/tracing"
)

// actionState is one action's lifecycle as reconstructed by replay.
type actionState struct {
	started   *event.Event
	completed bool
	overdue   bool
}

// lookup replays the log for one action and verifies it is still open.
func (s *Service) lookup(ctx context.Context, actionID string) (*actionState, error) {
	var st actionState
	err := s.log.Replay(ctx, func(ev *event.Event) bool {
		if ev.ActionID != actionID {
			return true
		}
		switch ev.Type {
		case event.TypeActionStarted:
			st.started = ev
		case event.TypeActionCompleted:
			st.completed = true
		case event.TypeActionOverdue:
			st.overdue = true
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if st.started == nil || st.started.Started == nil {
		return nil, ErrUnknownAction
	}
	if st.completed {
		return nil, ErrAlreadyCompleted
	}
	return &st, nil
}

// states replays the whole log into per-action lifecycle states, preserving
// first-seen order.
func (s *Service) states(ctx context.Context) (map[string]*actionState, []string, error) {
	states := map[string]*actionState{}
	var order []string
	err := s.log.Replay(ctx, func(ev *event.Event) bool {
		st, ok := states[ev.ActionID]
		if !ok {
			st = &actionState{}
			states[ev.ActionID] = st
			order = append(order, ev.ActionID)
		}
		switch ev.Type {
		case event.TypeActionStarted:
			st.started = ev
		case event.TypeActionCompleted:
			st.completed = true
		case event.TypeActionOverdue:
			st.overdue = true
		}
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	return states, order, nil
}

// SweepOverdue replays the log and, for every started action with no
// terminal outcome whose admission is older than the SLA window, appends one
// action_overdue event plus an escalation. An action already flagged overdue
// in an earlier sweep is not flagged again: the overdue mark is permanent
// until completion, so repeated sweeps stay quiet about it. Returns the
// number of newly flagged actions. slaHours <= 0 falls back to the
// configured window.
func (s *Service) SweepOverdue(ctx context.Context, slaHours int) (found int, err error) {
	ctx, span := tracing.StartSpan(ctx, "govledger.tracker.sweep", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	if slaHours <= 0 {
		slaHours = s.thresholds.SLAHours
	}
	now := clock.Now().UTC()
	cutoff := now.Add(-time.Duration(slaHours) * time.Hour)

	states, order, err := s.states(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range order {
		st := states[id]
		if st.started == nil || st.completed || st.overdue {
			continue
		}
		if !st.started.Timestamp.Before(cutoff) {
			continue
		}
		overdueEvent := &event.Event{
			Type:      event.TypeActionOverdue,
			ActionID:  id,
			Timestamp: now,
			Agent:     st.started.Agent,
			Overdue: &event.Overdue{
				SLAHours: slaHours,
				Target:   s.thresholds.EscalationOwner,
			},
		}
		if err = s.log.Append(ctx, overdueEvent); err != nil {
			return found, err
		}
		title := ""
		if st.started.Started != nil {
			title = st.started.Started.Title
		}
		if err = s.escalate(ctx, id, st.started.Agent, title, event.SourceOverdue, []string{"sla_exceeded"}); err != nil {
			return found, err
		}
		found++
	}
	return found, nil
}

// OverdueCount reports how many open actions are currently past the SLA
// window, whether or not a sweep has flagged them yet. Unlike SweepOverdue
// it appends nothing.
func (s *Service) OverdueCount(ctx context.Context, slaHours int) (int, error) {
	if slaHours <= 0 {
		slaHours = s.thresholds.SLAHours
	}
	cutoff := clock.Now().UTC().Add(-time.Duration(slaHours) * time.Hour)
	states, order, err := s.states(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, id := range order {
		st := states[id]
		if st.started == nil || st.completed {
			continue
		}
		if st.started.Timestamp.Before(cutoff) {
			count++
		}
	}
	return count, nil
}
