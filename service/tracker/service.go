package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/complianceworxs/govledger/internal/clock"
	"github.com/complianceworxs/govledger/internal/idgen"
	"github.com/complianceworxs/govledger/model/action"
	"github.com/complianceworxs/govledger/model/event"
	"github.com/complianceworxs/govledger/policy"
	"github.com/complianceworxs/govledger/service/approval"
	"github.com/complianceworxs/govledger/service/escalation"
	"github.com/complianceworxs/govledger/service/eventlog"
	"github.com/complianceworxs/govledger/service/executor"
	"github.com/complianceworxs/govledger/service/spend"
	"github.com/complianceworxs/govledger/tracing"
)

var (
	// ErrUnknownAction is returned when no action_started event exists for
	// the given id.
	ErrUnknownAction = errors.New("unknown action")
	// ErrAlreadyCompleted is returned when an action already has a terminal
	// outcome.
	ErrAlreadyCompleted = errors.New("action already completed")
)

// Service orchestrates one action's life: admission through the policy
// engine, durable recording, execution, completion and SLA sweeping. Every
// state transition is an appended event; the service holds no mutable
// per-action state of its own.
type Service struct {
	log        eventlog.Log
	thresholds *policy.Thresholds
	spend      *spend.Calculator
	executor   executor.Service
	notifier   escalation.Notifier
	approvals  approval.Service
}

// New creates a tracker over the given log and thresholds. By default no
// executor is wired (use WithExecutor) and escalations are retained in an
// in-memory recorder.
func New(eventLog eventlog.Log, thresholds *policy.Thresholds, options ...Option) *Service {
	s := &Service{
		log:        eventLog,
		thresholds: thresholds,
		spend:      spend.New(eventLog),
		notifier:   escalation.NewRecorder(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Submit admits one proposed action: it computes the policy verdict against
// the current month-to-date spend, appends the action_started event with the
// verdict embedded, then either executes, simulates, or parks the action.
// Once the started event is appended the submission cannot be cancelled; an
// executor failure is recorded as an unsuccessful terminal outcome.
func (s *Service) Submit(ctx context.Context, proposed *action.Proposed) (receipt *Receipt, err error) {
	ctx, span := tracing.StartSpan(ctx, "govledger.tracker.submit", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	if proposed == nil {
		return nil, errors.New("proposed action cannot be nil")
	}

	now := clock.Now().UTC()
	monthSpend, err := s.spend.MonthToDate(ctx, now)
	if err != nil {
		return nil, err
	}
	decision := policy.Decide(proposed, monthSpend, s.thresholds)

	id := idgen.New()
	span.WithAttributes(map[string]string{"action.id": id, "action.name": proposed.Name})

	started := &event.Event{
		Type:      event.TypeActionStarted,
		ActionID:  id,
		Timestamp: now,
		Agent:     proposed.Owner,
		Started: &event.Started{
			Name:       proposed.Name,
			Title:      proposed.Title,
			Rationale:  proposed.Rationale,
			Risk:       proposed.Risk,
			CanaryN:    proposed.CanaryN,
			SpendCents: event.Cents(proposed.SpendCents),
			Payload:    proposed.Payload,
			Decision:   decision,
		},
	}
	if err = s.log.Append(ctx, started); err != nil {
		return nil, err
	}

	receipt = &Receipt{ActionID: id, Status: statusOf(decision, s.thresholds), Decision: decision, CreatedAt: now}

	// The violation is already durable on the started event; escalation
	// events and notifications come strictly after.
	if decision.Violation {
		if err = s.escalate(ctx, id, proposed.Owner, proposed.Title, event.SourcePolicyViolation, decision.Reasons); err != nil {
			return receipt, err
		}
	}

	switch receipt.Status {
	case StatusSimulated:
		outcome := &action.Outcome{ActionTaken: "simulated", Details: "dry-run: executor not invoked"}
		err = s.appendCompleted(ctx, id, proposed.Owner, true, event.Cents(proposed.SpendCents), outcome)
	case StatusExecuting:
		err = s.execute(ctx, &action.Invocation{
			ActionID:   id,
			Agent:      proposed.Owner,
			Name:       proposed.Name,
			Title:      proposed.Title,
			Payload:    proposed.Payload,
			Risk:       proposed.Risk,
			SpendCents: proposed.SpendCents,
		})
	default:
		// Queued or held: park the action for a human decision. The
		// approval registry is a convenience index over the ledger, so a
		// failure to register is logged, not fatal.
		s.requestApproval(ctx, id, proposed, decision, now)
	}
	return receipt, err
}

// Complete records the single terminal outcome for a queued action. Calling
// it for an action that already has one is a checked error.
func (s *Service) Complete(ctx context.Context, actionID string, success bool, outcome *action.Outcome) error {
	st, err := s.lookup(ctx, actionID)
	if err != nil {
		return err
	}
	return s.appendCompleted(ctx, actionID, st.started.Agent, success, st.started.Started.SpendCents, outcome)
}

// Finalize applies an approval decision to a queued action: approved actions
// are executed and their result recorded, rejected ones are closed with an
// unsuccessful outcome carrying the rejection reason. Either way the action
// receives its terminal outcome here.
func (s *Service) Finalize(ctx context.Context, actionID string, approved bool, reason string) error {
	st, err := s.lookup(ctx, actionID)
	if err != nil {
		return err
	}
	if !approved {
		outcome := &action.Outcome{ActionTaken: "rejected", Details: reason}
		return s.appendCompleted(ctx, actionID, st.started.Agent, false, st.started.Started.SpendCents, outcome)
	}
	started := st.started.Started
	return s.execute(ctx, &action.Invocation{
		ActionID:   actionID,
		Agent:      st.started.Agent,
		Name:       started.Name,
		Title:      started.Title,
		Payload:    started.Payload,
		Risk:       started.Risk,
		SpendCents: int64(started.SpendCents),
	})
}

// Recent returns the last limit events, oldest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*event.Event, error) {
	return s.log.ReadTail(ctx, limit)
}

// Escalations returns every escalation event in append order.
func (s *Service) Escalations(ctx context.Context) ([]*event.Event, error) {
	var escalations []*event.Event
	err := s.log.Replay(ctx, func(ev *event.Event) bool {
		if ev.Type == event.TypeEscalation {
			escalations = append(escalations, ev)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return escalations, nil
}

// MonthToDateSpend returns the committed spend for the current calendar
// month.
func (s *Service) MonthToDateSpend(ctx context.Context) (int64, error) {
	return s.spend.MonthToDate(ctx, clock.Now())
}

// execute invokes the executor and records the result as the action's
// terminal outcome. An invocation error is recorded, not propagated as an
// absent outcome.
func (s *Service) execute(ctx context.Context, invocation *action.Invocation) error {
	result, execErr := s.executorService().Execute(ctx, invocation)
	success := false
	var outcome *action.Outcome
	switch {
	case execErr != nil:
		outcome = &action.Outcome{ActionTaken: "failed", Error: execErr.Error()}
	case result != nil:
		success = result.Success
		out := result.Outcome
		outcome = &out
	default:
		outcome = &action.Outcome{ActionTaken: "failed", Error: "executor returned no result"}
	}
	return s.appendCompleted(ctx, invocation.ActionID, invocation.Agent, success, event.Cents(invocation.SpendCents), outcome)
}

func (s *Service) executorService() executor.Service {
	if s.executor != nil {
		return s.executor
	}
	return executor.Func(func(ctx context.Context, invocation *action.Invocation) (*action.Result, error) {
		return nil, fmt.Errorf("no executor configured for action %s", invocation.Name)
	})
}

func (s *Service) appendCompleted(ctx context.Context, actionID, agent string, success bool, spendCents event.Cents, outcome *action.Outcome) error {
	// Spend commits to the monthly ledger only on success: a rejected or
	// failed action never spent its budget.
	if !success {
		spendCents = 0
	}
	completed := &event.Event{
		Type:      event.TypeActionCompleted,
		ActionID:  actionID,
		Timestamp: clock.Now().UTC(),
		Agent:     agent,
		Completed: &event.Completed{
			Success:    success,
			SpendCents: spendCents,
			Outcome:    outcome,
		},
	}
	return s.log.Append(ctx, completed)
}

// escalate appends the escalation event and then notifies, in that order.
// The append is part of the ledger's guarantee and its failure propagates;
// notification is best-effort and only logged.
func (s *Service) escalate(ctx context.Context, actionID, agent, title, source string, reasons []string) error {
	now := clock.Now().UTC()
	ev := &event.Event{
		Type:      event.TypeEscalation,
		ActionID:  actionID,
		Timestamp: now,
		Agent:     agent,
		Escalation: &event.Escalation{
			Target:  s.thresholds.EscalationOwner,
			Source:  source,
			Reasons: reasons,
		},
	}
	if err := s.log.Append(ctx, ev); err != nil {
		return err
	}
	if s.notifier == nil {
		return nil
	}
	record := &escalation.Record{
		ID:        idgen.New(),
		ActionID:  actionID,
		Target:    s.thresholds.EscalationOwner,
		Source:    source,
		Reasons:   reasons,
		Agent:     agent,
		Title:     title,
		CreatedAt: now,
	}
	if err := s.notifier.Notify(ctx, record); err != nil {
		log.Printf("failed to deliver escalation for action %s: %v", actionID, err)
	}
	return nil
}

func (s *Service) requestApproval(ctx context.Context, id string, proposed *action.Proposed, decision *policy.Decision, now time.Time) {
	if s.approvals == nil {
		return
	}
	// An undecided request expires with the SLA window; past it the sweep
	// flags the action overdue.
	expiresAt := now.Add(time.Duration(s.thresholds.SLAHours) * time.Hour)
	request := &approval.Request{
		ID:               id,
		Agent:            proposed.Owner,
		Action:           proposed.Name,
		Title:            proposed.Title,
		Risk:             proposed.Risk,
		SpendCents:       proposed.SpendCents,
		Reasons:          decision.Reasons,
		RequiresApproval: decision.RequiresApproval,
		CreatedAt:        now,
		ExpiresAt:        &expiresAt,
	}
	if err := s.approvals.Submit(ctx, request); err != nil {
		log.Printf("failed to register approval request for action %s: %v", id, err)
	}
}

// statusOf maps a decision onto the receipt status.
func statusOf(decision *policy.Decision, thresholds *policy.Thresholds) Status {
	switch {
	case decision.AutoExecute && thresholds.DryRun:
		return StatusSimulated
	case decision.AutoExecute:
		return StatusExecuting
	case decision.Violation && !decision.RequiresApproval:
		return StatusHeld
	default:
		return StatusQueued
	}
}
