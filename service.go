package govledger

import (
	"context"
	"fmt"
	"time"

	"github.com/complianceworxs/govledger/model/action"
	"github.com/complianceworxs/govledger/model/event"
	"github.com/complianceworxs/govledger/service/approval"
	amemory "github.com/complianceworxs/govledger/service/approval/memory"
	"github.com/complianceworxs/govledger/service/escalation"
	"github.com/complianceworxs/govledger/service/eventlog"
	lfs "github.com/complianceworxs/govledger/service/eventlog/fs"
	"github.com/complianceworxs/govledger/service/executor"
	"github.com/complianceworxs/govledger/service/executor/nop"
	"github.com/complianceworxs/govledger/service/ops"
	"github.com/complianceworxs/govledger/service/tracker"
	"github.com/complianceworxs/govledger/tracing"

	"github.com/complianceworxs/govledger/internal/clock"
)

// Service is the high-level façade host applications embed: one governance
// ledger, one policy configuration, one tracker, plus the approval queue
// and query surface the dashboards consume.
type Service struct {
	config    *Config
	log       eventlog.Log
	tracker   *tracker.Service
	approvals approval.Service
	notifier  escalation.Notifier
	executor  executor.Service
	recorder  *escalation.Recorder
	closers   []func() error
}

// New creates a Service. Without options the ledger lives at the configured
// file path, escalations are retained in memory and the executor is a no-op.
func New(options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig()}
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.log == nil {
		fileLog, err := lfs.New(s.config.LogPath)
		if err != nil {
			return nil, err
		}
		s.log = fileLog
		s.closers = append(s.closers, fileLog.Close)
	}
	if s.executor == nil {
		s.executor = nop.New()
	}
	if s.notifier == nil {
		s.recorder = escalation.NewRecorder()
		s.notifier = s.recorder
	}
	if s.approvals == nil {
		s.approvals = amemory.New()
	}
	s.tracker = tracker.New(s.log, &s.config.Policy,
		tracker.WithExecutor(s.executor),
		tracker.WithNotifier(s.notifier),
		tracker.WithApprovalService(s.approvals))
	return s, nil
}

// Submit proposes one action for governed execution.
func (s *Service) Submit(ctx context.Context, proposed *action.Proposed) (*tracker.Receipt, error) {
	return s.tracker.Submit(ctx, proposed)
}

// Complete records the terminal outcome of a queued action on behalf of an
// external completer.
func (s *Service) Complete(ctx context.Context, actionID string, success bool, outcome *action.Outcome) error {
	return s.tracker.Complete(ctx, actionID, success, outcome)
}

// Decide applies a human verdict to a pending action: it records the
// decision in the approval registry, then finalizes the action against the
// ledger (approved actions execute, rejected ones close unsuccessfully).
func (s *Service) Decide(ctx context.Context, actionID string, approved bool, reason string) error {
	if _, err := s.approvals.Decide(ctx, actionID, approved, reason); err != nil {
		return err
	}
	if err := s.tracker.Finalize(ctx, actionID, approved, reason); err != nil {
		return fmt.Errorf("decision on action %s recorded but finalization failed: %w", actionID, err)
	}
	return nil
}

// Pending lists the actions awaiting a decision, oldest first.
func (s *Service) Pending(ctx context.Context) ([]*approval.Request, error) {
	return s.approvals.ListPending(ctx)
}

// Recent returns the last limit ledger events, oldest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*event.Event, error) {
	return s.tracker.Recent(ctx, limit)
}

// MonthToDateSpend returns the committed spend for the current calendar
// month, recomputed from the ledger.
func (s *Service) MonthToDateSpend(ctx context.Context) (int64, error) {
	return s.tracker.MonthToDateSpend(ctx)
}

// SweepOverdue flags open actions past the SLA window; see
// tracker.Service.SweepOverdue.
func (s *Service) SweepOverdue(ctx context.Context, slaHours int) (int, error) {
	return s.tracker.SweepOverdue(ctx, slaHours)
}

// OverdueCount reports how many open actions are currently past the SLA
// window without appending anything.
func (s *Service) OverdueCount(ctx context.Context, slaHours int) (int, error) {
	return s.tracker.OverdueCount(ctx, slaHours)
}

// Escalations returns every escalation event recorded in the ledger.
func (s *Service) Escalations(ctx context.Context) ([]*event.Event, error) {
	return s.tracker.Escalations(ctx)
}

// Report builds the autonomy report as of now.
func (s *Service) Report(ctx context.Context) (*ops.Report, error) {
	return ops.Build(ctx, s.log, clock.Now())
}

// InitTracing enables OpenTelemetry with the stdout exporter, identifying
// the process by the configured service name and version. Spans go to
// outputFile, or to stdout when it is empty. Hosts with their own exporter
// call tracing.InitWithExporter directly instead.
func (s *Service) InitTracing(outputFile string) error {
	return tracing.Init(s.config.ServiceName, s.config.ServiceVersion, outputFile)
}

// StartSweeper runs the overdue sweep on the given interval until stopped.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) (stop func()) {
	return s.tracker.StartSweeper(ctx, interval)
}

// Tracker exposes the underlying lifecycle tracker.
func (s *Service) Tracker() *tracker.Service { return s.tracker }

// Approvals exposes the approval registry.
func (s *Service) Approvals() approval.Service { return s.approvals }

// Log exposes the underlying event log for read-only consumers.
func (s *Service) Log() eventlog.Log { return s.log }

// EscalationRecords returns the in-memory escalation records when the
// default recorder sink is in use, nil otherwise.
func (s *Service) EscalationRecords() []*escalation.Record {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.Records()
}

// Close releases resources owned by the service (the ledger file handle).
func (s *Service) Close() error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
