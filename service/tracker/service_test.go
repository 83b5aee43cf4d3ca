package tracker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complianceworxs/govledger/internal/clock"
	"github.com/complianceworxs/govledger/model/action"
	"github.com/complianceworxs/govledger/model/event"
	"github.com/complianceworxs/govledger/policy"
	amemory "github.com/complianceworxs/govledger/service/approval/memory"
	"github.com/complianceworxs/govledger/service/escalation"
	"github.com/complianceworxs/govledger/service/eventlog/memory"
	"github.com/complianceworxs/govledger/service/tracker"
)

// fakeExecutor records invocations and returns a scripted result.
type fakeExecutor struct {
	mu          sync.Mutex
	invocations []*action.Invocation
	result      *action.Result
	err         error
}

func (f *fakeExecutor) Execute(ctx context.Context, invocation *action.Invocation) (*action.Result, error) {
	f.mu.Lock()
	f.invocations = append(f.invocations, invocation)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &action.Result{Success: true, Outcome: action.Outcome{ActionTaken: "executed"}}, nil
}

func (f *fakeExecutor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invocations)
}

func thresholds() *policy.Thresholds {
	return &policy.Thresholds{
		MaxAutoRisk:     action.RiskLow,
		CanaryMin:       10,
		BudgetCapCents:  250000,
		SLAHours:        24,
		EscalationOwner: "chief-of-staff",
		NotifyMode:      policy.NotifyExceptionsOnly,
	}
}

// fixture wires a tracker over an in-memory ledger with a frozen clock.
type fixture struct {
	log       *memory.Log
	executor  *fakeExecutor
	recorder  *escalation.Recorder
	service   *tracker.Service
	now       time.Time
	restoreFn func()
}

func newFixture(t *testing.T, th *policy.Thresholds) *fixture {
	f := &fixture{
		log:      memory.New(),
		executor: &fakeExecutor{},
		recorder: escalation.NewRecorder(),
		now:      time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	previous := clock.NowFunc
	clock.NowFunc = func() time.Time { return f.now }
	f.restoreFn = func() { clock.NowFunc = previous }
	t.Cleanup(f.restoreFn)

	f.service = tracker.New(f.log, th,
		tracker.WithExecutor(f.executor),
		tracker.WithNotifier(f.recorder),
		tracker.WithApprovalService(amemory.New()))
	return f
}

func (f *fixture) events(t *testing.T) []*event.Event {
	t.Helper()
	events, err := f.log.ReadAll(context.Background())
	require.NoError(t, err)
	return events
}

func TestSubmitAutoExecute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, thresholds())

	receipt, err := f.service.Submit(ctx, &action.Proposed{
		Owner: "cmo", Name: "send_campaign", Risk: action.RiskLow, CanaryN: 25,
	})
	require.NoError(t, err)
	assert.EqualValues(t, tracker.StatusExecuting, receipt.Status)
	assert.True(t, receipt.Decision.AutoExecute)
	assert.EqualValues(t, 1, f.executor.count())

	events := f.events(t)
	require.Len(t, events, 2)
	assert.EqualValues(t, event.TypeActionStarted, events[0].Type)
	assert.EqualValues(t, receipt.ActionID, events[0].ActionID)
	require.NotNil(t, events[0].Started)
	assert.EqualValues(t, receipt.Decision, events[0].Started.Decision)
	assert.EqualValues(t, event.TypeActionCompleted, events[1].Type)
	assert.True(t, events[1].Completed.Success)
	assert.Empty(t, f.recorder.Records())
}

func TestSubmitViolationQueuesAndEscalates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, thresholds())

	receipt, err := f.service.Submit(ctx, &action.Proposed{
		Owner: "cro", Name: "reallocate_budget", Title: "Q2 shift",
		Risk: action.RiskHigh, CanaryN: 25, SpendCents: 5000,
	})
	require.NoError(t, err)
	assert.EqualValues(t, tracker.StatusQueued, receipt.Status)
	assert.True(t, receipt.Decision.Violation)
	assert.True(t, receipt.Decision.RequiresApproval)
	assert.EqualValues(t, 0, f.executor.count())

	events := f.events(t)
	require.Len(t, events, 2)
	assert.EqualValues(t, event.TypeActionStarted, events[0].Type)
	assert.EqualValues(t, event.TypeEscalation, events[1].Type)
	assert.EqualValues(t, event.SourcePolicyViolation, events[1].Escalation.Source)
	assert.EqualValues(t, "chief-of-staff", events[1].Escalation.Target)
	assert.EqualValues(t, []string{"risk>low", "spend>0"}, events[1].Escalation.Reasons)

	records := f.recorder.Records()
	require.Len(t, records, 1)
	assert.EqualValues(t, receipt.ActionID, records[0].ActionID)
	assert.EqualValues(t, "Q2 shift", records[0].Title)
}

func TestSubmitHeldPerPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, thresholds())

	receipt, err := f.service.Submit(ctx, &action.Proposed{
		Owner: "cmo", Name: "tiny_test", Risk: action.RiskLow, CanaryN: 3,
	})
	require.NoError(t, err)
	assert.EqualValues(t, tracker.StatusHeld, receipt.Status)
	assert.True(t, receipt.Decision.Violation)
	assert.False(t, receipt.Decision.RequiresApproval)
	assert.EqualValues(t, 0, f.executor.count())
}

func TestSubmitDryRunSimulates(t *testing.T) {
	ctx := context.Background()
	th := thresholds()
	th.DryRun = true
	f := newFixture(t, th)

	receipt, err := f.service.Submit(ctx, &action.Proposed{
		Owner: "cmo", Name: "send_campaign", Risk: action.RiskLow, CanaryN: 25,
	})
	require.NoError(t, err)
	assert.EqualValues(t, tracker.StatusSimulated, receipt.Status)
	assert.EqualValues(t, 0, f.executor.count(), "dry-run must not invoke the executor")

	events := f.events(t)
	require.Len(t, events, 2)
	assert.True(t, events[1].Completed.Success)
	assert.EqualValues(t, "simulated", events[1].Completed.Outcome.ActionTaken)
}

// TestSubmitExecutorFailure: a failed invocation is still a terminal
// outcome, recorded as completed with success=false.
func TestSubmitExecutorFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, thresholds())
	f.executor.err = errors.New("mailchimp: 503")

	receipt, err := f.service.Submit(ctx, &action.Proposed{
		Owner: "cmo", Name: "send_campaign", Risk: action.RiskLow, CanaryN: 25,
	})
	require.NoError(t, err)
	assert.EqualValues(t, tracker.StatusExecuting, receipt.Status)

	events := f.events(t)
	require.Len(t, events, 2)
	assert.EqualValues(t, event.TypeActionCompleted, events[1].Type)
	assert.False(t, events[1].Completed.Success)
	assert.Contains(t, events[1].Completed.Outcome.Error, "mailchimp: 503")
}

func TestCompleteIsCheckedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, thresholds())

	receipt, err := f.service.Submit(ctx, &action.Proposed{
		Owner: "cro", Name: "reallocate_budget", Risk: action.RiskMedium, CanaryN: 25,
	})
	require.NoError(t, err)
	assert.EqualValues(t, tracker.StatusQueued, receipt.Status)

	require.NoError(t, f.service.Complete(ctx, receipt.ActionID, true, &action.Outcome{ActionTaken: "manual"}))
	err = f.service.Complete(ctx, receipt.ActionID, true, nil)
	assert.ErrorIs(t, err, tracker.ErrAlreadyCompleted)

	err = f.service.Complete(ctx, "no-such-action", true, nil)
	assert.ErrorIs(t, err, tracker.ErrUnknownAction)
}

func TestFinalize(t *testing.T) {
	ctx := context.Background()

	t.Run("approved executes and completes", func(t *testing.T) {
		f := newFixture(t, thresholds())
		receipt, err := f.service.Submit(ctx, &action.Proposed{
			Owner: "cro", Name: "reallocate_budget", Risk: action.RiskMedium, CanaryN: 25,
		})
		require.NoError(t, err)

		require.NoError(t, f.service.Finalize(ctx, receipt.ActionID, true, "reviewed"))
		assert.EqualValues(t, 1, f.executor.count())

		events := f.events(t)
		last := events[len(events)-1]
		assert.EqualValues(t, event.TypeActionCompleted, last.Type)
		assert.True(t, last.Completed.Success)
	})

	t.Run("rejected closes unsuccessfully", func(t *testing.T) {
		f := newFixture(t, thresholds())
		receipt, err := f.service.Submit(ctx, &action.Proposed{
			Owner: "cro", Name: "reallocate_budget", Risk: action.RiskMedium, CanaryN: 25,
		})
		require.NoError(t, err)

		require.NoError(t, f.service.Finalize(ctx, receipt.ActionID, false, "too risky this quarter"))
		assert.EqualValues(t, 0, f.executor.count())

		events := f.events(t)
		last := events[len(events)-1]
		assert.EqualValues(t, event.TypeActionCompleted, last.Type)
		assert.False(t, last.Completed.Success)
		assert.EqualValues(t, "too risky this quarter", last.Completed.Outcome.Details)
	})
}

// TestSpendCommitsOnlyOnSuccess: a proposed amount reaches the monthly
// ledger only through a successful completion. Rejections and failed
// executions close the action with zero spend.
func TestSpendCommitsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected spend never commits", func(t *testing.T) {
		f := newFixture(t, thresholds())
		receipt, err := f.service.Submit(ctx, &action.Proposed{
			Owner: "cro", Name: "buy_ads", Risk: action.RiskLow, CanaryN: 25, SpendCents: 5000,
		})
		require.NoError(t, err)

		require.NoError(t, f.service.Finalize(ctx, receipt.ActionID, false, "denied"))

		events := f.events(t)
		last := events[len(events)-1]
		assert.False(t, last.Completed.Success)
		assert.EqualValues(t, 0, last.Completed.SpendCents)

		spent, err := f.service.MonthToDateSpend(ctx)
		require.NoError(t, err)
		assert.Zero(t, spent)
	})

	t.Run("failed execution never commits", func(t *testing.T) {
		f := newFixture(t, thresholds())
		f.executor.err = errors.New("ad platform: 502")
		receipt, err := f.service.Submit(ctx, &action.Proposed{
			Owner: "cro", Name: "buy_ads", Risk: action.RiskLow, CanaryN: 25, SpendCents: 5000,
		})
		require.NoError(t, err)

		require.NoError(t, f.service.Finalize(ctx, receipt.ActionID, true, "approved"))

		events := f.events(t)
		last := events[len(events)-1]
		assert.False(t, last.Completed.Success)
		assert.EqualValues(t, 0, last.Completed.SpendCents)

		spent, err := f.service.MonthToDateSpend(ctx)
		require.NoError(t, err)
		assert.Zero(t, spent)
	})

	t.Run("successful completion commits", func(t *testing.T) {
		f := newFixture(t, thresholds())
		receipt, err := f.service.Submit(ctx, &action.Proposed{
			Owner: "cro", Name: "buy_ads", Risk: action.RiskLow, CanaryN: 25, SpendCents: 5000,
		})
		require.NoError(t, err)

		require.NoError(t, f.service.Finalize(ctx, receipt.ActionID, true, "approved"))

		spent, err := f.service.MonthToDateSpend(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 5000, spent)
	})
}

// TestSweepOverdue covers the SLA-breach detector including its
// de-duplication: one overdue event per action, ever, until completion.
func TestSweepOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, thresholds())

	receipt, err := f.service.Submit(ctx, &action.Proposed{
		Owner: "cro", Name: "reallocate_budget", Risk: action.RiskMedium, CanaryN: 25,
	})
	require.NoError(t, err)
	assert.EqualValues(t, tracker.StatusQueued, receipt.Status)

	// Within the window nothing is flagged.
	f.now = f.now.Add(23 * time.Hour)
	found, err := f.service.SweepOverdue(ctx, 24)
	require.NoError(t, err)
	assert.EqualValues(t, 0, found)

	// Past the window: exactly one overdue event plus its escalation.
	f.now = f.now.Add(2 * time.Hour)
	found, err = f.service.SweepOverdue(ctx, 24)
	require.NoError(t, err)
	assert.EqualValues(t, 1, found)

	events := f.events(t)
	var overdue []*event.Event
	escalationsBySource := map[string]int{}
	for _, ev := range events {
		switch ev.Type {
		case event.TypeActionOverdue:
			overdue = append(overdue, ev)
		case event.TypeEscalation:
			escalationsBySource[ev.Escalation.Source]++
		}
	}
	require.Len(t, overdue, 1)
	assert.EqualValues(t, receipt.ActionID, overdue[0].ActionID)
	assert.EqualValues(t, 24, overdue[0].Overdue.SLAHours)
	// Submission escalated the policy violation; the sweep added exactly one
	// more escalation for the SLA breach.
	assert.EqualValues(t, 1, escalationsBySource[event.SourcePolicyViolation])
	assert.EqualValues(t, 1, escalationsBySource[event.SourceOverdue])

	// A second sweep stays quiet about the already-flagged action.
	found, err = f.service.SweepOverdue(ctx, 24)
	require.NoError(t, err)
	assert.EqualValues(t, 0, found)
	assert.Len(t, f.events(t), len(events))

	// The count query still reports it until completion.
	count, err := f.service.OverdueCount(ctx, 24)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Late completion is valid and clears the overdue state.
	require.NoError(t, f.service.Complete(ctx, receipt.ActionID, true, &action.Outcome{ActionTaken: "manual"}))
	count, err = f.service.OverdueCount(ctx, 24)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

// TestBudgetAccumulation: committed spend from completed actions counts
// against the monthly cap for subsequent decisions.
func TestBudgetAccumulation(t *testing.T) {
	ctx := context.Background()
	th := thresholds()
	th.BudgetCapCents = 10000
	f := newFixture(t, th)

	first, err := f.service.Submit(ctx, &action.Proposed{
		Owner: "cro", Name: "buy_ads", Risk: action.RiskLow, CanaryN: 25, SpendCents: 9900,
	})
	require.NoError(t, err)
	assert.EqualValues(t, tracker.StatusQueued, first.Status)
	require.NoError(t, f.service.Finalize(ctx, first.ActionID, true, "approved"))

	spent, err := f.service.MonthToDateSpend(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 9900, spent)

	second, err := f.service.Submit(ctx, &action.Proposed{
		Owner: "cro", Name: "buy_more_ads", Risk: action.RiskLow, CanaryN: 25, SpendCents: 200,
	})
	require.NoError(t, err)
	assert.True(t, second.Decision.Violation)
	assert.Contains(t, second.Decision.Reasons, policy.ReasonBudget)
}

func TestRecentAndEscalations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, thresholds())

	for i := 0; i < 3; i++ {
		_, err := f.service.Submit(ctx, &action.Proposed{
			Owner: "cmo", Name: "send_campaign", Risk: action.RiskLow, CanaryN: 25,
		})
		require.NoError(t, err)
	}
	_, err := f.service.Submit(ctx, &action.Proposed{
		Owner: "cro", Name: "big_spend", Risk: action.RiskHigh, CanaryN: 25, SpendCents: 100,
	})
	require.NoError(t, err)

	recent, err := f.service.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	escalations, err := f.service.Escalations(ctx)
	require.NoError(t, err)
	require.Len(t, escalations, 1)
	assert.EqualValues(t, event.TypeEscalation, escalations[0].Type)
}
