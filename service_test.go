package govledger_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complianceworxs/govledger"
	"github.com/complianceworxs/govledger/model/action"
	"github.com/complianceworxs/govledger/model/event"
	"github.com/complianceworxs/govledger/service/approval"
	"github.com/complianceworxs/govledger/service/eventlog/memory"
	"github.com/complianceworxs/govledger/service/executor"
	"github.com/complianceworxs/govledger/service/tracker"
)

func newService(t *testing.T, options ...govledger.Option) (*govledger.Service, *memory.Log) {
	t.Helper()
	log := memory.New()
	options = append([]govledger.Option{govledger.WithEventLog(log)}, options...)
	service, err := govledger.New(options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Close() })
	return service, log
}

func TestServiceAutoExecutePath(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var executed []string
	service, log := newService(t, govledger.WithExecutor(executor.Func(
		func(ctx context.Context, invocation *action.Invocation) (*action.Result, error) {
			mu.Lock()
			executed = append(executed, invocation.Name)
			mu.Unlock()
			return &action.Result{Success: true, Outcome: action.Outcome{ActionTaken: "sent"}}, nil
		})))

	receipt, err := service.Submit(ctx, &action.Proposed{
		Owner: "cmo", Name: "send_campaign", Risk: action.RiskLow, CanaryN: 25,
	})
	require.NoError(t, err)
	assert.EqualValues(t, tracker.StatusExecuting, receipt.Status)
	assert.EqualValues(t, []string{"send_campaign"}, executed)

	events, err := log.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.EqualValues(t, event.TypeActionCompleted, events[1].Type)
	assert.EqualValues(t, "sent", events[1].Completed.Outcome.ActionTaken)
}

func TestServiceApprovalFlow(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	receipt, err := service.Submit(ctx, &action.Proposed{
		Owner: "cro", Name: "reallocate_budget", Title: "Q2 budget shift",
		Risk: action.RiskMedium, CanaryN: 25, SpendCents: 5000,
	})
	require.NoError(t, err)
	assert.EqualValues(t, tracker.StatusQueued, receipt.Status)

	pending, err := service.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.EqualValues(t, receipt.ActionID, pending[0].ID)
	assert.EqualValues(t, []string{"risk>low", "spend>0"}, pending[0].Reasons)

	// The pending request expires with the SLA window.
	require.NotNil(t, pending[0].ExpiresAt)
	assert.EqualValues(t, pending[0].CreatedAt.Add(24*time.Hour), *pending[0].ExpiresAt)

	// The policy violation escalated through the default recorder sink.
	records := service.EscalationRecords()
	require.Len(t, records, 1)
	assert.EqualValues(t, "Q2 budget shift", records[0].Title)

	require.NoError(t, service.Decide(ctx, receipt.ActionID, true, "board approved"))

	pending, err = service.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// The committed spend is now visible to the budget check.
	spent, err := service.MonthToDateSpend(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, spent)

	// Deciding twice is a checked error from the approval registry.
	err = service.Decide(ctx, receipt.ActionID, false, "second thoughts")
	assert.ErrorIs(t, err, approval.ErrDecided)
}

func TestServiceRejection(t *testing.T) {
	ctx := context.Background()
	service, log := newService(t)

	receipt, err := service.Submit(ctx, &action.Proposed{
		Owner: "cro", Name: "reallocate_budget", Risk: action.RiskHigh, CanaryN: 25, SpendCents: 5000,
	})
	require.NoError(t, err)

	require.NoError(t, service.Decide(ctx, receipt.ActionID, false, "not this quarter"))

	events, err := log.ReadAll(ctx)
	require.NoError(t, err)
	last := events[len(events)-1]
	assert.EqualValues(t, event.TypeActionCompleted, last.Type)
	assert.False(t, last.Completed.Success)
	assert.EqualValues(t, "rejected", last.Completed.Outcome.ActionTaken)

	// Rejected spend never commits.
	spent, err := service.MonthToDateSpend(ctx)
	require.NoError(t, err)
	assert.Zero(t, spent)
}

func TestServiceRecentAndReport(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	for i := 0; i < 3; i++ {
		_, err := service.Submit(ctx, &action.Proposed{
			Owner: "cmo", Name: "send_campaign", Risk: action.RiskLow, CanaryN: 25,
		})
		require.NoError(t, err)
	}

	recent, err := service.Recent(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, recent, 4)

	report, err := service.Report(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, report.CompletedTotal)
	assert.EqualValues(t, 3, report.AutoResolved)
	assert.EqualValues(t, 100.0, report.AutoResolveRate)
}

func TestServiceInitTracing(t *testing.T) {
	service, _ := newService(t)
	require.NoError(t, service.InitTracing(filepath.Join(t.TempDir(), "spans.ndjson")))
}

func TestServiceRejectsInvalidConfig(t *testing.T) {
	config := govledger.DefaultConfig()
	config.Policy.EscalationOwner = ""
	_, err := govledger.New(govledger.WithConfig(config), govledger.WithEventLog(memory.New()))
	assert.Error(t, err)
}
