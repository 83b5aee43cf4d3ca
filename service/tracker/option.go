package tracker

import (
	"github.com/complianceworxs/govledger/service/approval"
	"github.com/complianceworxs/govledger/service/escalation"
	"github.com/complianceworxs/govledger/service/executor"
)

// Option customises the tracker.
type Option func(*Service)

// WithExecutor wires the downstream executor collaborator.
func WithExecutor(e executor.Service) Option {
	return func(s *Service) { s.executor = e }
}

// WithNotifier wires the escalation sink. Passing nil disables notification
// entirely; escalation events are still appended to the ledger.
func WithNotifier(n escalation.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithApprovalService wires the registry that indexes queued actions for
// human decisions.
func WithApprovalService(a approval.Service) Option {
	return func(s *Service) { s.approvals = a }
}
