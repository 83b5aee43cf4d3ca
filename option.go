package govledger

import (
	"github.com/complianceworxs/govledger/service/approval"
	"github.com/complianceworxs/govledger/service/escalation"
	"github.com/complianceworxs/govledger/service/eventlog"
	"github.com/complianceworxs/govledger/service/executor"
)

// Option customises the Service.
type Option func(*Service)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithEventLog replaces the file-backed ledger, e.g. with the in-memory
// implementation for tests.
func WithEventLog(log eventlog.Log) Option {
	return func(s *Service) { s.log = log }
}

// WithExecutor wires the downstream executor collaborator.
func WithExecutor(e executor.Service) Option {
	return func(s *Service) { s.executor = e }
}

// WithNotifier wires the escalation delivery sink.
func WithNotifier(n escalation.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithApprovalService replaces the in-memory approval registry.
func WithApprovalService(a approval.Service) Option {
	return func(s *Service) { s.approvals = a }
}
