// Package nop provides an executor that performs no external work. It is the
// wiring default and doubles as the simulation target in tests.
package nop

import (
	"context"

	"github.com/complianceworxs/govledger/model/action"
	"github.com/complianceworxs/govledger/service/executor"
)

type service struct{}

// New creates a no-op executor.
func New() executor.Service { return &service{} }

func (s *service) Execute(ctx context.Context, invocation *action.Invocation) (*action.Result, error) {
	return &action.Result{
		Success: true,
		Outcome: action.Outcome{
			ActionTaken: "noop",
			Details:     "no-op executor: action acknowledged without external effect",
		},
	}, nil
}
