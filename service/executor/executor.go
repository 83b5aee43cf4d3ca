// Package executor defines the downstream collaborator boundary: the
// component that actually performs an admitted action (sends the campaign,
// reallocates the budget). The ledger only ever sees its result; a failed or
// timed-out execution is recorded as a completed-with-failure outcome, never
// as an absent one.
package executor

import (
	"context"

	"github.com/complianceworxs/govledger/model/action"
)

// Service executes one admitted action. Implementations may block on network
// I/O; they must honour ctx cancellation. Returning an error means the
// invocation itself failed (transport, timeout); the tracker records it as an
// unsuccessful terminal outcome.
type Service interface {
	Execute(ctx context.Context, invocation *action.Invocation) (*action.Result, error)
}

// Func adapts a plain function to the Service interface.
type Func func(ctx context.Context, invocation *action.Invocation) (*action.Result, error)

func (f Func) Execute(ctx context.Context, invocation *action.Invocation) (*action.Result, error) {
	return f(ctx, invocation)
}
