package approval

import (
	"context"
	"errors"

	"github.com/complianceworxs/govledger/service/messaging"
)

var (
	// ErrNotFound is returned when no request exists for the given id.
	ErrNotFound = errors.New("approval request not found")
	// ErrDecided is returned when a request already has a decision.
	ErrDecided = errors.New("approval request already decided")
)

// Service records approval requests for queued actions and their decisions.
// Deciding does not execute anything by itself: the caller finalizes the
// action against the ledger once a decision exists.
type Service interface {
	Submit(ctx context.Context, r *Request) error
	ListPending(ctx context.Context) ([]*Request, error)
	Decide(ctx context.Context, id string, approved bool, reason string) (*Decision, error)
	Queue() messaging.Queue[Event]
}
