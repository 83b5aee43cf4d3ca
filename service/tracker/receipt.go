package tracker

import (
	"time"

	"github.com/complianceworxs/govledger/policy"
)

// Status is the initial state of an action as reported on its receipt.
type Status string

const (
	// StatusExecuting means admitted for immediate execution.
	StatusExecuting Status = "executing"
	// StatusSimulated means auto-executable under dry-run; the executor was
	// not invoked and the outcome is recorded as simulated.
	StatusSimulated Status = "simulated"
	// StatusQueued means awaiting an approval decision.
	StatusQueued Status = "queued"
	// StatusHeld means the action violated policy without requiring approval;
	// it stays parked until someone decides on it.
	StatusHeld Status = "held"
)

// Receipt acknowledges a submitted action. The embedded decision is the same
// value durably recorded on the action_started event.
type Receipt struct {
	ActionID  string           `json:"action_id"`
	Status    Status           `json:"status"`
	Decision  *policy.Decision `json:"decision"`
	CreatedAt time.Time        `json:"created_at"`
}
