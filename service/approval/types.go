package approval

import (
	"time"

	"github.com/complianceworxs/govledger/model/action"
)

// Event envelope published on the approval queue.
type Event struct {
	Topic string      // see topic constants below
	Data  interface{} // *Request | *Decision
}

// Standard event topics.
const (
	TopicRequestCreated  = "request.created"
	TopicDecisionCreated = "decision.created"
)

// Request is a queued action awaiting a human (or higher-authority) verdict.
// ID equals the action identifier, so a request is trivially joinable with
// the ledger.
type Request struct {
	ID               string      `json:"id"`
	Agent            string      `json:"agent"`
	Action           string      `json:"action"`
	Title            string      `json:"title,omitempty"`
	Risk             action.Risk `json:"risk"`
	SpendCents       int64       `json:"spend_cents"`
	Reasons          []string    `json:"reasons,omitempty"`
	RequiresApproval bool        `json:"requires_approval"`
	CreatedAt        time.Time   `json:"createdAt"`
	ExpiresAt        *time.Time  `json:"expiresAt,omitempty"`
}

// Decision is the verdict on a pending request.
type Decision struct {
	ID        string    `json:"id"` // same as request.ID
	Approved  bool      `json:"approved"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decidedAt"`
}
