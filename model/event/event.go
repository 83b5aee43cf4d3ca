package event

import (
	"encoding/json"
	"time"

	"github.com/complianceworxs/govledger/model/action"
	"github.com/complianceworxs/govledger/policy"
)

// Type classifies an immutable ledger fact.
type Type string

const (
	TypeActionStarted   Type = "action_started"
	TypeActionCompleted Type = "action_completed"
	TypeActionOverdue   Type = "action_overdue"
	TypeEscalation      Type = "escalation"
)

// Cents is a spend amount in the smallest currency unit. Decoding is lenient:
// a missing or malformed value yields zero rather than failing the record,
// so that ledgers written by older revisions stay readable.
type Cents int64

// UnmarshalJSON implements tolerant decoding for Cents.
func (c *Cents) UnmarshalJSON(data []byte) error {
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		*c = 0
		return nil
	}
	*c = Cents(v)
	return nil
}

// Event is one line in the append-only ledger. Exactly one of the payload
// pointers is set, matching Type. There is no in-place mutation anywhere:
// an action's state is reconstructed by replaying the events bearing its
// ActionID.
type Event struct {
	Type       Type        `json:"type"`
	ActionID   string      `json:"action_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Agent      string      `json:"agent,omitempty"`
	Started    *Started    `json:"started,omitempty"`
	Completed  *Completed  `json:"completed,omitempty"`
	Overdue    *Overdue    `json:"overdue,omitempty"`
	Escalation *Escalation `json:"escalation,omitempty"`
}

// Started captures the admitted action together with the policy verdict that
// admitted it.
type Started struct {
	Name       string           `json:"action_name"`
	Title      string           `json:"title,omitempty"`
	Rationale  string           `json:"rationale,omitempty"`
	Risk       action.Risk      `json:"risk"`
	CanaryN    int              `json:"canary_n"`
	SpendCents Cents            `json:"spend_cents"`
	Payload    json.RawMessage  `json:"payload,omitempty"`
	Decision   *policy.Decision `json:"decision"`
}

// Completed records the single terminal outcome of an action. SpendCents is
// the committed spend the monthly ledger aggregates over.
type Completed struct {
	Success    bool            `json:"success"`
	SpendCents Cents           `json:"spend_cents"`
	Outcome    *action.Outcome `json:"outcome,omitempty"`
}

// Overdue marks an action that reached the SLA window without a terminal
// outcome. It never replaces the completion record; a late Completed event
// remains valid after it.
type Overdue struct {
	SLAHours int    `json:"sla_hours"`
	Target   string `json:"target"`
}

// Escalation sources.
const (
	SourcePolicyViolation = "policy_violation"
	SourceOverdue         = "overdue"
)

// Escalation directs a finding at the configured owner.
type Escalation struct {
	Target  string   `json:"target"`
	Source  string   `json:"source"`
	Reasons []string `json:"reasons,omitempty"`
}

// Validate reports whether the event is well-formed for appending: replay
// tolerates malformed history, a fresh append never writes it.
func (e *Event) Validate() error {
	if e == nil {
		return errNil
	}
	if e.ActionID == "" {
		return errNoActionID
	}
	switch e.Type {
	case TypeActionStarted:
		if e.Started == nil {
			return errNoPayload
		}
	case TypeActionCompleted:
		if e.Completed == nil {
			return errNoPayload
		}
	case TypeActionOverdue:
		if e.Overdue == nil {
			return errNoPayload
		}
	case TypeEscalation:
		if e.Escalation == nil {
			return errNoPayload
		}
	default:
		return errUnknownType
	}
	return nil
}
