package action

import "encoding/json"

// Proposed is a single proposed unit of automated work, as received from an
// upstream recommendation source. The payload is opaque to the ledger and is
// passed through to the executor untouched.
type Proposed struct {
	Owner      string          `json:"owner"`
	Name       string          `json:"action_name"`
	Title      string          `json:"title,omitempty"`
	Rationale  string          `json:"rationale,omitempty"`
	Risk       Risk            `json:"risk"`
	CanaryN    int             `json:"canary_n"`
	SpendCents int64           `json:"spend_cents"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Invocation is the subset of an admitted action handed to the downstream
// executor collaborator.
type Invocation struct {
	ActionID   string          `json:"action_id"`
	Agent      string          `json:"agent"`
	Name       string          `json:"action_name"`
	Title      string          `json:"title,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Risk       Risk            `json:"risk"`
	SpendCents int64           `json:"spend_cents"`
}

// Outcome describes what an execution attempt actually did. For failed
// attempts Error carries the failure detail; the record still counts as a
// terminal outcome (absence of outcome is reserved for pending actions).
type Outcome struct {
	ActionTaken string          `json:"action_taken,omitempty"`
	Details     string          `json:"details,omitempty"`
	Data        json.RawMessage `json:"outcome_data,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Result is the executor's reply to an Invocation.
type Result struct {
	Success bool    `json:"success"`
	Outcome Outcome `json:"outcome"`
}
