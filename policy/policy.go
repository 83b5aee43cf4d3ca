package policy

import (
	"github.com/complianceworxs/govledger/model/action"
)

// Violation reason codes, listed in evaluation order. The risk code is
// derived from the configured maximum tier (e.g. "risk>low") so that an
// operator reading the ledger sees which cap was in force at decision time.
const (
	ReasonSpend  = "spend>0"
	ReasonCanary = "canary_too_small"
	ReasonBudget = "budget_cap_exceeded"
)

// NotifyExceptionsOnly is the default notification mode echoed back on every
// decision: only violations and overdue findings produce escalations.
const NotifyExceptionsOnly = "exceptions_only"

// Thresholds is the static set of governance knobs. It is read from the
// environment (or a YAML document) once at process start; changing a
// threshold requires a restart.
type Thresholds struct {
	MaxAutoRisk          action.Risk `json:"maxAutoRisk" yaml:"maxAutoRisk" env:"MAX_AUTO_RISK" envDefault:"low"`
	CanaryMin            int         `json:"canaryMin" yaml:"canaryMin" env:"CANARY_MIN" envDefault:"10"`
	BudgetCapCents       int64       `json:"budgetCapCents" yaml:"budgetCapCents" env:"BUDGET_CAP_CENTS" envDefault:"250000"`
	SLAHours             int         `json:"slaHours" yaml:"slaHours" env:"SLA_HOURS" envDefault:"24"`
	EscalationOwner      string      `json:"escalationOwner" yaml:"escalationOwner" env:"ESCALATION_OWNER" envDefault:"chief-of-staff"`
	MaxEscalationsPerDay int         `json:"maxEscalationsPerDay" yaml:"maxEscalationsPerDay" env:"MAX_ESCALATIONS_PER_DAY" envDefault:"5"`
	MinAutoResolveRate   float64     `json:"minAutoResolveRate" yaml:"minAutoResolveRate" env:"MIN_AUTO_RESOLVE_RATE" envDefault:"85"`
	MaxMTTRMinutes       float64     `json:"maxMTTRMinutes" yaml:"maxMTTRMinutes" env:"MAX_MTTR_MINUTES" envDefault:"5"`
	DryRun               bool        `json:"dryRun" yaml:"dryRun" env:"DRY_RUN" envDefault:"false"`
	NotifyMode           string      `json:"notifyMode" yaml:"notifyMode" env:"NOTIFY_MODE" envDefault:"exceptions_only"`
}

// Decision is the verdict computed for one proposed action. It is a value
// object: never persisted on its own, always embedded in the action_started
// event so that the admission-time verdict is auditable forever.
type Decision struct {
	AutoExecute      bool     `json:"auto_execute"`
	RequiresApproval bool     `json:"requires_approval"`
	Violation        bool     `json:"violation"`
	Reasons          []string `json:"reasons,omitempty"`
	NotifyMode       string   `json:"notify_mode,omitempty"`
}

// RiskReason returns the violation code for the risk check under the given
// maximum auto-approved tier.
func RiskReason(maxAutoRisk action.Risk) string {
	return "risk>" + string(maxAutoRisk)
}

// Decide evaluates every governance check against the proposed action and
// derives the verdict. All checks run without short-circuit so that a single
// decision surfaces every violated rule at once.
//
// The boolean derivation is deliberately not a three-way split:
//
//	violation         = any check failed
//	auto_execute      = !violation && (dry-run || risk == low)
//	requires_approval = violation && (spend > 0 || risk exceeds low)
//
// A violation with requires_approval == false (for example a low-risk,
// zero-spend action failing only the canary check) is a valid outcome: the
// action is held per policy rather than routed to an approver.
func Decide(proposed *action.Proposed, currentMonthSpendCents int64, thresholds *Thresholds) *Decision {
	var reasons []string

	if proposed.Risk.Exceeds(thresholds.MaxAutoRisk) {
		reasons = append(reasons, RiskReason(thresholds.MaxAutoRisk))
	}
	if proposed.SpendCents > 0 {
		reasons = append(reasons, ReasonSpend)
	}
	if proposed.CanaryN < thresholds.CanaryMin {
		reasons = append(reasons, ReasonCanary)
	}
	if currentMonthSpendCents+proposed.SpendCents > thresholds.BudgetCapCents {
		reasons = append(reasons, ReasonBudget)
	}

	violation := len(reasons) > 0
	return &Decision{
		AutoExecute:      !violation && (thresholds.DryRun || proposed.Risk == action.RiskLow),
		RequiresApproval: violation && (proposed.SpendCents > 0 || proposed.Risk.Exceeds(action.RiskLow)),
		Violation:        violation,
		Reasons:          reasons,
		NotifyMode:       thresholds.NotifyMode,
	}
}
