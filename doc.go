// Package govledger implements a governance-gated action execution ledger:
// the component that decides whether a proposed automated action may execute
// immediately, must be queued for approval, or must be held, and that
// durably records every action's lifecycle for audit and SLA enforcement.
//
// The pluggable service layers underneath the façade are:
//
//   - eventlog: append-only NDJSON ledger, state derived by replay
//   - policy: the decision engine (risk, spend, canary, budget checks)
//   - tracker: action lifecycle orchestration and the SLA sweep
//   - approval: human-in-the-loop queue over parked actions
//   - escalation: best-effort delivery of violations and overdue findings
//
// govledger is designed to be embedded in host applications:
//
//	srv, _ := govledger.New()
//	receipt, _ := srv.Submit(ctx, &action.Proposed{
//		Owner: "cmo", Name: "send_campaign", Risk: action.RiskLow, CanaryN: 25,
//	})
//	_ = srv.Decide(ctx, receipt.ActionID, true, "looks good")
//
// For details see the individual sub-packages.
package govledger
