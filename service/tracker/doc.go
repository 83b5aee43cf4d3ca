// Package tracker orchestrates the action lifecycle over the append-only
// ledger: admission through the policy engine, execution, terminal outcome
// recording and the periodic SLA-breach sweep. Per action the ordering
// guarantee is structural: the identifier does not exist before the
// started event is appended, so started always precedes completed and
// overdue.
package tracker
