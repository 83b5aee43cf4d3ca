// Package policy implements the governance decision engine: given a proposed
// action, the current month-to-date spend and the configured thresholds it
// produces a Decision (auto-execute / queue-for-approval / hold) together
// with every violated rule, in a fixed evaluation order.
package policy
