// Package ops derives the operational-autonomy metrics (auto-resolve rate,
// mean time to resolution, daily escalation volume) that the governance
// thresholds are enforced against.
package ops
