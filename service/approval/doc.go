// Package approval tracks the human-in-the-loop queue: every submitted
// action that was not auto-executed gets a pending request here, and a
// decision on it is the only way the action reaches a terminal outcome
// before the SLA sweep flags it.
package approval
