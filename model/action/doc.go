// Package action defines the value types exchanged with upstream proposers
// and the downstream executor: the proposed action, its risk tier, the
// executor invocation and the recorded outcome.
package action
