// Package event defines the immutable facts appended to the governance
// ledger. Payloads are typed per event kind; the envelope carries the action
// identifier and timestamp every consumer keys on.
package event
