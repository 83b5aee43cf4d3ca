// Package escalation turns policy violations and overdue findings into
// directed notifications. Delivery sits outside the ledger's durability
// guarantee: the event is appended first, notification is best-effort.
package escalation
