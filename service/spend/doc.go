// Package spend aggregates committed spend from the ledger at read time.
package spend
