// Package eventlog defines the append-only event ledger contract: one JSON
// record per line, no in-place mutation, state derived by replay. The fs
// sub-package persists to a single append-mode file; the memory sub-package
// keeps encoded lines in process for tests and embedding.
package eventlog
