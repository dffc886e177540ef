// Package daemon wires the queue store, pipeline manager, preflight checks,
// and HTTP status API into a single background process guarded by a lock
// file so only one instance runs per machine.
package daemon
