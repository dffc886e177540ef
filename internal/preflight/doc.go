// Package preflight provides readiness checks for the external binaries,
// filesystem paths, and remote services the pipeline depends on.
//
// The daemon runs RunAll at startup and surfaces the results through the
// status API so a misconfigured deployment is visible before the first job
// fails. The CLI status command renders the same results.
package preflight
