// Package ipc implements JSON-RPC over a Unix domain socket so the CLI can
// control a running daemon: enqueue recordings, inspect job progress, manage
// the queue, and tail logs.
package ipc
