// Package queueaccess abstracts queue operations over either daemon IPC or a
// direct store handle so CLI commands behave the same with or without a
// running daemon.
package queueaccess
