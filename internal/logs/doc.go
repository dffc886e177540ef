// Package logs reads the daemon log file incrementally so the CLI can tail
// and follow it over IPC without holding the file open across requests.
package logs
