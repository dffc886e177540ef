// Package api defines the JSON payloads shared by the IPC surface, the
// HTTP status endpoint, and the CLI, plus converters from internal types.
package api
