// Package config loads, defaults, and validates the TOML configuration for
// the mindscribe daemon and CLI. Validation is fail-fast: an invalid stage
// weight table or workflow timing prevents the process from starting.
package config
