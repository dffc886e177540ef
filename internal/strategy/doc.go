// Package strategy selects between the accelerated and baseline execution
// paths for a stage and implements the recoverable-error fallback from the
// former to the latter.
package strategy
