// Package accel owns the single accelerated-execution slot. Every piece of
// work that loads a large local model goes through Pool, which runs exactly
// one unit at a time and queues the rest in arrival order.
package accel
