// Package alert drives the recurring proximity alert.
//
// The Scheduler is a two-state machine (idle, running at an interval) that
// owns at most one ticker at a time. It is single-owner: Apply, Teardown and
// Fire must all be called from the goroutine that selects on Ticks.
package alert
