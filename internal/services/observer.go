// Package services – Observer
//
// The processor reports outcomes to an Observer rather than reaching for a
// metrics or error-tracking package directly. The capability is decided once
// at construction: production wires the Prometheus-backed implementation from
// internal/observability, tests and metric-less deployments use NopObserver.
package services

import "time"

// Observer receives processing outcome signals. Implementations must be safe
// for concurrent use and must never panic or block the caller.
type Observer interface {
	// JobStarted / JobFinished bracket one webhook processing run.
	JobStarted()
	JobFinished()
	// CodeGenerated records one code assignment attempt and its duration.
	CodeGenerated(d time.Duration, success bool)
	// ErrorRecorded counts a failure by kind (e.g. "remote_update", "store").
	ErrorRecorded(kind string)
}

// NopObserver is the do-nothing Observer used when metrics are not wired.
type NopObserver struct{}

func (NopObserver) JobStarted()                          {}
func (NopObserver) JobFinished()                         {}
func (NopObserver) CodeGenerated(time.Duration, bool)    {}
func (NopObserver) ErrorRecorded(string)                 {}
