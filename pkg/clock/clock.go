// Package clock abstracts the time source used by timers and poll loops so
// that tests can drive them with a virtual clock.
package clock

import "time"

// Clock is the subset of the time package the orchestration layer schedules with.
type Clock interface {
	Now() time.Time
	// After waits for the duration to elapse and then sends the current time
	// on the returned channel.
	After(d time.Duration) <-chan time.Time
	// AfterFunc calls f once the duration has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a one-shot timer created by AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

type realClock struct{}

// New returns a Clock backed by the wall clock.
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
