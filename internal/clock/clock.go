// Package clock abstracts time so debounce and history logic is
// deterministic in tests.
package clock

import "time"

// Clock abstracts time retrieval.
type Clock interface {
	Now() time.Time
}

// Real returns the actual current time.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Task is a scheduled callback that has not necessarily run yet.
type Task interface {
	// Stop cancels the task. It reports false if the task already ran or
	// was already stopped.
	Stop() bool
}

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// RealScheduler schedules with time.AfterFunc. Callbacks run on their own
// goroutine.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}
