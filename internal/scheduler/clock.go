// internal/scheduler/clock.go
package scheduler

import "time"

// Clock supplies the current time so window/quota decisions are testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns the wall clock.
func NewRealClock() Clock { return realClock{} }
