package clock

import "time"

// Clock provides the current time so it can be fixed in tests.
type Clock interface {
	Now() time.Time
}

// Real implements Clock using the system clock.
type Real struct{}

func New() Real { return Real{} }

func (Real) Now() time.Time { return time.Now() }
