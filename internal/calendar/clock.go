package calendar

import "time"

// Clock supplies the current instant. Views take a Clock instead of calling
// time.Now so "today" markers can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// ZonedClock reports the time of inner converted to loc.
func ZonedClock(inner Clock, loc *time.Location) Clock {
	return ClockFunc(func() time.Time { return inner.Now().In(loc) })
}
