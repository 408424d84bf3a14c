package clinic

import (
	"time"
)

// Clock reports "now" in the fixed clinic offset, independent of the host
// or requester time zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(offset time.Duration) Clock {
	return NewClockAt(offset, time.Now)
}

// NewClockAt is NewClock with an injectable time source.
func NewClockAt(offset time.Duration, now func() time.Time) Clock {
	return Clock{
		loc: time.FixedZone("clinic", int(offset/time.Second)),
		now: now,
	}
}

func (c Clock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c Clock) Location() *time.Location {
	return c.loc
}

// Today is the current clinic date as yyyy-mm-dd.
func (c Clock) Today() string {
	return c.Now().Format(dateLayout)
}

// SinceMidnight is how far into the clinic day t is.
func SinceMidnight(t time.Time) time.Duration {
	y, m, d := t.Date()
	return t.Sub(time.Date(y, m, d, 0, 0, 0, 0, t.Location()))
}
