package clock

import "time"

// Clock supplies the current time. All calendar-boundary logic in the
// services (daily pool IDs, task renewal, check-in streaks) goes through
// this interface so tests can pin the clock to a fixed instant.
type Clock interface {
	Now() time.Time
}

// Real returns the system time in UTC.
type Real struct{}

// NewReal creates a real clock.
func NewReal() Real {
	return Real{}
}

// Now returns the current UTC time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	now time.Time
}

// NewFake creates a fake clock pinned to t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t.UTC()}
}

// Now returns the pinned time.
func (f *Fake) Now() time.Time {
	return f.now
}

// Set pins the clock to t.
func (f *Fake) Set(t time.Time) {
	f.now = t.UTC()
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}
