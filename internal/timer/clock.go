package timer

import "time"

// Clock supplies "now" so engines and tests don't depend on wall time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// FixedClock always returns the same instant. Useful in tests and in the
// view-state recompute loop where the caller supplies the tick time.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
