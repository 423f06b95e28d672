package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps fitted models. Tests freeze it via SetClock so persisted models
// are byte-for-byte reproducible.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time of the package clock.
func Now() time.Time {
	return clock.Now()
}
