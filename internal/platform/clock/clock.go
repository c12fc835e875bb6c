// Package clock abstracts wall-clock reads so expiry decisions are testable.
// Services read the clock once per operation; a single operation never mixes
// two different "now" values.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }
