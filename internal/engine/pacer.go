package engine

import "time"

const defaultTickInterval = 20 * time.Millisecond

// Pacer decides how long a matching loop tick lasts. Wait is called once per
// iteration, after the tick counter has advanced to tick.
type Pacer interface {
	Wait(tick uint64)
}

// Interval paces the loop on the wall clock.
type Interval time.Duration

func (i Interval) Wait(uint64) {
	time.Sleep(time.Duration(i))
}

// PacerFunc adapts a plain function to a Pacer.
type PacerFunc func(tick uint64)

func (f PacerFunc) Wait(tick uint64) {
	f(tick)
}
