package core

import "time"

// clock converts wall time into the engine's "time units" scale (spec
// §6.4's TIME_UNITS_PER_SECOND), the single unit used throughout the
// core for start_time, pause_time, fade intervals, and track offsets —
// matching E1's arithmetic (840 units/sec, a 1-second fade spans 840
// units) directly.
type clock struct {
	epoch          time.Time
	unitsPerSecond int64
}

func newClock(unitsPerSecond int) clock {
	return clock{epoch: time.Now(), unitsPerSecond: int64(unitsPerSecond)}
}

func (c clock) now() int64 {
	return int64(time.Since(c.epoch).Seconds() * float64(c.unitsPerSecond))
}

func (c clock) secondsToUnits(s float32) int64 {
	return int64(float64(s) * float64(c.unitsPerSecond))
}

func (c clock) unitsToSeconds(u int64) float32 {
	return float32(float64(u) / float64(c.unitsPerSecond))
}
