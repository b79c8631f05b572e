package soundsystem

import (
	"time"

	"github.com/acoliver/soundcore/core"
)

// BroadcastScope samples ref's scope window every interval and fans each
// sample out to count independent subscriber channels (spec §6.3's
// "request an amplitude window for the oscilloscope" extended to serve
// multiple simultaneous readers — a UI panel and a test harness, say —
// without one starving the other), built on core.FanOut. The returned
// stop func signals the sampling goroutine to end; a window it is
// already sending is still delivered first, so it exits only once the
// subscribers have received that window. Its exit closes the input,
// which makes FanOut close every subscriber channel.
func (s *System) BroadcastScope(ref SourceRef, musicLane bool, interval time.Duration, width, height, count int) ([]<-chan []int, func()) {
	slot := s.resolveSlot(ref, musicLane)

	input := make(chan []int)
	subs := make([]<-chan []int, count)
	sinks := make([]chan<- []int, count)
	for i := 0; i < count; i++ {
		ch := make(chan []int)
		subs[i] = ch
		sinks[i] = ch
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(input)
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				window := s.pool.ScopeWindow(slot, s.scopeReader, width, height)
				if window == nil {
					continue
				}
				input <- window
			}
		}
	}()

	core.FanOut(input, sinks...)

	return subs, func() { close(done) }
}
