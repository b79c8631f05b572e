package soundsystem

import "github.com/acoliver/soundcore/core"

// ScopeWindow requests an amplitude window for the oscilloscope from
// ref's slot (spec §6.3). musicLane selects which fixed slot AnySource
// resolves to when ref doesn't name a specific SFX channel. width/
// height size the output; values are already AGC-scaled and VAD-gated
// (spec §4.3). Returns nil if the slot has no active scope ring.
func (s *System) ScopeWindow(ref SourceRef, musicLane bool, width, height int) []int {
	slot := s.resolveSlot(ref, musicLane)
	return s.pool.ScopeWindow(slot, s.scopeReader, width, height)
}

func (s *System) resolveSlot(ref SourceRef, musicLane bool) *core.Slot {
	if !ref.any {
		return s.pool.Slot(ref.index)
	}
	if musicLane {
		return s.pool.MusicSlot()
	}
	return s.pool.SpeechSlot()
}
