package soundsystem

import "time"

// WaitForSoundEnd polls ref's slot every wait-for-sound-poll interval
// (spec §6.4's 50ms default) until playback stops or quit is closed,
// matching §9's description of a caller poll loop that "exits
// immediately when a global quit flag is set to avoid blocking
// shutdown." There are no request-level timeouts (spec §7).
func (s *System) WaitForSoundEnd(ref SourceRef, musicLane bool, quit <-chan struct{}) {
	slot := s.resolveSlot(ref, musicLane)
	poll := time.Duration(s.cfg.WaitForSoundPollMS) * time.Millisecond
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			slot.Lock()
			playing := s.pool.PlayingStream(slot)
			slot.Unlock()
			if !playing {
				return
			}
		}
	}
}
