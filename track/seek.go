package track

// SeekTrack clamps offsetUnits to [0, track_length+1] (time units),
// walks the chunk list to find the chunk now playing and the last
// tag_me chunk at or before the target, and repositions without
// restarting the backend stream (spec §4.5). If offsetUnits falls
// beyond every chunk, the stream is stopped and active pointers are
// cleared.
func (t *Player) SeekTrack(offsetUnits int64) error {
	t.slot.Lock()
	defer t.slot.Unlock()
	return t.seekTrackLocked(offsetUnits)
}

func (t *Player) seekTrackLocked(offsetUnits int64) error {
	if t.sample == nil || t.head == nil {
		return nil
	}

	length := t.trackLength.Load()
	clamped := offsetUnits
	if clamped < 0 {
		clamped = 0
	}
	if clamped > length+1 {
		clamped = length + 1
	}

	t.slot.StartTime = t.pool.Now() - clamped
	offsetSeconds := t.pool.UnitsToSeconds(clamped)

	var found, lastTagged *Chunk
	for c := t.head; c != nil; c = c.Next {
		if c.TagMe && c.StartTimeSeconds <= offsetSeconds {
			lastTagged = c
		}
		if found == nil && c.StartTimeSeconds+c.durationSeconds() > offsetSeconds {
			found = c
		}
	}

	if found == nil {
		t.pool.StopStream(t.slot)
		t.activeChunk = nil
		t.activeSubtitleChunk = nil
		return nil
	}

	intra := offsetSeconds - found.StartTimeSeconds
	if intra < 0 {
		intra = 0
	}
	if _, err := found.Decoder.Seek(uint32(intra * 1000)); err != nil {
		return err
	}
	t.sample.Decoder = found.Decoder
	t.activeChunk = found
	if lastTagged != nil {
		t.doTrackTagLocked(lastTagged)
	}
	return nil
}

// currentOffsetUnitsLocked returns the logical playback offset, frozen
// at pause_time while paused (caller must hold slot.mu).
func (t *Player) currentOffsetUnitsLocked() int64 {
	if t.slot.PauseTime != 0 {
		return t.slot.PauseTime - t.slot.StartTime
	}
	return t.pool.Now() - t.slot.StartTime
}

// FastForwardSmooth and FastReverseSmooth adjust the current position
// by ScrollStepUnits and reseek (spec §4.5). Reverse additionally
// restarts playback if the stream had already ended, since a plain
// seek never re-arms a stopped backend source.
func (t *Player) FastForwardSmooth() error {
	t.slot.Lock()
	defer t.slot.Unlock()
	step := int64(t.pool.Config().ScrollStepUnits)
	return t.seekTrackLocked(t.currentOffsetUnitsLocked() + step)
}

func (t *Player) FastReverseSmooth() error {
	t.slot.Lock()
	defer t.slot.Unlock()
	step := int64(t.pool.Config().ScrollStepUnits)
	if err := t.seekTrackLocked(t.currentOffsetUnitsLocked() - step); err != nil {
		return err
	}
	if !t.slot.StreamShouldBePlaying && t.slot.PauseTime == 0 && t.activeChunk != nil {
		return t.pool.PlayStream(t.slot, t.sample, false, true, false)
	}
	return nil
}

// FastForwardPage and FastReversePage navigate to the next/previous
// tag_me chunk and restart playback there; forward past the last page
// seeks to track_length+1, ending cleanly (spec §4.5).
func (t *Player) FastForwardPage() error {
	t.slot.Lock()
	defer t.slot.Unlock()

	if t.activeChunk == nil {
		return nil
	}
	var next *Chunk
	for c := t.activeChunk.Next; c != nil; c = c.Next {
		if c.TagMe {
			next = c
			break
		}
	}
	if next == nil {
		length := t.trackLength.Load()
		return t.seekTrackLocked(length + 1)
	}
	if err := t.seekTrackLocked(t.pool.SecondsToUnits(next.StartTimeSeconds)); err != nil {
		return err
	}
	return t.pool.PlayStream(t.slot, t.sample, false, true, false)
}

func (t *Player) FastReversePage() error {
	t.slot.Lock()
	defer t.slot.Unlock()

	if t.activeChunk == nil {
		return nil
	}
	var prev *Chunk
	for c := t.head; c != nil && c != t.activeChunk; c = c.Next {
		if c.TagMe {
			prev = c
		}
	}
	if prev == nil {
		prev = t.head
	}
	if err := t.seekTrackLocked(t.pool.SecondsToUnits(prev.StartTimeSeconds)); err != nil {
		return err
	}
	return t.pool.PlayStream(t.slot, t.sample, false, true, false)
}

// GetTrackPosition scales the current offset into an arbitrary caller
// unit (spec §4.5): track_length == 0 always yields 0, guarding
// against division by zero under concurrent modification.
func (t *Player) GetTrackPosition(units int64) int64 {
	length := t.trackLength.Load()
	if length == 0 {
		return 0
	}
	t.slot.Lock()
	offset := t.currentOffsetUnitsLocked()
	t.slot.Unlock()
	return units * offset / length
}

// GetTrackSubtitle returns the currently active subtitle text, if any.
func (t *Player) GetTrackSubtitle() (string, bool) {
	t.slot.Lock()
	defer t.slot.Unlock()
	if t.activeSubtitleChunk == nil {
		return "", false
	}
	return t.activeSubtitleChunk.Subtitle, true
}

// GetFirstTrackSubtitle and GetNextTrackSubtitle iterate the tag_me
// chunks, letting a caller walk the full subtitle sequence regardless
// of current playback position.
func (t *Player) GetFirstTrackSubtitle() (*Chunk, bool) {
	t.slot.Lock()
	defer t.slot.Unlock()
	for c := t.head; c != nil; c = c.Next {
		if c.TagMe {
			return c, true
		}
	}
	return nil, false
}

func (t *Player) GetNextTrackSubtitle(ref *Chunk) (*Chunk, bool) {
	t.slot.Lock()
	defer t.slot.Unlock()
	if ref == nil {
		return nil, false
	}
	for c := ref.Next; c != nil; c = c.Next {
		if c.TagMe {
			return c, true
		}
	}
	return nil, false
}

// PlayingTrack reports whether the speech slot is currently streaming
// a track.
func (t *Player) PlayingTrack() bool {
	t.slot.Lock()
	defer t.slot.Unlock()
	return t.slot.StreamShouldBePlaying
}
