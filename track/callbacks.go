package track

import (
	"github.com/acoliver/soundcore/core"
	"github.com/acoliver/soundcore/mixer"
)

// These four hooks are installed on the speech sample at creation time
// (ensureSample) and always fire with the speech slot's mutex held, by
// construction: onStartStream runs inside PlayStream, itself only ever
// called from PlayTrack/FastForwardPage/FastReverseSmooth/
// FastReversePage, all of which hold slot.mu for their whole body;
// onEndChunk also runs during PlayStream's pre-fill; otherwise the hooks
// run inside the streaming task's recycleOne/processStream, which locks
// the slot before calling into them (spec §4.5, §5).

// onStartStream verifies this is still the active sample and binds the
// active chunk's decoder onto it, firing that chunk's subtitle tag
// immediately if it is itself a page boundary.
func (t *Player) onStartStream(s *core.Sample) bool {
	if s != t.sample || t.activeChunk == nil {
		return false
	}
	s.Decoder = t.activeChunk.Decoder
	s.Offset = t.pool.SecondsToUnits(t.activeChunk.StartTimeSeconds)
	if t.activeChunk.TagMe {
		t.doTrackTagLocked(t.activeChunk)
	}
	return true
}

// onEndChunk advances to the next chunk, swaps and rewinds its
// decoder, and — if the new chunk starts a page — tags the buffer
// currently being refilled with it, so the tag fires exactly when that
// buffer's audio finishes playing.
func (t *Player) onEndChunk(s *core.Sample, buf mixer.BufferHandle) bool {
	if t.activeChunk == nil || t.activeChunk.Next == nil {
		return false
	}
	t.activeChunk = t.activeChunk.Next
	s.Decoder = t.activeChunk.Decoder
	if err := s.Decoder.Rewind(); err != nil {
		t.log.Warn("rewind on chunk advance failed", "err", err)
	}
	if t.activeChunk.TagMe {
		s.SetTag(buf, t.activeChunk)
	}
	return true
}

// onEndStream clears both active pointers once the speech stream has
// fully drained.
func (t *Player) onEndStream(s *core.Sample) {
	t.activeChunk = nil
	t.activeSubtitleChunk = nil
}

// onTaggedBuffer recovers the chunk from the tag payload and fires its
// subtitle transition.
func (t *Player) onTaggedBuffer(s *core.Sample, tag *core.BufferTag) {
	chunk, ok := tag.Payload.(*Chunk)
	if !ok || chunk == nil {
		return
	}
	t.doTrackTagLocked(chunk)
}

// doTrackTagLocked invokes chunk's callback (if any) and makes it the
// active subtitle. Caller must hold the speech slot mutex.
func (t *Player) doTrackTagLocked(chunk *Chunk) {
	if chunk.Callback != nil {
		chunk.Callback(0)
	}
	t.activeSubtitleChunk = chunk
}
