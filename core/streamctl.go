package core

import (
	"github.com/acoliver/soundcore/internal/audioerr"
	"github.com/acoliver/soundcore/mixer"
)

// PlayStream binds sample to slot and begins (or restarts) playback
// (spec §4.1). Caller must hold slot.mu. looping is mirrored onto the
// decoder (backend-level looping is always disabled: looping is
// implemented by rewinding on EOF, never by the mixer). When scope is
// true a ring buffer sized for this sample's buffer count is attached.
// rewind seeks the decoder to the start; otherwise playback resumes
// from the decoder's current position offset by sample.Offset.
func (p *Pool) PlayStream(slot *Slot, sample *Sample, looping, scope, rewind bool) error {
	p.StopStream(slot)

	if !sample.Callbacks.OnStartStream(sample) {
		return nil
	}

	sample.ClearAllTags()

	var offsetInitial int64
	if rewind {
		if err := sample.Decoder.Rewind(); err != nil {
			return audioerr.New(audioerr.KindDecodeFailure, "core.PlayStream.rewind", err)
		}
	} else {
		offsetInitial = sample.Offset + p.clock.secondsToUnits(sample.Decoder.GetTime())
	}

	slot.Sample = sample
	sample.Looping = looping
	sample.Decoder.SetLooping(looping)
	if err := p.backend.SetProperty(slot.Handle, mixer.PropertyLooping, 0); err != nil {
		p.log.Warn("disable backend looping failed", "slot", slot.Index, "err", err)
	}

	if scope {
		format := sample.Decoder.Format()
		baseStep := 4
		if !slot.IsMusic {
			baseStep = 1
		}
		slot.Scope = newScopeRing(len(sample.Buffers), sample.ChunkBytes, sample.Decoder.Frequency(), format, baseStep)
	} else {
		slot.Scope = nil
	}

	p.prefill(slot, sample)

	now := p.clock.now()
	if slot.Scope != nil {
		slot.Scope.lastQueueTimeUs = now
	}
	slot.StartTime = now - offsetInitial
	slot.PauseTime = 0
	slot.StreamShouldBePlaying = true

	if err := p.backend.Play(slot.Handle); err != nil {
		return audioerr.New(audioerr.KindBackendFailure, "core.PlayStream.play", err)
	}

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// prefill decodes and queues up to len(sample.Buffers) buffers before
// playback starts (spec §4.1's pre-fill pass). Chunk-boundary handling
// during pre-fill follows the same on_end_chunk contract as the
// steady-state recycle loop.
func (p *Pool) prefill(slot *Slot, sample *Sample) {
	chunk := make([]byte, sample.ChunkBytes)
	for _, buf := range sample.Buffers {
		dec := sample.Decoder
		n, err := dec.Decode(chunk)
		if err == nil && n == 0 {
			break
		}
		if err != nil {
			if !sample.Callbacks.OnEndChunk(sample, buf) {
				break
			}
			dec = sample.Decoder // may have been swapped by the callback
			n, err = dec.Decode(chunk)
			if err != nil || n == 0 {
				break
			}
		}
		if err := p.backend.Upload(buf, chunk[:n], dec.Format().Bits, dec.Format().Channels, dec.Frequency()); err != nil {
			p.log.Warn("prefill upload failed", "slot", slot.Index, "err", err)
			continue
		}
		if err := p.backend.QueueBuffers(slot.Handle, []mixer.BufferHandle{buf}); err != nil {
			p.log.Warn("prefill queue failed", "slot", slot.Index, "err", err)
			continue
		}
		slot.LastQueuedBuf = buf
		sample.Callbacks.OnQueueBuffer(sample, buf)
		if slot.Scope != nil {
			slot.Scope.addScope(chunk[:n], p.clock.now())
		}
	}
}

// StopStream stops the backend source, cleans it, and clears the
// slot's binding and timing/scope state (spec §4.1). Idempotent:
// StopStream ∘ StopStream == StopStream.
func (p *Pool) StopStream(slot *Slot) {
	p.stopSource(slot)
	slot.StreamShouldBePlaying = false
	slot.Sample = nil
	slot.Scope = nil
	slot.PauseTime = 0
	slot.LastQueuedBuf = 0
}

// PauseStream records the pause instant once (idempotent) and pauses
// the backend source (spec §4.1).
func (p *Pool) PauseStream(slot *Slot) {
	slot.StreamShouldBePlaying = false
	if slot.PauseTime == 0 {
		slot.PauseTime = p.clock.now()
	}
	if err := p.backend.Pause(slot.Handle); err != nil {
		p.log.Warn("backend pause failed", "slot", slot.Index, "err", err)
	}
}

// ResumeStream restores the wall-clock offset accumulated while paused
// (spec §4.1, §9: "pause resets decoder absence" — position is
// preserved by shifting start_time, never by seeking the decoder).
// A slot with no bound sample stays not-playing.
func (p *Pool) ResumeStream(slot *Slot) {
	if slot.PauseTime != 0 {
		slot.StartTime += p.clock.now() - slot.PauseTime
	}
	slot.PauseTime = 0
	if slot.Sample == nil || slot.Sample.Decoder == nil {
		return
	}
	slot.StreamShouldBePlaying = true
	if err := p.backend.Play(slot.Handle); err != nil {
		p.log.Warn("backend resume-play failed", "slot", slot.Index, "err", err)
	}
}

// SeekStream stops the backend, seeks the bound sample's decoder, and
// restarts playback without rewinding (spec §4.1).
func (p *Pool) SeekStream(slot *Slot, posMS uint32) error {
	sample := slot.Sample
	if sample == nil || sample.Decoder == nil {
		return audioerr.New(audioerr.KindInvalidState, "core.SeekStream", nil)
	}
	looping := sample.Looping
	scope := slot.Scope != nil

	if err := p.backend.Stop(slot.Handle); err != nil {
		p.log.Warn("backend stop before seek failed", "slot", slot.Index, "err", err)
	}
	if _, err := sample.Decoder.Seek(posMS); err != nil {
		return audioerr.New(audioerr.KindDecodeFailure, "core.SeekStream.seek", err)
	}
	return p.PlayStream(slot, sample, looping, scope, false)
}

// PlayingStream reports the stream_should_be_playing flag.
func (p *Pool) PlayingStream(slot *Slot) bool {
	return slot.StreamShouldBePlaying
}
