package core

import (
	"errors"
	"time"

	"github.com/acoliver/soundcore/decoder"
	"github.com/acoliver/soundcore/mixer"
)

// runTask is the background streaming task (spec §4.2): a single
// dedicated goroutine driving the music and speech slots concurrently
// via fine-grained per-slot locking. It never touches SFX slots.
func (p *Pool) runTask() {
	defer close(p.taskDone)

	idleSleep := time.Second / time.Duration(p.cfg.TaskIdleSleepDivisor)

	for !p.shuttingDown.Load() {
		p.fade.process(p.clock.now(), p.setMusicVolumeLocked)

		active := 0
		for _, slot := range []*Slot{p.MusicSlot(), p.SpeechSlot()} {
			slot.mu.Lock()
			sample := slot.Sample
			if !p.shouldProcess(slot, sample) {
				slot.mu.Unlock()
				continue
			}
			processed := p.processStream(slot, sample)
			slot.mu.Unlock()
			if processed {
				active++
			}
		}

		if p.shuttingDown.Load() {
			return
		}

		if active == 0 {
			select {
			case <-p.wake:
			case <-time.After(idleSleep):
			}
		} else {
			time.Sleep(0) // yield
		}
	}
}

// shouldProcess is the per-iteration skip test (spec §4.2 step 2): a
// slot with no bound sample/decoder, a cleared playing flag, or a
// decoder in a non-recoverable (non-EOF) error state is left untouched
// this tick. EOF itself is not a skip condition — process_stream's
// stall detection is what notices an exhausted, EOF'd stream and fires
// on_end_stream.
func (p *Pool) shouldProcess(slot *Slot, sample *Sample) bool {
	if sample == nil || sample.Decoder == nil || !slot.StreamShouldBePlaying {
		return false
	}
	if err := sample.Decoder.Error(); err != nil && !errors.Is(err, decoder.ErrEndOfFile) {
		return false
	}
	return true
}

// setMusicVolumeLocked applies a fade-interpolated volume to the music
// slot. It takes the slot mutex itself since the fade controller calls
// it from outside any slot lock. It reads no fade state: fade.process
// computes the volume under the fade mutex, releases it, and then calls
// this function.
func (p *Pool) setMusicVolumeLocked(volume float32) {
	slot := p.MusicSlot()
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if err := p.backend.SetProperty(slot.Handle, mixer.PropertyGain, volume); err != nil {
		p.log.Warn("set music volume failed", "err", err)
	}
}

// SetMusicVolume applies volume immediately, bypassing any fade in
// progress (callers use this for non-fade volume changes).
func (p *Pool) SetMusicVolume(volume float32) {
	p.setMusicVolumeLocked(volume)
}

// SetFade schedules a linear fade of the music slot's volume to
// endVolume over interval time units. If interval == 0 the caller
// should apply endVolume immediately instead (spec §4.4).
func (p *Pool) SetFade(interval int64, endVolume float32) bool {
	slot := p.MusicSlot()
	slot.mu.Lock()
	var current float32 = endVolume
	if v, err := p.backend.GetProperty(slot.Handle, mixer.PropertyGain); err == nil && len(v) == 1 {
		current = v[0]
	}
	slot.mu.Unlock()
	return p.fade.setFade(p.clock.now(), interval, current, endVolume)
}

// processStream is one iteration of §4.2's core per-slot loop. Caller
// must hold slot.mu. Returns true if this slot did any work this tick.
func (p *Pool) processStream(slot *Slot, sample *Sample) bool {
	processed, err := p.backend.BuffersProcessed(slot.Handle)
	if err != nil {
		p.log.Warn("buffers-processed query failed", "slot", slot.Index, "err", err)
		return false
	}
	state, err := p.backend.State(slot.Handle)
	if err != nil {
		p.log.Warn("state query failed", "slot", slot.Index, "err", err)
		return false
	}

	if processed == 0 && state != mixer.StatePlaying {
		queued := p.queuedCount(slot)
		atEOF := errors.Is(sample.Decoder.Error(), decoder.ErrEndOfFile)
		if queued == 0 && atEOF {
			slot.StreamShouldBePlaying = false
			sample.Callbacks.OnEndStream(sample)
			return true
		}
		p.log.Warn("buffer underrun, restarting playback", "slot", slot.Index)
		if err := p.backend.Play(slot.Handle); err != nil {
			p.log.Warn("restart-play after underrun failed", "slot", slot.Index, "err", err)
		}
		return true
	}

	for i := 0; i < processed; i++ {
		bufs, err := p.backend.UnqueueBuffers(slot.Handle)
		if err != nil {
			p.log.Warn("unqueue failed", "slot", slot.Index, "err", err)
			break
		}
		for _, buf := range bufs {
			p.recycleOne(slot, sample, buf)
		}
	}
	return true
}

// queuedCount is a helper over the backend's processed-vs-queued model:
// BuffersProcessed reports finished-but-not-yet-unqueued buffers; for
// "is anything still queued at all" we treat state as authoritative
// when processed == 0 (Playing/Paused implies something is queued).
func (p *Pool) queuedCount(slot *Slot) int {
	state, err := p.backend.State(slot.Handle)
	if err != nil {
		return 0
	}
	if state == mixer.StatePlaying || state == mixer.StatePaused {
		return 1
	}
	return 0
}

// recycleOne handles a single unqueued buffer: fires any tag, pops
// scope, handles EOF via on_end_chunk, decodes a refill, and re-queues
// it (spec §4.2 steps 3a-3g). Caller must hold slot.mu.
func (p *Pool) recycleOne(slot *Slot, sample *Sample, buf mixer.BufferHandle) {
	if tag := sample.TagFor(buf); tag != nil {
		sample.Callbacks.OnTaggedBuffer(sample, tag)
		sample.ClearTag(buf)
	}

	if slot.Scope != nil {
		slot.Scope.popScope(sample.ChunkBytes)
	}

	dec := sample.Decoder
	if errors.Is(dec.Error(), decoder.ErrEndOfFile) {
		if !sample.Callbacks.OnEndChunk(sample, buf) {
			return // end_chunk_failed: buffer dropped, no refill this tick
		}
		dec = sample.Decoder // possibly swapped by the callback
	} else if dec.Error() != nil {
		return // non-EOF decoder error: drop this buffer, avoid spinning
	}

	chunk := make([]byte, sample.ChunkBytes)
	n, err := dec.Decode(chunk)
	if err != nil && !errors.Is(err, decoder.ErrEndOfFile) {
		p.log.Warn("decode failed, stopping stream", "slot", slot.Index, "err", err)
		slot.StreamShouldBePlaying = false
		return
	}
	if n == 0 {
		return
	}

	if err := p.backend.Upload(buf, chunk[:n], dec.Format().Bits, dec.Format().Channels, dec.Frequency()); err != nil {
		p.log.Warn("upload failed", "slot", slot.Index, "err", err)
		return
	}
	if err := p.backend.QueueBuffers(slot.Handle, []mixer.BufferHandle{buf}); err != nil {
		p.log.Warn("queue failed", "slot", slot.Index, "err", err)
		return
	}
	slot.LastQueuedBuf = buf
	sample.Callbacks.OnQueueBuffer(sample, buf)
	if slot.Scope != nil {
		slot.Scope.addScope(chunk[:n], p.clock.now())
	}
}
