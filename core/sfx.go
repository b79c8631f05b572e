package core

import (
	"fmt"
	"math"

	"github.com/acoliver/soundcore/decoder"
	"github.com/acoliver/soundcore/internal/audioerr"
	"github.com/acoliver/soundcore/mixer"
)

// Bank is an owned table of SFX samples, each holding exactly one
// buffer with an entire pre-decoded effect (spec §3, §4.6).
type Bank struct {
	Samples []*Sample
}

// LoadBank opens one decoder per filename via openDecoder, fully
// pre-decodes each into a single-buffer sample, and releases the
// decoder immediately (spec §4.6: "bytes now live in the backend
// buffer"). Bank creation fails if every file fails to decode.
func LoadBank(backend mixer.Backend, filenames []string, openDecoder func(name string) (decoder.Decoder, error)) (*Bank, error) {
	bank := &Bank{}
	for _, name := range filenames {
		dec, err := openDecoder(name)
		if err != nil {
			continue
		}
		format := dec.Format()
		freq := dec.Frequency()
		data, err := dec.DecodeAll()
		dec.Close()
		if err != nil && len(data) == 0 {
			continue
		}
		sample, err := NewSample(backend, 1, len(data), NoopCallbacks())
		if err != nil {
			continue
		}
		sample.OwnsDecoder = false
		if uerr := backend.Upload(sample.Buffers[0], data, format.Bits, format.Channels, freq); uerr != nil {
			continue
		}
		bank.Samples = append(bank.Samples, sample)
	}
	if len(bank.Samples) == 0 {
		return nil, audioerr.New(audioerr.KindInvalidState, "core.LoadBank", fmt.Errorf("zero successful decodes among %d files", len(filenames)))
	}
	return bank, nil
}

// ReleaseBank stops any source currently playing a sample from this bank
// before destroying its samples (spec §4.6).
func (p *Pool) ReleaseBank(bank *Bank) {
	for i := 0; i < p.cfg.NumSFX; i++ {
		slot := p.slots[i]
		slot.mu.Lock()
		if slot.Sample != nil {
			for _, s := range bank.Samples {
				if slot.Sample == s {
					p.stopSource(slot)
					slot.Sample = nil
					slot.StreamShouldBePlaying = false
					break
				}
			}
		}
		slot.mu.Unlock()
	}
	for _, s := range bank.Samples {
		s.Release(p.backend)
	}
}

// PositionFromXY maps a 2D game-world position onto the backend's 3D
// position property (spec §4.6): (x, y) -> (x/ATTENUATION, 0,
// y/ATTENUATION), renormalized to MinDistance if the result is too
// close to the listener.
func (p *Pool) PositionFromXY(x, y float32) [3]float32 {
	vx := x / float32(p.cfg.Attenuation)
	vz := y / float32(p.cfg.Attenuation)
	mag := float32(math.Sqrt(float64(vx*vx + vz*vz)))
	minDist := float32(p.cfg.MinDistance)
	if mag < minDist && mag > 0 {
		scale := minDist / mag
		vx *= scale
		vz *= scale
	}
	return [3]float32{vx, 0, vz}
}

// NonPositionalVector is the fixed "no position" listener-relative
// vector (spec §6.4).
var NonPositionalVector = [3]float32{0, 0, -1}

// PlayChannel plays bank.Samples[index] on SFX channel ch (spec §4.6).
// pos is only honored when positional is true; obj is an opaque
// positional-object tag stashed on the slot for the caller's own
// bookkeeping (e.g. an entity handle). priority is accepted for
// interface parity with the original channel-allocation API but is
// unused here since the caller picks ch explicitly rather than asking
// the engine to allocate one by priority.
func (p *Pool) PlayChannel(ch int, bank *Bank, index int, positional bool, x, y float32, obj interface{}, priority int) error {
	_ = priority
	if ch < 0 || ch >= p.cfg.NumSFX {
		return audioerr.New(audioerr.KindInvalidState, "core.PlayChannel", fmt.Errorf("channel %d out of range", ch))
	}
	if index < 0 || index >= len(bank.Samples) {
		return audioerr.New(audioerr.KindInvalidState, "core.PlayChannel", fmt.Errorf("index %d out of range", index))
	}

	slot := p.slots[ch]
	slot.mu.Lock()
	defer slot.mu.Unlock()

	p.stopSource(slot)
	p.checkFinishedChannelsExcept(ch)

	sample := bank.Samples[index]
	slot.Sample = sample
	slot.PosObj = PositionalObject{Positional: positional, X: x, Y: y, Obj: obj}

	var vec [3]float32
	if positional {
		vec = p.PositionFromXY(x, y)
	} else {
		vec = NonPositionalVector
	}
	if err := p.backend.SetProperty(slot.Handle, mixer.PropertyPosition, vec[0], vec[1], vec[2]); err != nil {
		p.log.Warn("set sfx position failed", "channel", ch, "err", err)
	}

	if err := p.backend.QueueBuffers(slot.Handle, sample.Buffers); err != nil {
		return audioerr.New(audioerr.KindBackendFailure, "core.PlayChannel.queue", err)
	}
	if err := p.backend.Play(slot.Handle); err != nil {
		return audioerr.New(audioerr.KindBackendFailure, "core.PlayChannel.play", err)
	}
	slot.StreamShouldBePlaying = true
	return nil
}

// StopChannel stops SFX channel ch.
func (p *Pool) StopChannel(ch int) {
	slot := p.slots[ch]
	slot.mu.Lock()
	defer slot.mu.Unlock()
	p.stopSource(slot)
	slot.StreamShouldBePlaying = false
}

// CheckFinishedChannels reclaims any SFX slot whose backend state has
// gone to Stopped (spec §4.6).
func (p *Pool) CheckFinishedChannels(bank *Bank) {
	for i := 0; i < p.cfg.NumSFX; i++ {
		slot := p.slots[i]
		slot.mu.Lock()
		p.checkOneFinishedLocked(slot)
		slot.mu.Unlock()
	}
	_ = bank // bank-wide reclamation scans all SFX slots regardless of bank identity
}

// checkFinishedChannelsExcept reclaims every finished SFX slot other
// than except, which the caller already holds locked.
func (p *Pool) checkFinishedChannelsExcept(except int) {
	for i := 0; i < p.cfg.NumSFX; i++ {
		if i == except {
			continue
		}
		slot := p.slots[i]
		slot.mu.Lock()
		p.checkOneFinishedLocked(slot)
		slot.mu.Unlock()
	}
}

func (p *Pool) checkOneFinishedLocked(slot *Slot) {
	state, err := p.backend.State(slot.Handle)
	if err != nil {
		return
	}
	if state == mixer.StateStopped && slot.StreamShouldBePlaying {
		p.cleanSource(slot)
		slot.StreamShouldBePlaying = false
		slot.Sample = nil
	}
}

// ChannelPlaying reports whether ch's backend state is Playing.
func (p *Pool) ChannelPlaying(ch int) bool {
	slot := p.slots[ch]
	slot.mu.Lock()
	defer slot.mu.Unlock()
	state, err := p.backend.State(slot.Handle)
	if err != nil {
		return false
	}
	return state == mixer.StatePlaying
}
