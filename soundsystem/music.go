package soundsystem

import (
	"github.com/acoliver/soundcore/core"
	"github.com/acoliver/soundcore/internal/audioerr"
)

// PlayMusic opens name via the music page opener and begins streaming
// it on the fixed music slot (spec §4.1/§6.3). A prior music stream,
// if any, is stopped and detached from the slot before its sample is
// released.
//
// A second call arriving while a load is already in progress returns
// KindConcurrentLoad without opening name or touching s.musicSample
// (spec §8 E6).
func (s *System) PlayMusic(name string, looping bool) error {
	if !s.musicLoadMu.TryLock() {
		return audioerr.New(audioerr.KindConcurrentLoad, "soundsystem.PlayMusic", nil)
	}
	defer s.musicLoadMu.Unlock()

	dec, err := s.openMusic(name, 0, 0)
	if err != nil {
		return audioerr.New(audioerr.KindDecodeFailure, "soundsystem.PlayMusic", err)
	}

	slot := s.pool.MusicSlot()
	slot.Lock()
	defer slot.Unlock()

	if s.musicSample != nil {
		s.pool.StopStream(slot)
		s.musicSample.Release(s.backend)
	}
	sample, err := core.NewSample(s.backend, s.cfg.MusicBufferCount, defaultChunkBytes, core.NoopCallbacks())
	if err != nil {
		dec.Close()
		return audioerr.New(audioerr.KindBackendFailure, "soundsystem.PlayMusic", err)
	}
	sample.Decoder = dec
	s.musicSample = sample

	return s.pool.PlayStream(slot, sample, looping, true, true)
}

// StopMusic stops the music slot, releasing its bound sample. Takes the
// same load guard as PlayMusic so a stop can't race a concurrent load's
// sample swap.
func (s *System) StopMusic() {
	s.musicLoadMu.Lock()
	defer s.musicLoadMu.Unlock()

	slot := s.pool.MusicSlot()
	slot.Lock()
	s.pool.StopStream(slot)
	slot.Unlock()
	if s.musicSample != nil {
		s.musicSample.Release(s.backend)
		s.musicSample = nil
	}
}

// PauseMusic and ResumeMusic pause/resume the music slot in place,
// preserving playback position via start_time adjustment (spec §4.1,
// §9's "pause resets decoder absence").
func (s *System) PauseMusic() {
	slot := s.pool.MusicSlot()
	slot.Lock()
	defer slot.Unlock()
	s.pool.PauseStream(slot)
}

func (s *System) ResumeMusic() {
	slot := s.pool.MusicSlot()
	slot.Lock()
	defer slot.Unlock()
	s.pool.ResumeStream(slot)
}

// SeekMusic seeks the music slot's bound decoder to posMS.
func (s *System) SeekMusic(posMS uint32) error {
	slot := s.pool.MusicSlot()
	slot.Lock()
	defer slot.Unlock()
	return s.pool.SeekStream(slot, posMS)
}

// MusicPlaying reports whether the music slot is currently streaming.
func (s *System) MusicPlaying() bool {
	slot := s.pool.MusicSlot()
	slot.Lock()
	defer slot.Unlock()
	return s.pool.PlayingStream(slot)
}

// SetMusicVolume and SetFade forward directly to the pool's fade
// controller (spec §4.4).
func (s *System) SetMusicVolume(volume float32) { s.pool.SetMusicVolume(volume) }

func (s *System) SetFade(intervalUnits int64, endVolume float32) bool {
	return s.pool.SetFade(intervalUnits, endVolume)
}

// defaultChunkBytes is how many bytes the music/speech-as-music lanes
// decode per buffer refill; matches the teacher's microphone capture
// chunk size order of magnitude, scaled for music-quality streaming.
const defaultChunkBytes = 16384
