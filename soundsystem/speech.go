package soundsystem

import (
	"github.com/acoliver/soundcore/core"
	"github.com/acoliver/soundcore/internal/audioerr"
)

// PlaySpeech plays one full speech clip directly on the speech slot,
// bypassing the track player's chunk/subtitle machinery entirely (spec
// §6.3's "speech (as-music)" lane — the same start/stop/pause/resume/
// seek/query primitives as music, just aimed at the speech slot). This
// shares the physical slot with the track player: starting one stops
// whatever the other had playing there, same as the original design's
// single speech source.
//
// A second call arriving while a load is already in progress returns
// KindConcurrentLoad without opening name or touching s.speechSample
// (spec §8 E6).
func (s *System) PlaySpeech(name string, looping bool) error {
	if !s.speechLoadMu.TryLock() {
		return audioerr.New(audioerr.KindConcurrentLoad, "soundsystem.PlaySpeech", nil)
	}
	defer s.speechLoadMu.Unlock()

	dec, err := s.openMusic(name, 0, 0)
	if err != nil {
		return audioerr.New(audioerr.KindDecodeFailure, "soundsystem.PlaySpeech", err)
	}

	s.player.StopTrack()

	slot := s.pool.SpeechSlot()
	slot.Lock()
	defer slot.Unlock()

	if s.speechSample != nil {
		s.speechSample.Release(s.backend)
	}
	sample, err := core.NewSample(s.backend, s.cfg.SpeechBufferCount, defaultChunkBytes, core.NoopCallbacks())
	if err != nil {
		dec.Close()
		return audioerr.New(audioerr.KindBackendFailure, "soundsystem.PlaySpeech", err)
	}
	sample.Decoder = dec
	s.speechSample = sample

	return s.pool.PlayStream(slot, sample, looping, true, true)
}

// StopSpeech stops the speech slot's direct-play sample, if any. Takes
// the same load guard as PlaySpeech so a stop can't race a concurrent
// load's sample swap.
func (s *System) StopSpeech() {
	s.speechLoadMu.Lock()
	defer s.speechLoadMu.Unlock()

	slot := s.pool.SpeechSlot()
	slot.Lock()
	if s.speechSample != nil {
		s.pool.StopStream(slot)
	}
	slot.Unlock()
	if s.speechSample != nil {
		s.speechSample.Release(s.backend)
		s.speechSample = nil
	}
}

func (s *System) PauseSpeech() {
	slot := s.pool.SpeechSlot()
	slot.Lock()
	defer slot.Unlock()
	s.pool.PauseStream(slot)
}

func (s *System) ResumeSpeech() {
	slot := s.pool.SpeechSlot()
	slot.Lock()
	defer slot.Unlock()
	s.pool.ResumeStream(slot)
}

func (s *System) SeekSpeech(posMS uint32) error {
	slot := s.pool.SpeechSlot()
	slot.Lock()
	defer slot.Unlock()
	return s.pool.SeekStream(slot, posMS)
}

func (s *System) SpeechPlaying() bool {
	slot := s.pool.SpeechSlot()
	slot.Lock()
	defer slot.Unlock()
	return s.pool.PlayingStream(slot)
}
