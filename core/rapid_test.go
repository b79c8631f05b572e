package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/acoliver/soundcore/decoder"
	"github.com/acoliver/soundcore/internal/config"
	"github.com/acoliver/soundcore/mixer"
)

// TestRapidPauseResumeRoundTripPreservesPlayingFlag property-tests spec
// §8's round-trip law: "pause_stream; resume_stream leaves
// playing_stream() true iff it was true before", across randomly
// interleaved play/stop states and repeated pause/resume cycles.
func TestRapidPauseResumeRoundTripPreservesPlayingFlag(t *testing.T) {
	backend := mixer.NewFakeBackend()
	pool, err := NewPool(config.Default(), backend)
	require.NoError(t, err)
	defer pool.Close()

	data := make([]byte, 1<<20)
	dec := decoder.NewMemDecoder(data, 44100, decoder.Format{Bits: 16, Channels: 2}, 256)
	sample, err := NewSample(backend, 4, 256, NoopCallbacks())
	require.NoError(t, err)
	sample.Decoder = dec

	slot := pool.MusicSlot()

	rapid.Check(t, func(rt *rapid.T) {
		shouldPlay := rapid.Bool().Draw(rt, "shouldPlay")

		slot.Lock()
		if shouldPlay {
			assert.NoError(rt, pool.PlayStream(slot, sample, false, false, true))
		} else {
			pool.StopStream(slot)
		}
		slot.Unlock()

		before := pool.PlayingStream(slot)

		cycles := rapid.IntRange(1, 3).Draw(rt, "pauseResumeCycles")
		for i := 0; i < cycles; i++ {
			slot.Lock()
			pool.PauseStream(slot)
			pool.ResumeStream(slot)
			slot.Unlock()
		}

		assert.Equal(rt, before, pool.PlayingStream(slot))
	})
}

// TestRapidStopStreamIsIdempotent property-tests spec §8's
// stop_stream ∘ stop_stream == stop_stream law: any number of
// consecutive StopStream calls leaves the same post-state as one.
func TestRapidStopStreamIsIdempotent(t *testing.T) {
	backend := mixer.NewFakeBackend()
	pool, err := NewPool(config.Default(), backend)
	require.NoError(t, err)
	defer pool.Close()

	data := make([]byte, 1<<20)
	dec := decoder.NewMemDecoder(data, 44100, decoder.Format{Bits: 16, Channels: 2}, 256)
	sample, err := NewSample(backend, 4, 256, NoopCallbacks())
	require.NoError(t, err)
	sample.Decoder = dec

	slot := pool.MusicSlot()

	rapid.Check(t, func(rt *rapid.T) {
		slot.Lock()
		assert.NoError(rt, pool.PlayStream(slot, sample, false, false, true))
		slot.Unlock()

		calls := rapid.IntRange(1, 4).Draw(rt, "stopCalls")
		for i := 0; i < calls; i++ {
			slot.Lock()
			pool.StopStream(slot)
			slot.Unlock()
		}

		assert.False(rt, pool.PlayingStream(slot))
		slot.Lock()
		assert.Nil(rt, slot.Sample)
		assert.Nil(rt, slot.Scope)
		assert.Equal(rt, int64(0), slot.PauseTime)
		slot.Unlock()
	})
}
