package core

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoliver/soundcore/decoder"
	"github.com/acoliver/soundcore/internal/config"
	"github.com/acoliver/soundcore/mixer"
)

// These tests drive the background streaming task end-to-end by calling
// mixer.FakeBackend.AdvanceAll against a real Pool, instead of asserting
// steady-state bind/play flags only. They cover spec §8's E1 (fade
// interpolation during active playback) and the end-of-stream part of
// E4 (on_end_stream fires once the decoder is exhausted); no underrun
// is forced or checked here.

func TestEngineFadesMusicVolumeDuringActivePlayback(t *testing.T) {
	backend := mixer.NewFakeBackend()
	pool, err := NewPool(config.Default(), backend)
	require.NoError(t, err)
	defer pool.Close()

	// Long enough that the fade completes long before the decoder runs dry.
	data := make([]byte, 1<<20)
	dec := decoder.NewMemDecoder(data, 44100, decoder.Format{Bits: 16, Channels: 2}, 256)

	sample, err := NewSample(backend, 4, 256, NoopCallbacks())
	require.NoError(t, err)
	sample.Decoder = dec

	slot := pool.MusicSlot()
	slot.Lock()
	require.NoError(t, pool.PlayStream(slot, sample, false, false, true))
	slot.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				backend.AdvanceAll(256)
				time.Sleep(2 * time.Millisecond)
			}
		}
	}()

	interval := pool.SecondsToUnits(0.1)
	require.True(t, pool.SetFade(interval, 0))

	require.Eventually(t, func() bool {
		v, err := backend.GetProperty(slot.Handle, mixer.PropertyGain)
		return err == nil && len(v) == 1 && v[0] == 0
	}, 2*time.Second, 5*time.Millisecond, "fade never reached end volume while stream was active")
}

func TestEngineEndsStreamAtEOFOnceDecoderDrains(t *testing.T) {
	backend := mixer.NewFakeBackend()
	pool, err := NewPool(config.Default(), backend)
	require.NoError(t, err)
	defer pool.Close()

	data := make([]byte, 64) // drains after a handful of 16-byte refills
	dec := decoder.NewMemDecoder(data, 44100, decoder.Format{Bits: 16, Channels: 2}, 16)

	var ended atomic.Bool
	sample, err := NewSample(backend, 2, 16, Callbacks{
		OnEndStream: func(*Sample) { ended.Store(true) },
	})
	require.NoError(t, err)
	sample.Decoder = dec

	slot := pool.MusicSlot()
	slot.Lock()
	require.NoError(t, pool.PlayStream(slot, sample, false, false, true))
	slot.Unlock()

	require.Eventually(t, func() bool {
		backend.AdvanceAll(1000) // far exceeds any buffer's frame count: drains it immediately
		return ended.Load()
	}, 3*time.Second, 5*time.Millisecond, "on_end_stream never fired once the decoder was exhausted")

	slot.Lock()
	assert.False(t, pool.PlayingStream(slot))
	slot.Unlock()
}
