package soundsystem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoliver/soundcore/decoder"
	"github.com/acoliver/soundcore/internal/audioerr"
	"github.com/acoliver/soundcore/internal/config"
	"github.com/acoliver/soundcore/mixer"
)

func testOpenMusic(name string, startSeconds, runSeconds float32) (decoder.Decoder, error) {
	frames := 44100 // ~1 second of stereo 16-bit audio, plenty for tests
	return decoder.NewMemDecoder(make([]byte, frames*4), 44100, decoder.Format{Bits: 16, Channels: 2}, 0), nil
}

func testOpenSFX(name string) (decoder.Decoder, error) {
	return decoder.NewMemDecoder(make([]byte, 4410*4), 44100, decoder.Format{Bits: 16, Channels: 2}, 0), nil
}

func newTestSystem(t *testing.T) *System {
	t.Helper()
	backend := mixer.NewFakeBackend()
	sys, err := Init(config.Default(), backend, testOpenMusic, testOpenSFX)
	require.NoError(t, err)
	t.Cleanup(func() { sys.Uninit() })
	return sys
}

func TestPlayMusicBindsAndReportsPlaying(t *testing.T) {
	sys := newTestSystem(t)

	require.NoError(t, sys.PlayMusic("theme.ogg", true))
	assert.True(t, sys.MusicPlaying())

	sys.StopMusic()
	assert.False(t, sys.MusicPlaying())
}

func TestPlayMusicReplacesPriorSample(t *testing.T) {
	sys := newTestSystem(t)

	require.NoError(t, sys.PlayMusic("a.ogg", false))
	first := sys.musicSample
	require.NoError(t, sys.PlayMusic("b.ogg", false))

	assert.NotSame(t, first, sys.musicSample)
	assert.True(t, sys.MusicPlaying())
}

func TestPauseResumeMusicPreservesPlayingFlag(t *testing.T) {
	sys := newTestSystem(t)
	require.NoError(t, sys.PlayMusic("a.ogg", true))

	sys.PauseMusic()
	assert.False(t, sys.MusicPlaying())
	sys.ResumeMusic()
	assert.True(t, sys.MusicPlaying())
}

func TestSFXLoadPlayAndStop(t *testing.T) {
	sys := newTestSystem(t)

	bank, err := sys.LoadBank([]string{"blip.wav"})
	require.NoError(t, err)
	require.Len(t, bank.Samples, 1)

	require.NoError(t, sys.PlayChannel(0, bank, 0, false, 0, 0, nil, 0))
	assert.True(t, sys.ChannelPlaying(0))

	sys.StopChannel(0)
	assert.False(t, sys.ChannelPlaying(0))
	sys.ReleaseBank(bank)
}

func TestWaitForSoundEndReturnsWhenQuitClosed(t *testing.T) {
	sys := newTestSystem(t)
	require.NoError(t, sys.PlayMusic("a.ogg", true))

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		sys.WaitForSoundEnd(AnySource(), true, quit)
		close(done)
	}()

	close(quit)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForSoundEnd did not return after quit was closed")
	}
}

func TestPlayMusicConcurrentLoadIsRejectedWithoutTouchingSample(t *testing.T) {
	sys := newTestSystem(t)
	require.NoError(t, sys.PlayMusic("a.ogg", true))
	before := sys.musicSample

	require.True(t, sys.musicLoadMu.TryLock(), "precondition: load guard must be free")
	err := sys.PlayMusic("b.ogg", true)
	sys.musicLoadMu.Unlock()

	require.Error(t, err)
	assert.True(t, audioerr.Is(err, audioerr.KindConcurrentLoad))
	assert.Same(t, before, sys.musicSample, "loser must not touch the bound sample")
}

func TestPlaySpeechConcurrentLoadIsRejectedWithoutTouchingSample(t *testing.T) {
	sys := newTestSystem(t)
	require.NoError(t, sys.PlaySpeech("a.ogg", true))
	before := sys.speechSample

	require.True(t, sys.speechLoadMu.TryLock(), "precondition: load guard must be free")
	err := sys.PlaySpeech("b.ogg", true)
	sys.speechLoadMu.Unlock()

	require.Error(t, err)
	assert.True(t, audioerr.Is(err, audioerr.KindConcurrentLoad))
	assert.Same(t, before, sys.speechSample, "loser must not touch the bound sample")
}

func TestWaitForSoundEndReturnsWhenStreamStops(t *testing.T) {
	sys := newTestSystem(t)
	require.NoError(t, sys.PlayMusic("a.ogg", false))
	sys.StopMusic()

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		sys.WaitForSoundEnd(AnySource(), true, quit)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForSoundEnd did not notice the stream had already stopped")
	}
}
