package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoliver/soundcore/core"
	"github.com/acoliver/soundcore/decoder"
	"github.com/acoliver/soundcore/internal/config"
	"github.com/acoliver/soundcore/mixer"
)

func strPtr(s string) *string { return &s }

func fakePageOpener(name string, start, run float32) (decoder.Decoder, error) {
	if run <= 0 {
		run = 1
	}
	frames := int(run * 44100)
	data := make([]byte, frames*4) // stereo 16-bit
	return decoder.NewMemDecoder(data, 44100, decoder.Format{Bits: 16, Channels: 2}, 0), nil
}

func fakeFileOpener(name string) (decoder.Decoder, error) {
	return decoder.NewMemDecoder(make([]byte, 44100*4), 44100, decoder.Format{Bits: 16, Channels: 2}, 0), nil
}

func newTestPool(t *testing.T) (*core.Pool, mixer.Backend) {
	t.Helper()
	backend := mixer.NewFakeBackend()
	pool, err := core.NewPool(config.Default(), backend)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool, backend
}

func TestSpliceTrackProducesTwoTaggedChunks(t *testing.T) {
	pool, _ := newTestPool(t)
	player := NewPlayer(pool, fakePageOpener, fakeFileOpener)

	err := player.SpliceTrack(strPtr("a.ogg"), "Hello world\r\nGoodbye", "", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, player.trackCount)
	assert.NotNil(t, player.head)
	assert.NotNil(t, player.head.Next)
	assert.Nil(t, player.head.Next.Next)
	assert.True(t, player.head.TagMe)
	assert.True(t, player.head.Next.TagMe)
	assert.Negative(t, player.head.Next.DurationMillis)
}

func TestPlayTrackFiresFirstSubtitleImmediately(t *testing.T) {
	pool, _ := newTestPool(t)
	player := NewPlayer(pool, fakePageOpener, fakeFileOpener)

	require.NoError(t, player.SpliceTrack(strPtr("a.ogg"), "Hello world\r\nGoodbye", "", nil))
	require.NoError(t, player.PlayTrack())

	subtitle, ok := player.GetTrackSubtitle()
	require.True(t, ok)
	assert.Equal(t, "Hello world...", subtitle)
	assert.True(t, player.PlayingTrack())
}

// TestSpliceTrackAdvancesSubtitleViaBackgroundTask drives the chunk-list
// state machine through the real background streaming task (spec §8
// E2) instead of asserting chunk shape alone: it repeatedly calls
// mixer.FakeBackend.AdvanceAll to simulate playback consuming queued
// buffers until chunk0's on_end_chunk/on_tagged_buffer sequence has
// actually swapped the active subtitle over to chunk1.
func TestSpliceTrackAdvancesSubtitleViaBackgroundTask(t *testing.T) {
	pool, backend := newTestPool(t)
	fb := backend.(*mixer.FakeBackend)
	player := NewPlayer(pool, fakePageOpener, fakeFileOpener)

	require.NoError(t, player.SpliceTrack(strPtr("a.ogg"), "Hello world\r\nGoodbye", "", nil))
	require.NoError(t, player.PlayTrack())

	subtitle, ok := player.GetTrackSubtitle()
	require.True(t, ok)
	require.Equal(t, "Hello world...", subtitle)

	require.Eventually(t, func() bool {
		fb.AdvanceAll(1_000_000) // far exceeds any queued buffer: drains it in one tick
		subtitle, ok := player.GetTrackSubtitle()
		return ok && subtitle == "..Goodbye"
	}, 3*time.Second, 2*time.Millisecond, "subtitle never advanced to the second page via the background streaming task")
}

func TestStopTrackClearsStateAndDetachesDecoder(t *testing.T) {
	pool, _ := newTestPool(t)
	player := NewPlayer(pool, fakePageOpener, fakeFileOpener)

	require.NoError(t, player.SpliceTrack(strPtr("a.ogg"), "Hello world", "", nil))
	require.NoError(t, player.PlayTrack())

	player.StopTrack()

	assert.Nil(t, player.head)
	assert.Nil(t, player.activeChunk)
	assert.Nil(t, player.sample.Decoder)
	assert.False(t, player.PlayingTrack())
	assert.Equal(t, int64(0), player.GetTrackPosition(1000))
}

func TestSpliceTrackWithEmptyTextProducesOneAudioOnlyChunk(t *testing.T) {
	pool, _ := newTestPool(t)
	player := NewPlayer(pool, fakePageOpener, fakeFileOpener)

	err := player.SpliceTrack(strPtr("a.ogg"), "", "", nil)
	require.NoError(t, err)

	assert.NotNil(t, player.head)
	assert.Nil(t, player.head.Next)
	assert.Equal(t, "", player.head.Subtitle)
}

func TestSpliceTrackOnEmptyListIsNoop(t *testing.T) {
	pool, _ := newTestPool(t)
	player := NewPlayer(pool, fakePageOpener, fakeFileOpener)

	err := player.SpliceTrack(nil, "orphan continuation", "", nil)
	require.NoError(t, err)
	assert.Nil(t, player.head)
}

func TestSeekTrackPastEndStopsStream(t *testing.T) {
	pool, _ := newTestPool(t)
	player := NewPlayer(pool, fakePageOpener, fakeFileOpener)

	require.NoError(t, player.SpliceTrack(strPtr("a.ogg"), "only page", "", nil))
	require.NoError(t, player.PlayTrack())

	length := player.trackLength.Load()
	require.NoError(t, player.SeekTrack(length+1))

	assert.False(t, player.PlayingTrack())
	assert.Nil(t, player.activeChunk)
}
